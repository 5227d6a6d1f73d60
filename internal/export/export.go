// Package export turns the active line or a revealed word into a flashcard,
// capturing media only when the chosen template asks for it.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuidict/internal/anki"
	"github.com/verte-zerg/tuidict/internal/capture"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/subtitle"
)

const (
	SuccessDisplay = 2 * time.Second
	ErrorDisplay   = 3 * time.Second
)

var (
	ErrBusy       = errors.New("an export is already running")
	ErrNoTemplate = errors.New("no card template configured")
)

// Status is the transient export indicator.
type Status int

const (
	Idle Status = iota
	Recording
	Sending
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Sending:
		return "sending"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Sink receives finished notes.
type Sink interface {
	AddNote(ctx context.Context, note anki.Note) (int64, error)
}

// Capturer produces media for a note.
type Capturer interface {
	CaptureClip(ctx context.Context, start, end float64) (*capture.Clip, error)
	CaptureStill(ctx context.Context) (*capture.Still, error)
}

// Holder suspends playback bookkeeping while capture drives the element.
type Holder interface {
	Hold()
	Release()
}

// Templates holds the two configurable card templates.
type Templates struct {
	Audio *anki.Template
	Word  *anki.Template
}

// ForLine prefers the audio card and falls back to the word card.
func (t Templates) ForLine() (*anki.Template, error) {
	return pick(t.Audio, t.Word)
}

// ForWord prefers the audio card when audio is wanted, else the word card.
func (t Templates) ForWord(withAudio bool) (*anki.Template, error) {
	if withAudio {
		return pick(t.Audio, t.Word)
	}
	return pick(t.Word, t.Audio)
}

func pick(first, second *anki.Template) (*anki.Template, error) {
	if first.Valid() {
		return first, nil
	}
	if second.Valid() {
		return second, nil
	}
	return nil, ErrNoTemplate
}

// LineRequest exports a whole line.
type LineRequest struct {
	Line       model.Line
	SourceName string
}

// WordRequest exports a single word with its line as context.
type WordRequest struct {
	Line       model.Line
	SourceName string
	Word       string
	Definition string
	WithAudio  bool
}

// Exporter runs one export at a time and tracks its status.
type Exporter struct {
	sink      Sink
	capturer  Capturer
	holder    Holder
	templates Templates
	now       func() time.Time

	mu      sync.Mutex
	busy    bool
	status  Status
	message string
	changed time.Time
}

// New creates an exporter. holder may be nil.
func New(sink Sink, capturer Capturer, holder Holder, templates Templates) *Exporter {
	return &Exporter{
		sink:      sink,
		capturer:  capturer,
		holder:    holder,
		templates: templates,
		now:       time.Now,
	}
}

// SetTemplates replaces the card templates.
func (e *Exporter) SetTemplates(t Templates) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates = t
}

// Status returns the indicator and its message. Success and error fall back
// to idle after their display window.
func (e *Exporter) Status() (Status, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	elapsed := e.now().Sub(e.changed)
	switch {
	case e.status == Success && elapsed >= SuccessDisplay,
		e.status == Failed && elapsed >= ErrorDisplay:
		e.status = Idle
		e.message = ""
	}
	return e.status, e.message
}

// Reset returns the indicator to idle unless an export is running.
func (e *Exporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return
	}
	e.status = Idle
	e.message = ""
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

func (e *Exporter) set(s Status, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
	e.message = msg
	e.changed = e.now()
}

func (e *Exporter) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	return nil
}

func (e *Exporter) release() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

// ExportLine sends the line with audio and a still when the template maps
// them.
func (e *Exporter) ExportLine(ctx context.Context, req LineRequest) error {
	e.mu.Lock()
	templates := e.templates
	e.mu.Unlock()
	tmpl, err := templates.ForLine()
	if err != nil {
		e.set(Failed, err.Error())
		return err
	}
	content := anki.Content{
		Sentence:   req.Line.Text,
		SourceName: req.SourceName,
		Timestamp:  subtitle.FormatTimeCode(req.Line.StartTime),
	}
	return e.run(ctx, *tmpl, req.Line, content, true)
}

// ExportWord sends a word card. Audio is captured only when requested and
// mapped by the chosen template.
func (e *Exporter) ExportWord(ctx context.Context, req WordRequest) error {
	e.mu.Lock()
	templates := e.templates
	e.mu.Unlock()
	tmpl, err := templates.ForWord(req.WithAudio)
	if err != nil {
		e.set(Failed, err.Error())
		return err
	}
	content := anki.Content{
		Sentence:   req.Line.Text,
		SourceName: req.SourceName,
		Timestamp:  subtitle.FormatTimeCode(req.Line.StartTime),
		Word:       req.Word,
		Definition: req.Definition,
	}
	return e.run(ctx, *tmpl, req.Line, content, req.WithAudio)
}

func (e *Exporter) run(ctx context.Context, tmpl anki.Template, line model.Line, content anki.Content, wantAudio bool) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	needStill := tmpl.Uses(anki.KeyStill)
	needAudio := wantAudio && tmpl.Uses(anki.KeyAudioClip)
	if needStill || needAudio {
		e.set(Recording, "")
		if err := e.captureMedia(ctx, line, &content, needStill, needAudio); err != nil {
			e.set(Failed, err.Error())
			return err
		}
	}

	e.set(Sending, "")
	if _, err := e.sink.AddNote(ctx, anki.BuildNote(tmpl, content)); err != nil {
		e.set(Failed, err.Error())
		return fmt.Errorf("failed to add note: %w", err)
	}
	e.set(Success, "added to "+tmpl.Deck)
	return nil
}

func (e *Exporter) captureMedia(ctx context.Context, line model.Line, content *anki.Content, needStill, needAudio bool) error {
	if e.holder != nil {
		e.holder.Hold()
		defer e.holder.Release()
	}
	if needStill {
		still, err := e.capturer.CaptureStill(ctx)
		if err != nil {
			return err
		}
		if still != nil {
			content.Still = &anki.Attachment{
				Base64:   still.Base64(),
				Filename: mediaName("img", still.Extension()),
			}
		}
	}
	if needAudio {
		clip, err := e.capturer.CaptureClip(ctx, line.StartTime, line.EndTime)
		if err != nil {
			return err
		}
		if clip != nil {
			content.Audio = &anki.Attachment{
				Base64:   clip.Base64(),
				Filename: mediaName("audio", clip.Extension()),
			}
		}
	}
	return nil
}

func mediaName(kind, ext string) string {
	return fmt.Sprintf("tuidict_%s_%s.%s", kind, uuid.NewString(), ext)
}
