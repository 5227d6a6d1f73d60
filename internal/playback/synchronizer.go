// Package playback couples a polled media element to the per-line practice
// state machine.
package playback

import (
	"sync"

	"github.com/verte-zerg/tuidict/internal/media"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/subtitle"
)

// DefaultSeekTolerance is how far before a line start the element may sit
// without being re-seeked when the line becomes active.
const DefaultSeekTolerance = 0.5

// Mode is the practice state of the active line.
type Mode int

const (
	Listening Mode = iota
	Input
	Feedback
)

func (m Mode) String() string {
	switch m {
	case Listening:
		return "listening"
	case Input:
		return "input"
	case Feedback:
		return "feedback"
	default:
		return "unknown"
	}
}

// Config is the runtime configuration of a Synchronizer.
type Config struct {
	LearningMode   model.LearningMode
	RevealPlayback model.RevealPlayback
	SeekTolerance  float64
	// Practicable reports whether a line needs learner input. Lines it
	// rejects are skipped at their end instead of entering Input.
	Practicable func(model.Line) bool
}

func (c Config) continuous() bool {
	return c.LearningMode == model.LearningReveal && c.RevealPlayback == model.RevealContinuous
}

// EventKind identifies a synchronizer notification.
type EventKind int

const (
	LineChanged EventKind = iota
	ModeChanged
	SectionComplete
	SessionComplete
)

// Event is delivered to observers after the state change it describes.
type Event struct {
	Kind    EventKind
	Section int
	Line    int
	Mode    Mode
}

// Observer receives events synchronously on the goroutine that caused them.
type Observer func(Event)

// lineState is the transient state of the active line.
type lineState struct {
	mode        Mode
	userPaused  bool
	armed       bool
	autoAdvance bool
}

// Snapshot is a copy of the synchronizer state.
type Snapshot struct {
	SectionIndex    int
	LineIndex       int
	Mode            Mode
	Line            model.Line
	HasLine         bool
	Section         model.Section
	SectionCount    int
	SectionComplete bool
	SessionComplete bool
	UserPaused      bool
	AutoAdvance     bool
	Playing         bool
	Position        float64
	// Progress is CurrentTime / Duration, in [0, 1].
	Progress        float64
	Held            bool
}

// Synchronizer owns the active section and line and drives the element.
// Tick is the poll and should be called once per frame.
type Synchronizer struct {
	mu       sync.Mutex
	el       media.Element
	sections []model.Section
	cfg      Config

	section         int
	line            int
	state           lineState
	sectionComplete bool
	sessionComplete bool
	progress        float64
	held            int

	observers []Observer
	queue     []Event
}

// New creates a synchronizer positioned on the first line of the first
// section. The element is not touched until an operation or Tick needs it.
func New(el media.Element, sections []model.Section, cfg Config) *Synchronizer {
	if cfg.SeekTolerance <= 0 {
		cfg.SeekTolerance = DefaultSeekTolerance
	}
	return &Synchronizer{
		el:       el,
		sections: sections,
		cfg:      cfg,
		state:    lineState{mode: Listening, armed: true},
	}
}

// Subscribe registers an observer.
func (s *Synchronizer) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// UpdateConfig swaps the configuration. A change of interaction mode clears
// the user-pause flag.
func (s *Synchronizer) UpdateConfig(cfg Config) {
	s.do(func() {
		if cfg.SeekTolerance <= 0 {
			cfg.SeekTolerance = DefaultSeekTolerance
		}
		if cfg.LearningMode != s.cfg.LearningMode || cfg.RevealPlayback != s.cfg.RevealPlayback {
			s.state.userPaused = false
		}
		s.cfg = cfg
	})
}

// Config returns the current configuration.
func (s *Synchronizer) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// do runs fn under the lock and delivers queued events after unlocking so
// observers may call back into the synchronizer.
func (s *Synchronizer) do(fn func()) {
	s.mu.Lock()
	fn()
	events := s.queue
	s.queue = nil
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, ev := range events {
		for _, o := range observers {
			o(ev)
		}
	}
}

// control runs an operation that drives the element. It is dropped while a
// Hold is active so a capture owns the element until Release.
func (s *Synchronizer) control(fn func()) {
	s.do(func() {
		if s.held > 0 {
			return
		}
		fn()
	})
}

func (s *Synchronizer) emit(kind EventKind) {
	s.queue = append(s.queue, Event{Kind: kind, Section: s.section, Line: s.line, Mode: s.state.mode})
}

func (s *Synchronizer) lines() []model.Line {
	if s.section < 0 || s.section >= len(s.sections) {
		return nil
	}
	return s.sections[s.section].Lines
}

func (s *Synchronizer) current() (model.Line, bool) {
	lines := s.lines()
	if s.line < 0 || s.line >= len(lines) {
		return model.Line{}, false
	}
	return lines[s.line], true
}

// Tick polls the element once. When the position reaches the active line's
// end while playing, a pausing mode pauses, snaps to the end and moves to
// Input (or auto-advances after a replay that asked for it); continuous
// reveal moves the pointer to the next line. The boundary fires once per
// pass and re-arms when the position is seen before the end again.
func (s *Synchronizer) Tick() {
	s.do(s.tickLocked)
}

func (s *Synchronizer) tickLocked() {
	pos := s.el.CurrentTime()
	if d := s.el.Duration(); d > 0 {
		s.progress = pos / d
	}
	if s.held > 0 || s.sectionComplete || s.sessionComplete {
		return
	}
	line, ok := s.current()
	if !ok {
		return
	}
	if pos < line.EndTime {
		s.state.armed = true
		return
	}
	if !s.state.armed || s.el.Paused() {
		return
	}
	s.state.armed = false

	if s.cfg.continuous() {
		s.advanceLocked()
		return
	}
	_ = s.el.Pause()
	_ = s.el.Seek(line.EndTime)
	switch {
	case s.state.mode == Listening && s.cfg.Practicable != nil && !s.cfg.Practicable(line):
		s.advanceLocked()
	case s.state.mode == Listening:
		s.setModeLocked(Input)
	case s.state.autoAdvance:
		s.state.autoAdvance = false
		s.advanceLocked()
	}
}

func (s *Synchronizer) setModeLocked(m Mode) {
	if s.state.mode == m {
		return
	}
	s.state.mode = m
	s.state.userPaused = false
	s.emit(ModeChanged)
}

// setLineLocked activates line idx of the current section in Listening mode.
// When autoplay is set the element is seeked into the line and played,
// unless continuous reveal was paused by the user before the change.
func (s *Synchronizer) setLineLocked(idx int, autoplay bool) {
	wasUserPaused := s.state.userPaused
	prevMode := s.state.mode
	s.line = idx
	s.state = lineState{mode: Listening, armed: true}
	s.emit(LineChanged)
	if prevMode != Listening {
		s.emit(ModeChanged)
	}
	line, ok := s.current()
	if !ok {
		return
	}
	if !autoplay {
		_ = s.el.Seek(line.StartTime)
		return
	}
	pos := s.el.CurrentTime()
	if pos < line.StartTime-s.cfg.SeekTolerance || pos > line.EndTime {
		_ = s.el.Seek(line.StartTime)
	}
	if s.cfg.continuous() && wasUserPaused {
		return
	}
	if s.el.Paused() {
		_ = s.el.Play()
	}
}

// advanceLocked moves to the next line, or signals section or session
// completion when the section is exhausted.
func (s *Synchronizer) advanceLocked() {
	if s.line < len(s.lines())-1 {
		s.setLineLocked(s.line+1, true)
		return
	}
	if s.cfg.continuous() {
		_ = s.el.Pause()
	}
	if s.section < len(s.sections)-1 {
		s.sectionComplete = true
		s.emit(SectionComplete)
		return
	}
	s.sessionComplete = true
	s.emit(SessionComplete)
}

// Continue advances after feedback or a completed reveal.
func (s *Synchronizer) Continue() {
	s.control(s.advanceLocked)
}

// Submit moves the active line from Input to Feedback.
func (s *Synchronizer) Submit() {
	s.do(func() {
		if s.state.mode == Input {
			s.setModeLocked(Feedback)
		}
	})
}

// Replay seeks to the line start and plays. With autoAdvance set, reaching
// the end of the line advances to the next one.
func (s *Synchronizer) Replay(autoAdvance bool) {
	s.control(func() { s.replayLocked(autoAdvance) })
}

func (s *Synchronizer) replayLocked(autoAdvance bool) {
	line, ok := s.current()
	if !ok {
		return
	}
	_ = s.el.Seek(line.StartTime)
	_ = s.el.Play()
	s.state.armed = true
	s.state.userPaused = false
	s.state.autoAdvance = autoAdvance
}

// UserPause pauses playback on the user's behalf.
func (s *Synchronizer) UserPause() {
	s.control(func() {
		_ = s.el.Pause()
		s.state.userPaused = true
	})
}

// Resume plays on the user's behalf and clears the user-pause flag.
func (s *Synchronizer) Resume() {
	s.control(func() {
		s.state.userPaused = false
		_ = s.el.Play()
	})
}

// TogglePlay pauses when playing. When paused in Input or Feedback it
// replays the line, otherwise it resumes.
func (s *Synchronizer) TogglePlay() {
	s.control(func() {
		if !s.el.Paused() {
			_ = s.el.Pause()
			s.state.userPaused = true
			return
		}
		if s.state.mode == Input || s.state.mode == Feedback {
			s.replayLocked(false)
			return
		}
		s.state.userPaused = false
		_ = s.el.Play()
	})
}

// SkipPrev moves to the previous line of the section. It does nothing on
// the first line.
func (s *Synchronizer) SkipPrev() {
	s.control(func() {
		if s.line > 0 {
			s.clearCompleteLocked()
			s.setLineLocked(s.line-1, true)
		}
	})
}

// SkipNext moves to the next line of the section. It does nothing on the
// last line.
func (s *Synchronizer) SkipNext() {
	s.control(func() {
		if s.line < len(s.lines())-1 {
			s.clearCompleteLocked()
			s.setLineLocked(s.line+1, true)
		}
	})
}

func (s *Synchronizer) clearCompleteLocked() {
	s.sectionComplete = false
	s.sessionComplete = false
}

// ScrubTo seeks to percent (0-100) of the media and activates the section
// and line under the new position.
func (s *Synchronizer) ScrubTo(percent float64) {
	s.control(func() {
		d := s.el.Duration()
		if d <= 0 {
			return
		}
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		t := percent / 100 * d
		_ = s.el.Seek(t)
		s.progress = percent / 100

		target := subtitle.FindSection(s.sections, t)
		if target < 0 {
			return
		}
		if target != s.section {
			li := subtitle.FindLine(s.sections[target].Lines, t)
			if li < 0 {
				li = 0
			}
			s.section = target
			s.clearCompleteLocked()
			s.setLineLocked(li, true)
			return
		}
		li := subtitle.FindLine(s.lines(), t)
		if li >= 0 && li != s.line {
			s.clearCompleteLocked()
			s.setLineLocked(li, true)
		}
	})
}

// SwitchSection activates the first line of section idx, pauses and seeks
// to that line (or to the section start when it has no lines).
func (s *Synchronizer) SwitchSection(idx int) {
	s.control(func() { s.switchSectionLocked(idx, 0) })
}

// NextSection switches to the section after the current one.
func (s *Synchronizer) NextSection() {
	s.control(func() { s.switchSectionLocked(s.section+1, 0) })
}

// Restore resumes at a saved section and line without starting playback.
// Out-of-range values fall back to the section's first line.
func (s *Synchronizer) Restore(section, line int) {
	s.control(func() { s.switchSectionLocked(section, line) })
}

func (s *Synchronizer) switchSectionLocked(idx, line int) {
	if idx < 0 || idx >= len(s.sections) {
		return
	}
	s.section = idx
	s.clearCompleteLocked()
	_ = s.el.Pause()
	lines := s.lines()
	if line < 0 || line >= len(lines) {
		line = 0
	}
	if len(lines) == 0 {
		s.line = 0
		s.state = lineState{mode: Listening, armed: true}
		s.emit(LineChanged)
		_ = s.el.Seek(s.sections[idx].StartTime)
		return
	}
	s.setLineLocked(line, false)
}

// Hold suspends boundary handling while another component drives the
// element. Until the matching Release, operations that would seek, play
// or pause are ignored. Calls nest.
func (s *Synchronizer) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held++
}

// Release undoes one Hold.
func (s *Synchronizer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held > 0 {
		s.held--
	}
}

// Sections returns the section list.
func (s *Synchronizer) Sections() []model.Section {
	return s.sections
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.current()
	snap := Snapshot{
		SectionIndex:    s.section,
		LineIndex:       s.line,
		Mode:            s.state.mode,
		Line:            line,
		HasLine:         ok,
		SectionCount:    len(s.sections),
		SectionComplete: s.sectionComplete,
		SessionComplete: s.sessionComplete,
		UserPaused:      s.state.userPaused,
		AutoAdvance:     s.state.autoAdvance,
		Playing:         !s.el.Paused(),
		Position:        s.el.CurrentTime(),
		Progress:        s.progress,
		Held:            s.held > 0,
	}
	if s.section >= 0 && s.section < len(s.sections) {
		snap.Section = s.sections[s.section]
	}
	return snap
}

// Progress returns the persisted resume point for the active line.
func (s *Synchronizer) Progress() model.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Progress{LineIndex: s.line, SectionIndex: s.section}
}
