// Package capture records a padded window of the playing media as an
// export-ready clip and grabs still frames.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/tuidict/internal/media"
)

const (
	DefaultStartPadding = 100 * time.Millisecond
	DefaultEndPadding   = 200 * time.Millisecond
	DefaultMargin       = 50 * time.Millisecond
)

var (
	// ErrBoundary matches every BoundaryError.
	ErrBoundary = errors.New("capture window outside media bounds")
	// ErrInFlight is returned when a capture is already running.
	ErrInFlight = errors.New("capture already in progress")
)

// BoundaryError reports a padded window that does not fit the media.
type BoundaryError struct {
	Start    float64
	End      float64
	Duration float64
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("padded window %.3f-%.3f exceeds media bounds 0-%.3f; reduce capture padding", e.Start, e.End, e.Duration)
}

func (e *BoundaryError) Is(target error) bool {
	return target == ErrBoundary
}

// Config holds the capture padding and safety margin.
type Config struct {
	StartPadding time.Duration
	EndPadding   time.Duration
	Margin       time.Duration
}

// DefaultConfig returns the default padding.
func DefaultConfig() Config {
	return Config{
		StartPadding: DefaultStartPadding,
		EndPadding:   DefaultEndPadding,
		Margin:       DefaultMargin,
	}
}

// Clip is an encoded audio capture.
type Clip struct {
	Data     []byte
	MimeType string
	Start    float64
	End      float64
}

// Base64 returns the clip encoded for transport.
func (c *Clip) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Data)
}

// Extension returns a file extension matching the mime type.
func (c *Clip) Extension() string {
	return extensionFor(c.MimeType)
}

// Still is a captured frame.
type Still struct {
	Data     []byte
	MimeType string
}

// Base64 returns the frame encoded for transport.
func (s *Still) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// Extension returns a file extension matching the mime type.
func (s *Still) Extension() string {
	return extensionFor(s.MimeType)
}

func extensionFor(mime string) string {
	switch mime {
	case "audio/webm":
		return "webm"
	case "audio/ogg":
		return "ogg"
	case "audio/mpeg":
		return "mp3"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	default:
		return "bin"
	}
}

// Service captures from a single element. Only one capture runs at a time.
type Service struct {
	el   media.Element
	wait func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	cfg      Config
	inFlight bool
}

// New creates a capture service for el.
func New(el media.Element, cfg Config) *Service {
	return &Service{el: el, cfg: cfg, wait: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UpdateConfig replaces the padding configuration.
func (s *Service) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Config returns the current configuration.
func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Available reports whether the element can record audio at all.
func (s *Service) Available() bool {
	_, ok := s.el.(media.Capturer)
	return ok
}

// Window returns the padded window for [start, end]. It fails with a
// BoundaryError instead of clamping.
func (s *Service) Window(start, end float64) (float64, float64, error) {
	cfg := s.Config()
	paddedStart := start - cfg.StartPadding.Seconds()
	paddedEnd := end + cfg.EndPadding.Seconds()
	duration := s.el.Duration()
	if paddedStart < 0 || paddedEnd > duration {
		return 0, 0, &BoundaryError{Start: paddedStart, End: paddedEnd, Duration: duration}
	}
	return paddedStart, paddedEnd, nil
}

func (s *Service) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrInFlight
	}
	s.inFlight = true
	return nil
}

func (s *Service) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// CaptureClip plays the padded window of [start, end] through a recorder
// and returns the encoded clip. The element's position and play state are
// restored afterwards. A nil clip with a nil error means capture is
// unavailable: the element cannot record, or the recorder produced nothing
// within the window plus margin. That result is final and not retried.
func (s *Service) CaptureClip(ctx context.Context, start, end float64) (*Clip, error) {
	paddedStart, paddedEnd, err := s.Window(start, end)
	if err != nil {
		return nil, err
	}
	capturer, ok := s.el.(media.Capturer)
	if !ok {
		return nil, nil
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	rec, err := capturer.CaptureStream()
	if err != nil {
		if errors.Is(err, media.ErrUnavailable) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open capture stream: %w", err)
	}

	origPos := s.el.CurrentTime()
	wasPaused := s.el.Paused()
	defer func() {
		// Best-effort restore; the capture result stands either way.
		_ = s.el.Seek(origPos)
		if wasPaused {
			_ = s.el.Pause()
		} else {
			_ = s.el.Play()
		}
	}()

	if err := s.el.Pause(); err != nil {
		return nil, fmt.Errorf("failed to pause for capture: %w", err)
	}
	if err := rec.Start(); err != nil {
		return nil, fmt.Errorf("failed to start recorder: %w", err)
	}
	if err := s.el.Seek(paddedStart); err != nil {
		_, _ = rec.Stop(ctx)
		return nil, fmt.Errorf("failed to seek for capture: %w", err)
	}
	if err := s.el.Play(); err != nil {
		_, _ = rec.Stop(ctx)
		return nil, fmt.Errorf("failed to play for capture: %w", err)
	}

	cfg := s.Config()
	window := time.Duration((paddedEnd - paddedStart) * float64(time.Second))
	waitErr := s.wait(ctx, window+cfg.Margin)
	_ = s.el.Pause()

	stopCtx, cancel := context.WithTimeout(context.Background(), window+cfg.Margin+stopGrace)
	defer cancel()
	data, err := rec.Stop(stopCtx)
	if waitErr != nil {
		return nil, fmt.Errorf("capture interrupted: %w", waitErr)
	}
	if err != nil {
		if stopCtx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stop recorder: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Clip{Data: data, MimeType: rec.MimeType(), Start: paddedStart, End: paddedEnd}, nil
}

// stopGrace bounds how long encoding may take after the window ends.
const stopGrace = 5 * time.Second

// CaptureStill grabs the displayed frame. A nil still with a nil error
// means the element has no picture.
func (s *Service) CaptureStill(ctx context.Context) (*Still, error) {
	taker, ok := s.el.(media.StillTaker)
	if !ok {
		return nil, nil
	}
	data, mime, err := taker.Still(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to capture still: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Still{Data: data, MimeType: mime}, nil
}
