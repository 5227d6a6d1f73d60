// Package media abstracts the playing video behind a small polling
// interface and provides capture helpers built on external tools.
package media

import (
	"context"
	"errors"
)

// ErrUnavailable reports that a capture capability is missing.
var ErrUnavailable = errors.New("capture unavailable")

// Element is a media element that can be polled and controlled. Positions are
// in seconds.
type Element interface {
	CurrentTime() float64
	Duration() float64
	Paused() bool
	Play() error
	Pause() error
	Seek(t float64) error
}

// Tuner is implemented by elements that support volume and speed changes.
type Tuner interface {
	Volume() float64
	SetVolume(v float64) error
	Speed() float64
	SetSpeed(r float64) error
}

// Recorder records the audio an element plays between Start and Stop.
type Recorder interface {
	Start() error
	// Stop ends the recording and returns the encoded bytes. Empty data
	// with a nil error means nothing was recorded.
	Stop(ctx context.Context) ([]byte, error)
	MimeType() string
}

// Capturer is implemented by elements that can expose their audio output.
type Capturer interface {
	CaptureStream() (Recorder, error)
}

// StillTaker is implemented by elements that can grab the displayed frame.
type StillTaker interface {
	Still(ctx context.Context) ([]byte, string, error)
}
