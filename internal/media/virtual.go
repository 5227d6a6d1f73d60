package media

import (
	"sync"
	"time"
)

// Virtual is a clock-driven element with no audio or picture. It stands in
// for a player when practicing from subtitles alone and in tests.
type Virtual struct {
	mu       sync.Mutex
	now      func() time.Time
	duration float64
	anchor   float64
	anchorAt time.Time
	paused   bool
	volume   float64
	speed    float64
}

// NewVirtual creates a paused element at position 0. A nil now uses time.Now.
func NewVirtual(duration float64, now func() time.Time) *Virtual {
	if now == nil {
		now = time.Now
	}
	return &Virtual{
		now:      now,
		duration: duration,
		paused:   true,
		volume:   100,
		speed:    1,
	}
}

func (v *Virtual) position() float64 {
	if v.paused {
		return v.anchor
	}
	pos := v.anchor + v.now().Sub(v.anchorAt).Seconds()*v.speed
	if pos >= v.duration {
		return v.duration
	}
	return pos
}

// settle folds elapsed play time into the anchor and pauses at the end.
func (v *Virtual) settle() {
	pos := v.position()
	v.anchor = pos
	v.anchorAt = v.now()
	if pos >= v.duration {
		v.paused = true
	}
}

func (v *Virtual) CurrentTime() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settle()
	return v.anchor
}

func (v *Virtual) Duration() float64 {
	return v.duration
}

func (v *Virtual) Paused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settle()
	return v.paused
}

func (v *Virtual) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settle()
	if v.anchor < v.duration {
		v.paused = false
	}
	return nil
}

func (v *Virtual) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settle()
	v.paused = true
	return nil
}

func (v *Virtual) Seek(t float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if t > v.duration {
		t = v.duration
	}
	v.anchor = t
	v.anchorAt = v.now()
	return nil
}

func (v *Virtual) Volume() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.volume
}

func (v *Virtual) SetVolume(vol float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.volume = clamp(vol, 0, 100)
	return nil
}

func (v *Virtual) Speed() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.speed
}

func (v *Virtual) SetSpeed(r float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.settle()
	v.speed = clamp(r, MinSpeed, MaxSpeed)
	return nil
}

const (
	MinSpeed = 0.25
	MaxSpeed = 2.0
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
