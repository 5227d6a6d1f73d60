package media

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestVirtualPlayback(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	v := NewVirtual(10, clock.now)
	if !v.Paused() || v.CurrentTime() != 0 {
		t.Fatalf("expected paused at 0")
	}
	if err := v.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	clock.advance(1500 * time.Millisecond)
	if got := v.CurrentTime(); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if err := v.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.advance(time.Second)
	if got := v.CurrentTime(); got != 1.5 {
		t.Fatalf("expected position frozen at 1.5, got %v", got)
	}
}

func TestVirtualStopsAtEnd(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	v := NewVirtual(2, clock.now)
	_ = v.Seek(1)
	_ = v.Play()
	clock.advance(5 * time.Second)
	if got := v.CurrentTime(); got != 2 {
		t.Fatalf("expected clamp to duration, got %v", got)
	}
	if !v.Paused() {
		t.Fatalf("expected pause at end")
	}
	if err := v.Play(); err != nil || !v.Paused() {
		t.Fatalf("expected play at end to stay paused")
	}
}

func TestVirtualSpeed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	v := NewVirtual(60, clock.now)
	_ = v.SetSpeed(0.5)
	_ = v.Play()
	clock.advance(4 * time.Second)
	if got := v.CurrentTime(); got != 2 {
		t.Fatalf("expected half speed position 2, got %v", got)
	}
	_ = v.SetSpeed(10)
	if v.Speed() != MaxSpeed {
		t.Fatalf("expected speed clamp, got %v", v.Speed())
	}
	_ = v.Seek(-3)
	if v.CurrentTime() != 0 {
		t.Fatalf("expected seek clamp at 0")
	}
}
