package capture

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/tuidict/internal/media"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

type fakeRecorder struct {
	el      media.Element
	data    []byte
	started bool
	stopPos float64
}

func (r *fakeRecorder) Start() error {
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop(context.Context) ([]byte, error) {
	r.stopPos = r.el.CurrentTime()
	return r.data, nil
}

func (r *fakeRecorder) MimeType() string { return "audio/webm" }

type capturingElement struct {
	*media.Virtual
	rec       *fakeRecorder
	streamErr error
}

func (e *capturingElement) CaptureStream() (media.Recorder, error) {
	if e.streamErr != nil {
		return nil, e.streamErr
	}
	return e.rec, nil
}

func newFixture(data []byte) (*Service, *capturingElement, *fakeClock, *[]time.Duration) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	el := &capturingElement{Virtual: media.NewVirtual(10, clock.now)}
	el.rec = &fakeRecorder{el: el, data: data}
	svc := New(el, DefaultConfig())
	var waits []time.Duration
	svc.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		clock.t = clock.t.Add(d)
		return nil
	}
	return svc, el, clock, &waits
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCaptureClipPadsAndRestores(t *testing.T) {
	svc, el, _, waits := newFixture([]byte("opus"))
	_ = el.Seek(4)
	_ = el.Play()

	clip, err := svc.CaptureClip(context.Background(), 2.0, 5.0)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if clip == nil {
		t.Fatalf("expected a clip")
	}
	if !near(clip.Start, 1.9) || !near(clip.End, 5.2) {
		t.Fatalf("expected window 1.9-5.2, got %v-%v", clip.Start, clip.End)
	}
	if len(*waits) != 1 {
		t.Fatalf("expected one wait, got %d", len(*waits))
	}
	w := (*waits)[0]
	if w < 3340*time.Millisecond || w > 3360*time.Millisecond {
		t.Fatalf("expected window plus margin near 3.35s, got %v", w)
	}
	if !el.rec.started {
		t.Fatalf("expected recorder started")
	}
	if !near(el.rec.stopPos, 1.9+w.Seconds()) {
		t.Fatalf("expected recording to play from padded start, stopped at %v", el.rec.stopPos)
	}
	if !near(el.CurrentTime(), 4) || el.Paused() {
		t.Fatalf("expected restore to 4 and playing, got %v paused=%v", el.CurrentTime(), el.Paused())
	}
	if clip.Base64() != "b3B1cw==" || clip.Extension() != "webm" {
		t.Fatalf("unexpected encoding %q %q", clip.Base64(), clip.Extension())
	}
}

func TestCaptureClipRestoresPaused(t *testing.T) {
	svc, el, _, _ := newFixture([]byte("x"))
	_ = el.Seek(7)
	if _, err := svc.CaptureClip(context.Background(), 2, 3); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !el.Paused() || !near(el.CurrentTime(), 7) {
		t.Fatalf("expected paused at 7, got %v paused=%v", el.CurrentTime(), el.Paused())
	}
}

func TestCaptureClipBoundary(t *testing.T) {
	svc, el, _, waits := newFixture([]byte("x"))
	cases := []struct {
		name       string
		start, end float64
	}{
		{name: "before zero", start: 0, end: 5},
		{name: "past duration", start: 8, end: 9.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CaptureClip(context.Background(), tc.start, tc.end)
			if !errors.Is(err, ErrBoundary) {
				t.Fatalf("expected boundary error, got %v", err)
			}
			var be *BoundaryError
			if !errors.As(err, &be) || be.Duration != 10 {
				t.Fatalf("expected BoundaryError with duration, got %v", err)
			}
		})
	}
	if el.rec.started || len(*waits) != 0 {
		t.Fatalf("expected no recording on boundary error")
	}
}

func TestCaptureClipUnavailable(t *testing.T) {
	t.Run("no capturer", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(0, 0)}
		svc := New(media.NewVirtual(10, clock.now), DefaultConfig())
		if svc.Available() {
			t.Fatalf("expected virtual element without capture")
		}
		clip, err := svc.CaptureClip(context.Background(), 2, 3)
		if clip != nil || err != nil {
			t.Fatalf("expected unavailable, got %v %v", clip, err)
		}
	})
	t.Run("missing encoder", func(t *testing.T) {
		svc, el, _, _ := newFixture(nil)
		el.streamErr = media.ErrUnavailable
		clip, err := svc.CaptureClip(context.Background(), 2, 3)
		if clip != nil || err != nil {
			t.Fatalf("expected unavailable, got %v %v", clip, err)
		}
	})
	t.Run("empty recording", func(t *testing.T) {
		svc, el, _, _ := newFixture(nil)
		_ = el.Seek(6)
		clip, err := svc.CaptureClip(context.Background(), 2, 3)
		if clip != nil || err != nil {
			t.Fatalf("expected unavailable, got %v %v", clip, err)
		}
		if !near(el.CurrentTime(), 6) {
			t.Fatalf("expected restore after empty recording")
		}
	})
}

func TestCaptureClipInFlight(t *testing.T) {
	svc, _, _, _ := newFixture([]byte("x"))
	entered := make(chan struct{})
	unblock := make(chan struct{})
	svc.wait = func(context.Context, time.Duration) error {
		close(entered)
		<-unblock
		return nil
	}
	done := make(chan error, 1)
	go func() {
		_, err := svc.CaptureClip(context.Background(), 2, 3)
		done <- err
	}()
	<-entered
	if _, err := svc.CaptureClip(context.Background(), 2, 3); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	close(unblock)
	if err := <-done; err != nil {
		t.Fatalf("first capture: %v", err)
	}
}

func TestWindowUsesUpdatedConfig(t *testing.T) {
	svc, _, _, _ := newFixture(nil)
	svc.UpdateConfig(Config{StartPadding: 500 * time.Millisecond, EndPadding: 0})
	start, end, err := svc.Window(2, 3)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if !near(start, 1.5) || !near(end, 3) {
		t.Fatalf("unexpected window %v-%v", start, end)
	}
}

type stillElement struct {
	*media.Virtual
}

func (stillElement) Still(context.Context) ([]byte, string, error) {
	return []byte{0xff, 0xd8}, "image/jpeg", nil
}

func TestCaptureStill(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	svc := New(stillElement{media.NewVirtual(10, clock.now)}, DefaultConfig())
	still, err := svc.CaptureStill(context.Background())
	if err != nil || still == nil {
		t.Fatalf("expected still, got %v %v", still, err)
	}
	if still.Extension() != "jpg" {
		t.Fatalf("expected jpg, got %s", still.Extension())
	}

	plain := New(media.NewVirtual(10, clock.now), DefaultConfig())
	if still, err := plain.CaptureStill(context.Background()); still != nil || err != nil {
		t.Fatalf("expected no still without picture")
	}
}
