package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const sampleInterval = 20 * time.Millisecond

// FFmpegRecorder records what an element plays by sampling its position
// while it is playing and cutting the covered range from the source file.
type FFmpegRecorder struct {
	el     Element
	source string
	binary string

	mu      sync.Mutex
	minPos  float64
	maxPos  float64
	sampled bool
	stop    chan struct{}
	stopped chan struct{}
}

// NewFFmpegRecorder returns ErrUnavailable when ffmpeg cannot be found.
func NewFFmpegRecorder(el Element, source, binary string) (*FFmpegRecorder, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &FFmpegRecorder{el: el, source: source, binary: resolved}, nil
}

func (r *FFmpegRecorder) MimeType() string {
	return "audio/webm"
}

func (r *FFmpegRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return fmt.Errorf("recorder already started")
	}
	r.stop = make(chan struct{})
	r.stopped = make(chan struct{})
	r.sampled = false
	go r.sample(r.stop, r.stopped)
	return nil
}

func (r *FFmpegRecorder) sample(stop, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if r.el.Paused() {
				continue
			}
			r.observe(r.el.CurrentTime())
		}
	}
}

func (r *FFmpegRecorder) observe(pos float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sampled {
		r.minPos, r.maxPos, r.sampled = pos, pos, true
		return
	}
	if pos < r.minPos {
		r.minPos = pos
	}
	if pos > r.maxPos {
		r.maxPos = pos
	}
}

// Range returns the played range seen so far.
func (r *FFmpegRecorder) Range() (float64, float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.minPos, r.maxPos, r.sampled && r.maxPos > r.minPos
}

// Stop ends sampling and encodes the played range as Opus in WebM. Nothing
// played yields nil data and a nil error.
func (r *FFmpegRecorder) Stop(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	stop, stopped := r.stop, r.stopped
	r.stop = nil
	r.mu.Unlock()
	if stop == nil {
		return nil, fmt.Errorf("recorder not started")
	}
	close(stop)
	<-stopped

	start, end, ok := r.Range()
	if !ok {
		return nil, nil
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, ClipArgs(r.source, start, end)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("failed to encode clip: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("failed to encode clip: %w", err)
	}
	return stdout.Bytes(), nil
}

// ClipArgs builds the ffmpeg arguments that cut [start, end] from source
// and write audio-only WebM to stdout.
func ClipArgs(source string, start, end float64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", source,
		"-vn",
		"-c:a", "libopus",
		"-b:a", "96k",
		"-f", "webm",
		"pipe:1",
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
