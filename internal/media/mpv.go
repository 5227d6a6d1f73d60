package media

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	requestTimeout = 2 * time.Second
	dialTimeout    = 5 * time.Second
)

var errClosed = errors.New("mpv connection closed")

// MPVOptions configures the mpv process.
type MPVOptions struct {
	Binary string
	FFmpeg string
	Volume float64
	Speed  float64
}

// MPV drives an mpv process over its JSON IPC socket. Playback properties are
// observed and cached so polling never blocks on the socket.
type MPV struct {
	path   string
	ffmpeg string
	cmd    *exec.Cmd
	socket string

	conn    net.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   int64
	pending  map[int64]chan ipcResponse
	pos      float64
	duration float64
	paused   bool
	volume   float64
	speed    float64

	done chan struct{}
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

type ipcResponse struct {
	RequestID *int64          `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
}

var observed = []string{"time-pos", "duration", "pause", "volume", "speed"}

// StartMPV launches mpv paused on path and connects to its IPC socket.
func StartMPV(ctx context.Context, path string, opts MPVOptions) (*MPV, error) {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if _, err := exec.LookPath(opts.Binary); err != nil {
		return nil, fmt.Errorf("failed to find mpv: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}

	socket := filepath.Join(os.TempDir(), "tuidict-"+uuid.NewString()+".sock")
	cmd := exec.Command(opts.Binary,
		"--input-ipc-server="+socket,
		"--pause",
		"--keep-open=yes",
		"--force-window=yes",
		"--really-quiet",
		"--no-terminal",
		abs,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	conn, err := dialSocket(ctx, socket)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	m := newMPV(conn)
	m.path = abs
	m.cmd = cmd
	m.socket = socket
	m.ffmpeg = opts.FFmpeg
	if err := m.observe(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	if opts.Volume > 0 {
		_ = m.SetVolume(opts.Volume)
	}
	if opts.Speed > 0 {
		_ = m.SetSpeed(opts.Speed)
	}
	return m, nil
}

func dialSocket(ctx context.Context, socket string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "unix", socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to mpv: %w", err)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func newMPV(conn net.Conn) *MPV {
	m := &MPV{
		conn:    conn,
		pending: map[int64]chan ipcResponse{},
		paused:  true,
		volume:  100,
		speed:   1,
		done:    make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func (m *MPV) observe(ctx context.Context) error {
	for i, name := range observed {
		if _, err := m.command(ctx, "observe_property", i+1, name); err != nil {
			return fmt.Errorf("failed to observe %s: %w", name, err)
		}
	}
	return nil
}

func (m *MPV) readLoop() {
	defer close(m.done)
	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			continue
		}
		if resp.Event == "property-change" {
			m.applyProperty(resp.Name, resp.Data)
			continue
		}
		if resp.RequestID == nil {
			continue
		}
		m.mu.Lock()
		ch, ok := m.pending[*resp.RequestID]
		delete(m.pending, *resp.RequestID)
		m.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (m *MPV) applyProperty(name string, data json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case "time-pos":
		var v *float64
		if json.Unmarshal(data, &v) == nil && v != nil {
			m.pos = *v
		}
	case "duration":
		var v *float64
		if json.Unmarshal(data, &v) == nil && v != nil {
			m.duration = *v
		}
	case "pause":
		var v *bool
		if json.Unmarshal(data, &v) == nil && v != nil {
			m.paused = *v
		}
	case "volume":
		var v *float64
		if json.Unmarshal(data, &v) == nil && v != nil {
			m.volume = *v
		}
	case "speed":
		var v *float64
		if json.Unmarshal(data, &v) == nil && v != nil {
			m.speed = *v
		}
	}
}

func (m *MPV) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	ch := make(chan ipcResponse, 1)
	m.pending[id] = ch
	m.mu.Unlock()

	payload, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		m.forget(id)
		return nil, fmt.Errorf("failed to encode mpv command: %w", err)
	}
	payload = append(payload, '\n')

	m.writeMu.Lock()
	_, err = m.conn.Write(payload)
	m.writeMu.Unlock()
	if err != nil {
		m.forget(id)
		return nil, fmt.Errorf("failed to send mpv command: %w", err)
	}

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], resp.Error)
		}
		return resp.Data, nil
	case <-m.done:
		return nil, errClosed
	case <-ctx.Done():
		m.forget(id)
		return nil, ctx.Err()
	}
}

func (m *MPV) forget(id int64) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

func (m *MPV) run(args ...any) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	_, err := m.command(ctx, args...)
	return err
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *MPV) Play() error {
	if err := m.run("set_property", "pause", false); err != nil {
		return err
	}
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
	return nil
}

func (m *MPV) Pause() error {
	if err := m.run("set_property", "pause", true); err != nil {
		return err
	}
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
	return nil
}

// Seek jumps to t exactly. The cached position is updated at once so a poll
// right after the seek does not see the old position.
func (m *MPV) Seek(t float64) error {
	if err := m.run("seek", t, "absolute+exact"); err != nil {
		return err
	}
	m.mu.Lock()
	m.pos = t
	m.mu.Unlock()
	return nil
}

func (m *MPV) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *MPV) SetVolume(v float64) error {
	v = clamp(v, 0, 100)
	if err := m.run("set_property", "volume", v); err != nil {
		return err
	}
	m.mu.Lock()
	m.volume = v
	m.mu.Unlock()
	return nil
}

func (m *MPV) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

func (m *MPV) SetSpeed(r float64) error {
	r = clamp(r, MinSpeed, MaxSpeed)
	if err := m.run("set_property", "speed", r); err != nil {
		return err
	}
	m.mu.Lock()
	m.speed = r
	m.mu.Unlock()
	return nil
}

// CaptureStream returns an ffmpeg-backed recorder for the loaded file.
func (m *MPV) CaptureStream() (Recorder, error) {
	return NewFFmpegRecorder(m, m.path, m.ffmpeg)
}

// Still saves the displayed frame through mpv and returns it as JPEG.
func (m *MPV) Still(ctx context.Context) ([]byte, string, error) {
	file := filepath.Join(os.TempDir(), "tuidict-"+uuid.NewString()+".jpg")
	defer func() {
		// Best-effort cleanup of the temporary screenshot.
		_ = os.Remove(file)
	}()
	if _, err := m.command(ctx, "screenshot-to-file", file, "video"); err != nil {
		return nil, "", fmt.Errorf("failed to take screenshot: %w", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	return data, "image/jpeg", nil
}

// Close quits mpv and removes the socket.
func (m *MPV) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	_, _ = m.command(ctx, "quit")
	err := m.conn.Close()
	if m.cmd != nil {
		_ = m.cmd.Wait()
	}
	if m.socket != "" {
		_ = os.Remove(m.socket)
	}
	return err
}
