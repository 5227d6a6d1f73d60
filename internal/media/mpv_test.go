package media

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// fakeMPV answers every request with success and emits property changes.
func fakeMPV(t *testing.T, conn net.Conn, seen chan<- []any) {
	t.Helper()
	go func() {
		scanner := bufio.NewScanner(conn)
		enc := json.NewEncoder(conn)
		for scanner.Scan() {
			var req ipcRequest
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				return
			}
			seen <- req.Command
			if req.Command[0] == "set_property" && req.Command[1] == "pause" {
				_ = enc.Encode(map[string]any{"event": "property-change", "name": "pause", "data": req.Command[2]})
			}
			_ = enc.Encode(map[string]any{"request_id": req.RequestID, "error": "success", "data": nil})
		}
	}()
}

func TestMPVCommands(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	seen := make(chan []any, 16)
	fakeMPV(t, server, seen)
	m := newMPV(client)
	defer client.Close()

	if err := m.Seek(12.5); err != nil {
		t.Fatalf("seek: %v", err)
	}
	cmd := <-seen
	if cmd[0] != "seek" || cmd[1] != 12.5 || cmd[2] != "absolute+exact" {
		t.Fatalf("unexpected seek command %v", cmd)
	}
	if m.CurrentTime() != 12.5 {
		t.Fatalf("expected cached position after seek, got %v", m.CurrentTime())
	}
	if err := m.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}
	<-seen
	if m.Paused() {
		t.Fatalf("expected playing after play")
	}
}

func TestMPVPropertyEvents(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	m := newMPV(client)
	defer client.Close()

	enc := json.NewEncoder(server)
	_ = enc.Encode(map[string]any{"event": "property-change", "name": "time-pos", "data": 3.25})
	_ = enc.Encode(map[string]any{"event": "property-change", "name": "duration", "data": 90.0})
	_ = enc.Encode(map[string]any{"event": "property-change", "name": "time-pos", "data": nil})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if m.Duration() == 90 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if m.Duration() != 90 {
		t.Fatalf("expected duration 90, got %v", m.Duration())
	}
	if m.CurrentTime() != 3.25 {
		t.Fatalf("expected null time-pos to keep 3.25, got %v", m.CurrentTime())
	}
}

func TestMPVErrorReply(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	m := newMPV(client)
	defer client.Close()
	go func() {
		scanner := bufio.NewScanner(server)
		enc := json.NewEncoder(server)
		for scanner.Scan() {
			var req ipcRequest
			_ = json.Unmarshal(scanner.Bytes(), &req)
			_ = enc.Encode(map[string]any{"request_id": req.RequestID, "error": "property unavailable"})
		}
	}()
	if err := m.SetVolume(50); err == nil {
		t.Fatalf("expected error reply to surface")
	}
	if m.Volume() != 100 {
		t.Fatalf("expected volume unchanged on error")
	}
}

func TestClipArgs(t *testing.T) {
	args := ClipArgs("/v/movie.mkv", 1.9, 5.2)
	want := map[string]string{"-ss": "1.900", "-to": "5.200", "-i": "/v/movie.mkv", "-f": "webm"}
	for i := 0; i < len(args)-1; i++ {
		if v, ok := want[args[i]]; ok {
			if args[i+1] != v {
				t.Fatalf("expected %s %s, got %s", args[i], v, args[i+1])
			}
			delete(want, args[i])
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing args %v", want)
	}
	if args[len(args)-1] != "pipe:1" {
		t.Fatalf("expected stdout output")
	}
}

func TestRecorderRange(t *testing.T) {
	r := &FFmpegRecorder{}
	if _, _, ok := r.Range(); ok {
		t.Fatalf("expected no range before samples")
	}
	for _, p := range []float64{2.0, 2.5, 1.9, 4.0} {
		r.observe(p)
	}
	start, end, ok := r.Range()
	if !ok || start != 1.9 || end != 4.0 {
		t.Fatalf("unexpected range %v-%v", start, end)
	}
}
