package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuidict/internal/config"
	"github.com/verte-zerg/tuidict/internal/model"
	"github.com/verte-zerg/tuidict/internal/store"
)

func TestDefaultConfigTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Practice.Mode != nil || cfg.Anki.AudioCard != nil {
		t.Fatalf("template values should all be commented out")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name, video, subs, want string
	}{
		{"  Pilot ", "/v/ep1.mkv", "/v/ep1.srt", "Pilot"},
		{"", "/v/ep1.mkv", "/v/other.srt", "ep1"},
		{"", "", "/v/ep2.es.srt", "ep2.es"},
	}
	for _, tc := range cases {
		if got := displayName(tc.name, tc.video, tc.subs); got != tc.want {
			t.Fatalf("displayName(%q, %q, %q) = %q, want %q", tc.name, tc.video, tc.subs, got, tc.want)
		}
	}
}

func seedStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}()

	ctx := context.Background()
	at := time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)
	if err := st.UpsertVideo(ctx, model.VideoRecord{
		ID:             "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
		DisplayName:    "La casa",
		SubtitlePath:   "/v/casa.srt",
		SubtitleText:   "1\n00:00:01,000 --> 00:00:02,000\nHola\n",
		TotalLines:     1,
		CompletionRate: 0.5,
		LearningMode:   model.LearningDictation,
		RevealPlayback: model.RevealLineByLine,
		DateAdded:      at,
		LastPracticed:  at,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := st.SaveLine(ctx, model.SavedLine{
		ID:          "5a5a5a5a-0000-0000-0000-000000000001",
		Text:        "Hola",
		VideoID:     "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
		LineID:      1,
		VideoName:   "La casa",
		TimeDisplay: "00:01",
		DateSaved:   at,
	}); err != nil {
		t.Fatalf("save line: %v", err)
	}
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("tuidict %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestLibraryListsRecords(t *testing.T) {
	seedStore(t)

	out := runCLI(t, "library")
	if !strings.Contains(out, "0f1e2d3c") || !strings.Contains(out, "La casa") || !strings.Contains(out, "50%") {
		t.Fatalf("unexpected library output:\n%s", out)
	}
}

func TestSavedExportJSON(t *testing.T) {
	seedStore(t)

	out := runCLI(t, "saved", "export", "--format", "json")
	var lines []model.SavedLine
	if err := json.Unmarshal([]byte(out), &lines); err != nil {
		t.Fatalf("decode export: %v\n%s", err, out)
	}
	if len(lines) != 1 || lines[0].Text != "Hola" || lines[0].TimeDisplay != "00:01" {
		t.Fatalf("unexpected export: %+v", lines)
	}
}

func TestSavedExportYAML(t *testing.T) {
	seedStore(t)

	out := runCLI(t, "saved", "export")
	if !strings.Contains(out, "text: Hola") || !strings.Contains(out, "video_name: La casa") {
		t.Fatalf("unexpected yaml export:\n%s", out)
	}
}

func TestStatsPlainWithoutAttempts(t *testing.T) {
	seedStore(t)

	out := runCLI(t, "stats", "--plain")
	if !strings.Contains(out, "No attempts found.") {
		t.Fatalf("unexpected stats output:\n%s", out)
	}
}
