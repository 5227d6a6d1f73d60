package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/verte-zerg/tuidict/internal/anki"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Practice.SectionMinutes != nil || cfg.Anki.AudioCard != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[practice]
section-minutes = 5.0
mode = "reveal"
reveal-playback = "continuous"

[capture]
start-padding-ms = 150

[anki]
url = "http://localhost:9999"

[anki.audio-card]
deck = "Listening"
model = "Audio Sentence"

[anki.audio-card.fields]
Front = "sentence"
Sound = "audioClip"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Practice.SectionMinutes != 5 || *cfg.Practice.Mode != "reveal" {
		t.Fatalf("unexpected practice config")
	}
	if *cfg.Capture.StartPaddingMs != 150 || cfg.Capture.EndPaddingMs != nil {
		t.Fatalf("unexpected capture config")
	}
	tmpl := cfg.Anki.AudioCard.Template()
	if !tmpl.Valid() || !tmpl.Uses(anki.KeyAudioClip) {
		t.Fatalf("unexpected template %+v", tmpl)
	}
	if cfg.Anki.WordCard.Template() != nil {
		t.Fatalf("expected nil word card")
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[anki.word-card]\ndeck = \"d\"\nmodel = \"m\"\n[anki.word-card.fields]\nFront = \"meaning\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown semantic key to fail")
	}
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(AnkiKeyEnv+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(AnkiKeyEnv, "from-env")
	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load env: %v", err)
	}
	key, err := AnkiKey()
	if err != nil || key != "from-env" {
		t.Fatalf("expected env to win, got %q %v", key, err)
	}
}

func TestAnkiKeyFromKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv(AnkiKeyEnv, "")
	if key, err := AnkiKey(); err != nil || key != "" {
		t.Fatalf("expected no key, got %q %v", key, err)
	}
	if err := SaveAnkiKey("stored"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if key, err := AnkiKey(); err != nil || key != "stored" {
		t.Fatalf("expected stored key, got %q %v", key, err)
	}
	if err := DeleteAnkiKey(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteAnkiKey(); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != "/cfg/tuidict/config.toml" {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != "/data/tuidict/tuidict.db" {
		t.Fatalf("unexpected db path %s", got)
	}
}
