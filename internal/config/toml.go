// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/tuidict/internal/anki"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Capture  CaptureConfig  `toml:"capture"`
	Player   PlayerConfig   `toml:"player"`
	Anki     AnkiConfig     `toml:"anki"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	SectionMinutes *float64 `toml:"section-minutes"`
	Mode           *string  `toml:"mode"`
	RevealPlayback *string  `toml:"reveal-playback"`
	SeekTolerance  *float64 `toml:"seek-tolerance"`
	PeekSeconds    *float64 `toml:"peek-seconds"`
	Volume         *float64 `toml:"volume"`
	Speed          *float64 `toml:"speed"`
}

// CaptureConfig maps audio capture padding.
type CaptureConfig struct {
	StartPaddingMs *int `toml:"start-padding-ms"`
	EndPaddingMs   *int `toml:"end-padding-ms"`
	MarginMs       *int `toml:"margin-ms"`
}

// PlayerConfig names the external binaries.
type PlayerConfig struct {
	MPV    *string `toml:"mpv"`
	FFmpeg *string `toml:"ffmpeg"`
}

// AnkiConfig maps the AnkiConnect endpoint and card templates.
type AnkiConfig struct {
	URL       *string     `toml:"url"`
	AudioCard *CardConfig `toml:"audio-card"`
	WordCard  *CardConfig `toml:"word-card"`
}

// CardConfig is one card template: note fields mapped to semantic keys.
type CardConfig struct {
	Deck   string            `toml:"deck"`
	Model  string            `toml:"model"`
	Fields map[string]string `toml:"fields"`
}

// Template converts the card config. A nil config yields nil.
func (c *CardConfig) Template() *anki.Template {
	if c == nil {
		return nil
	}
	fields := make(map[string]string, len(c.Fields))
	for k, v := range c.Fields {
		fields[k] = v
	}
	return &anki.Template{Deck: c.Deck, Model: c.Model, Fields: fields}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	for name, card := range map[string]*CardConfig{"audio-card": cfg.Anki.AudioCard, "word-card": cfg.Anki.WordCard} {
		if card == nil {
			continue
		}
		if err := card.Template().Validate(); err != nil {
			return FileConfig{}, fmt.Errorf("invalid [anki.%s]: %w", name, err)
		}
	}
	return cfg, nil
}
