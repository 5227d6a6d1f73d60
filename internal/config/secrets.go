package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// AnkiKeyEnv names the environment variable holding the AnkiConnect key.
const AnkiKeyEnv = "TUIDICT_ANKI_KEY"

const keyringService = "tuidict-ankiconnect"

// LoadEnv loads dotenv files that exist. Variables already set win.
func LoadEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// AnkiKey returns the AnkiConnect API key from the environment or the OS
// keyring. A missing key is not an error; AnkiConnect may not require one.
func AnkiKey() (string, error) {
	if v := strings.TrimSpace(os.Getenv(AnkiKeyEnv)); v != "" {
		return v, nil
	}
	key, err := keyring.Get(keyringService, keyringUser())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return key, nil
}

// SaveAnkiKey stores the key in the OS keyring.
func SaveAnkiKey(key string) error {
	if err := keyring.Set(keyringService, keyringUser(), key); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}
	return nil
}

// DeleteAnkiKey removes the stored key. A missing key is not an error.
func DeleteAnkiKey() error {
	if err := keyring.Delete(keyringService, keyringUser()); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func keyringUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return appName
}
