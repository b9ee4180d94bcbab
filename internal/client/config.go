package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Config is the piece of client state that persists between runs: where the
// server lives and the anonymous client id used for like/share dedup before
// sign-in. The id is minted once and kept; losing the file means reactions
// can be repeated, which the server accepts as best-effort.
type Config struct {
	BaseURL  string `json:"base_url"`
	ClientID string `json:"client_id"`
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: resolving config dir: %w", err)
	}
	return filepath.Join(dir, "codewaltz", "config.json"), nil
}

// LoadConfig reads the config file, filling defaults and minting a client
// id on first run. The file is written back whenever anything was filled.
func LoadConfig(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("client: parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// first run
	default:
		return Config{}, fmt.Errorf("client: reading config %s: %w", path, err)
	}

	changed := false
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
		changed = true
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
		changed = true
	}

	if changed {
		if err := SaveConfig(path, cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// SaveConfig writes the config file, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("client: creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encoding config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("client: writing config %s: %w", path, err)
	}
	return nil
}
