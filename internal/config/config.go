package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.botpanel/config.toml.
type Config struct {
	DefaultSession string       `toml:"default_session"`
	Bot            BotConfig    `toml:"bot"`
	Bridge         BridgeConfig `toml:"bridge"`
	Log            LogConfig    `toml:"log"`
}

// BotConfig tunes the bot runtime.
type BotConfig struct {
	// ReadyTimeout bounds how long a fresh connection waits for the server to
	// finish the offline sync before the bot declares itself ready anyway.
	ReadyTimeout Duration `toml:"ready_timeout"`
	// DirectoryRefresh is a cron spec for periodic contact/room refresh.
	// Empty disables the schedule.
	DirectoryRefresh string `toml:"directory_refresh"`
	// KnowledgeFallback answers from the knowledge base when no rule matches.
	KnowledgeFallback bool `toml:"knowledge_fallback"`
}

// BridgeConfig configures the shell-facing transports.
type BridgeConfig struct {
	// WSListen is the WebSocket listen address. Empty disables it.
	WSListen string `toml:"ws_listen"`
}

// LogConfig configures the daemon logger.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps time.Duration so it can be written as "15s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultSession: "main",
		Bot: BotConfig{
			ReadyTimeout:     Duration{15 * time.Second},
			DirectoryRefresh: "@every 30m",
		},
		Bridge: BridgeConfig{WSListen: "127.0.0.1:7788"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads config from the given path on top of the defaults.
// Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but treats a missing file as the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
