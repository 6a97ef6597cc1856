// Package config loads timetable settings from defaults, TOML files and the
// environment. Command-line flags are applied last by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/roach88/timetable/internal/logging"
)

// Defaults.
const (
	DefaultDB        = "timetable.db"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// FileName is the config file looked up in the user and project dirs.
	FileName = "timetable.toml"
)

// Environment variables.
const (
	EnvDB        = "TIMETABLE_DB"
	EnvLogLevel  = "TIMETABLE_LOG_LEVEL"
	EnvLogFormat = "TIMETABLE_LOG_FORMAT"
	EnvQuota     = "TIMETABLE_QUOTA_BYTES"
)

// Config holds the resolved settings.
type Config struct {
	DB         string `toml:"db"`
	LogLevel   string `toml:"log_level"`
	LogFormat  string `toml:"log_format"`
	QuotaBytes int    `toml:"quota_bytes"`

	// Files lists the config files that were read, in order.
	Files []string `toml:"-"`
}

// Loader resolves a Config. The zero value reads the real environment.
type Loader struct {
	// File is an explicit config file. When set, user and project files are
	// skipped and the file must exist.
	File string

	Getenv  func(string) string
	UserDir func() (string, error)
	WorkDir func() (string, error)
}

// Load resolves configuration with the default Loader.
func Load(file string) (*Config, error) {
	return Loader{File: file}.Load()
}

// Load resolves configuration in priority order:
// defaults, user file, project file, environment.
func (l Loader) Load() (*Config, error) {
	l.fill()
	cfg := Defaults()

	if l.File != "" {
		if err := decodeFile(cfg, l.File); err != nil {
			return nil, err
		}
	} else {
		if dir, err := l.UserDir(); err == nil && dir != "" {
			if err := decodeOptional(cfg, filepath.Join(dir, "timetable", FileName)); err != nil {
				return nil, err
			}
		}
		if wd, err := l.WorkDir(); err == nil && wd != "" {
			if err := decodeOptional(cfg, filepath.Join(wd, FileName)); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(l.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) fill() {
	if l.Getenv == nil {
		l.Getenv = os.Getenv
	}
	if l.UserDir == nil {
		l.UserDir = os.UserConfigDir
	}
	if l.WorkDir == nil {
		l.WorkDir = os.Getwd
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DB:        DefaultDB,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("config: db must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseFormatter(c.LogFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("config: quota_bytes must not be negative, got %d", c.QuotaBytes)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvDB); v != "" {
		c.DB = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := getenv(EnvQuota); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvQuota, err)
		}
		c.QuotaBytes = n
	}
	return nil
}

func decodeOptional(cfg *Config, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return decodeFile(cfg, path)
}

// decodeFile overlays the keys present in path onto cfg. Unknown keys are
// rejected so typos do not go unnoticed.
func decodeFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Files = append(cfg.Files, path)
	return nil
}
