// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/framing"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "STRATUMTAP_CONFIG"

// Default values.
const (
	DefaultListen          = "127.0.0.1:34255"
	DefaultUpstream        = "solo.ckpool.org:3333"
	DefaultDialTimeout     = "10s"
	DefaultReadBufferBytes = 4096
)

// Config is the complete relay configuration.
type Config struct {
	// Listen is the TCP address miners connect to.
	Listen string `yaml:"listen"`

	Upstream UpstreamConfig `yaml:"upstream"`
	Framing  FramingConfig  `yaml:"framing"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
	Capture  CaptureConfig  `yaml:"capture"`
}

// UpstreamConfig configures the pool connection opened per session.
type UpstreamConfig struct {
	// Address is the pool's host:port.
	Address string `yaml:"address"`

	// DialTimeout bounds connection establishment. "0" disables the
	// timeout.
	DialTimeout string `yaml:"dial_timeout"`
}

// FramingConfig bounds per-direction decode buffering.
type FramingConfig struct {
	// MaxFrameBytes is the largest frame accepted before a session is
	// torn down with frame-too-large.
	MaxFrameBytes int `yaml:"max_frame_bytes"`

	// ReadBufferBytes is the size of each pump's read buffer.
	ReadBufferBytes int `yaml:"read_buffer_bytes"`
}

// SessionConfig controls session teardown.
type SessionConfig struct {
	// DrainTimeout is how long a session waits for the second direction
	// to end on its own after the first has ended, before closing both
	// connections. Default "0": close immediately.
	DrainTimeout string `yaml:"drain_timeout"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text, or json.
	Format string `yaml:"format"`
}

// CaptureConfig enables the CBOR capture file.
type CaptureConfig struct {
	// Path of the capture file. Empty disables capture.
	Path string `yaml:"path"`

	// Compression is none, zstd, or lz4.
	Compression string `yaml:"compression"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen: DefaultListen,
		Upstream: UpstreamConfig{
			Address:     DefaultUpstream,
			DialTimeout: DefaultDialTimeout,
		},
		Framing: FramingConfig{
			MaxFrameBytes:   framing.DefaultMaxFrameBytes,
			ReadBufferBytes: DefaultReadBufferBytes,
		},
		Session: SessionConfig{
			DrainTimeout: "0s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Capture: CaptureConfig{
			Compression: string(events.CompressionNone),
		},
	}
}

// Load loads the file named by STRATUMTAP_CONFIG, or returns Default()
// when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads the file at path over the defaults and expands
// variables in the capture path. It does not validate; call Validate
// after applying command-line overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Capture.Path = expandVars(c.Capture.Path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if err := validateAddress(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen: %w", err))
	}
	if err := validateAddress(c.Upstream.Address); err != nil {
		errs = append(errs, fmt.Errorf("upstream.address: %w", err))
	}
	if _, err := parseDuration(c.Upstream.DialTimeout); err != nil {
		errs = append(errs, fmt.Errorf("upstream.dial_timeout: %w", err))
	}
	if _, err := parseDuration(c.Session.DrainTimeout); err != nil {
		errs = append(errs, fmt.Errorf("session.drain_timeout: %w", err))
	}
	if c.Framing.MaxFrameBytes <= 0 {
		errs = append(errs, fmt.Errorf("framing.max_frame_bytes must be positive, got %d", c.Framing.MaxFrameBytes))
	}
	if c.Framing.ReadBufferBytes <= 0 {
		errs = append(errs, fmt.Errorf("framing.read_buffer_bytes must be positive, got %d", c.Framing.ReadBufferBytes))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: expected auto, text, or json, got %q", c.Log.Format))
	}
	if _, err := events.ParseCompression(c.Capture.Compression); err != nil {
		errs = append(errs, fmt.Errorf("capture.compression: %w", err))
	}

	return errors.Join(errs...)
}

// Timeout returns the parsed dial timeout. Call after Validate.
func (u UpstreamConfig) Timeout() time.Duration {
	duration, _ := parseDuration(u.DialTimeout)
	return duration
}

// Drain returns the parsed drain timeout. Call after Validate.
func (s SessionConfig) Drain() time.Duration {
	duration, _ := parseDuration(s.DrainTimeout)
	return duration
}

// SlogLevel returns the parsed log level. Call after Validate.
func (l LogConfig) SlogLevel() slog.Level {
	level, _ := ParseLevel(l.Level)
	return level
}

// ParseLevel parses debug, info, warn, or error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", name)
	}
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" || value == "0" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", value)
	}
	return duration, nil
}

func validateAddress(address string) error {
	if address == "" {
		return errors.New("required")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return err
	}
	return nil
}
