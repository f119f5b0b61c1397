// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != "127.0.0.1:34255" {
		t.Errorf("expected listen=127.0.0.1:34255, got %s", cfg.Listen)
	}
	if cfg.Upstream.Address != "solo.ckpool.org:3333" {
		t.Errorf("expected upstream=solo.ckpool.org:3333, got %s", cfg.Upstream.Address)
	}
	if cfg.Framing.ReadBufferBytes != 4096 {
		t.Errorf("expected read_buffer_bytes=4096, got %d", cfg.Framing.ReadBufferBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Upstream.Timeout() != 10*time.Second {
		t.Errorf("expected 10s dial timeout, got %v", cfg.Upstream.Timeout())
	}
	if cfg.Session.Drain() != 0 {
		t.Errorf("expected zero drain timeout, got %v", cfg.Session.Drain())
	}
}

func TestLoad_WithoutEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Fatalf("expected defaults, got listen=%s", cfg.Listen)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	path := writeConfig(t, "stratumtap.yaml", `
listen: 0.0.0.0:3333
upstream:
  address: pool.example.com:3334
  dial_timeout: 3s
session:
  drain_timeout: 250ms
log:
  level: debug
  format: json
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Listen != "0.0.0.0:3333" || cfg.Upstream.Address != "pool.example.com:3334" {
		t.Errorf("unexpected addresses: %s -> %s", cfg.Listen, cfg.Upstream.Address)
	}
	if cfg.Upstream.Timeout() != 3*time.Second || cfg.Session.Drain() != 250*time.Millisecond {
		t.Errorf("unexpected durations: %v %v", cfg.Upstream.Timeout(), cfg.Session.Drain())
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Framing.MaxFrameBytes != Default().Framing.MaxFrameBytes {
		t.Errorf("expected default max_frame_bytes, got %d", cfg.Framing.MaxFrameBytes)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	path := writeConfig(t, "stratumtap.jsonc", `{
  // Local test pool.
  "upstream": {"address": "127.0.0.1:3333",},
  "framing": {"max_frame_bytes": 1024, "read_buffer_bytes": 512},
  /* Capture everything. */
  "capture": {"path": "/tmp/capture.cbor.lz4", "compression": "lz4"},
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Upstream.Address != "127.0.0.1:3333" {
		t.Errorf("unexpected upstream %s", cfg.Upstream.Address)
	}
	if cfg.Framing.MaxFrameBytes != 1024 || cfg.Framing.ReadBufferBytes != 512 {
		t.Errorf("unexpected framing %+v", cfg.Framing)
	}
	if cfg.Capture.Compression != "lz4" || cfg.Capture.Path != "/tmp/capture.cbor.lz4" {
		t.Errorf("unexpected capture %+v", cfg.Capture)
	}
}

func TestLoadFile_EmptyFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Listen != DefaultListen {
		t.Fatalf("expected defaults for empty file, got %s", cfg.Listen)
	}
}

func TestLoadFile_UnknownField(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "typo.yaml", "upstream:\n  adress: pool:1\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "adress") {
		t.Fatalf("expected error to name the field, got %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFile_ExpandsCapturePath(t *testing.T) {
	t.Setenv("STRATUMTAP_TEST_STATE", "/srv/state")
	path := writeConfig(t, "capture.yaml", `
capture:
  path: ${STRATUMTAP_TEST_STATE}/a.cbor
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Capture.Path != "/srv/state/a.cbor" {
		t.Fatalf("expected expanded path, got %s", cfg.Capture.Path)
	}

	t.Setenv("STRATUMTAP_TEST_STATE", "")
	path = writeConfig(t, "fallback.yaml", `
capture:
  path: ${STRATUMTAP_TEST_STATE:-/var/lib/stratumtap}/a.cbor
`)
	cfg, err = LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Capture.Path != "/var/lib/stratumtap/a.cbor" {
		t.Fatalf("expected default-expanded path, got %s", cfg.Capture.Path)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Listen = "no-port"
	cfg.Upstream.Address = ""
	cfg.Upstream.DialTimeout = "soon"
	cfg.Session.DrainTimeout = "-1s"
	cfg.Framing.MaxFrameBytes = 0
	cfg.Framing.ReadBufferBytes = -1
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"
	cfg.Capture.Compression = "gzip"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, field := range []string{
		"listen", "upstream.address", "upstream.dial_timeout", "session.drain_timeout",
		"framing.max_frame_bytes", "framing.read_buffer_bytes", "log.level", "log.format",
		"capture.compression",
	} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected error to mention %s: %v", field, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, expected := range tests {
		level, err := ParseLevel(name)
		if err != nil || level != expected {
			t.Errorf("ParseLevel(%q) = %v, %v; expected %v", name, level, err, expected)
		}
	}
}
