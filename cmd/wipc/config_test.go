package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/JairusSW/wipc/codec"
	"github.com/JairusSW/wipc/demux"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wipc.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxFrameSize != demux.DefaultMaxFrameSize {
		t.Fatal("max frame size:", cfg.MaxFrameSize)
	}
	if cfg.LogLevel != "info" || cfg.Codec != "json" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, `
max_frame_size = 65536
log_level = "debug"
codec = "cbor"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxFrameSize != 65536 {
		t.Fatal("max frame size:", cfg.MaxFrameSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatal("log level:", cfg.LogLevel)
	}
	if cfg.Codec != "cbor" {
		t.Fatal("codec:", cfg.Codec)
	}
	if _, ok := cfg.payloadCodec().(codec.CBORCodec); !ok {
		t.Fatal("payload codec not cbor")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	if _, err := loadConfig(writeConfig(t, "max_frame_size = 0\n")); err == nil {
		t.Fatal("expected error for zero max_frame_size")
	}
	if _, err := loadConfig(writeConfig(t, `codec = "xml"`)); err == nil {
		t.Fatal("expected error for unknown codec")
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
