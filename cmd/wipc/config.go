package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/JairusSW/wipc/codec"
	"github.com/JairusSW/wipc/demux"
)

type config struct {
	MaxFrameSize int
	LogLevel     string
	Codec        string
}

func defaultConfig() config {
	return config{
		MaxFrameSize: demux.DefaultMaxFrameSize,
		LogLevel:     "info",
		Codec:        "json",
	}
}

type fileConfig struct {
	MaxFrameSize int64  `toml:"max_frame_size"`
	LogLevel     string `toml:"log_level"`
	Codec        string `toml:"codec"`
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("max_frame_size") {
		if raw.MaxFrameSize <= 0 {
			return config{}, fmt.Errorf("max_frame_size must be positive, got %d", raw.MaxFrameSize)
		}
		cfg.MaxFrameSize = int(raw.MaxFrameSize)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("codec") {
		switch c := strings.TrimSpace(raw.Codec); c {
		case "json", "cbor":
			cfg.Codec = c
		default:
			return config{}, fmt.Errorf("unknown codec %q (want json or cbor)", c)
		}
	}

	return cfg, nil
}

func (c config) payloadCodec() codec.Codec {
	if c.Codec == "cbor" {
		return codec.CBORCodec{}
	}
	return codec.JSONCodec{}
}
