package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tunframe/internal/logging"
	"github.com/danmuck/tunframe/internal/protocol/frame"
)

const (
	ModePacket = "packet"
	ModeChunk  = "chunk"
)

// Config is the resolved framing setup for one tunnel endpoint.
type Config struct {
	Name          string
	Mode          string
	ReadSize      int
	WriteSize     int
	BatchSize     int
	FirstSequence uint32
	Limits        frame.Limits
	LogLevel      string
	AdminAddr     string
	CorsOrigins   []string
}

type fileConfig struct {
	Name             string   `toml:"name"`
	Mode             string   `toml:"mode"`
	ReadSize         int      `toml:"read_size"`
	WriteSize        int      `toml:"write_size"`
	BatchSize        int      `toml:"batch_size"`
	FirstSequence    int64    `toml:"first_sequence"`
	MaxReadyFrames   int      `toml:"max_ready_frames"`
	MaxBufferedBytes int      `toml:"max_buffered_bytes"`
	LogLevel         string   `toml:"log_level"`
	AdminAddr        string   `toml:"admin_addr"`
	CorsOrigins      []string `toml:"cors_origins"`
}

func DefaultConfig() Config {
	return Config{
		Name:          "tunframe",
		Mode:          ModePacket,
		ReadSize:      32 * 1024,
		WriteSize:     32 * 1024,
		BatchSize:     64,
		FirstSequence: 2,
		Limits:        frame.DefaultLimits(),
		LogLevel:      "info",
	}
}

func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := resolve(raw, meta)
	if err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text the same way Load decodes a file.
func Parse(text string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	return resolve(raw, meta)
}

// resolve overlays a decoded file on the defaults and validates the result.
func resolve(raw fileConfig, meta toml.MetaData) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	cfg, err := merge(DefaultConfig(), raw, meta)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// packetOnlyKeys have no meaning for chunk streams.
var packetOnlyKeys = []string{"batch_size", "first_sequence"}

func merge(cfg Config, raw fileConfig, meta toml.MetaData) (Config, error) {
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("mode") {
		cfg.Mode = strings.ToLower(strings.TrimSpace(raw.Mode))
	}
	if cfg.Mode == ModeChunk {
		for _, key := range packetOnlyKeys {
			if meta.IsDefined(key) {
				return Config{}, fmt.Errorf("%s is not used in chunk mode", key)
			}
		}
	}
	if meta.IsDefined("read_size") {
		cfg.ReadSize = raw.ReadSize
	}
	if meta.IsDefined("write_size") {
		cfg.WriteSize = raw.WriteSize
	}
	if meta.IsDefined("batch_size") {
		cfg.BatchSize = raw.BatchSize
	}
	if meta.IsDefined("first_sequence") {
		if raw.FirstSequence < 0 || raw.FirstSequence > math.MaxUint32 {
			return Config{}, fmt.Errorf("first_sequence out of range [0, %d], got %d", uint32(math.MaxUint32), raw.FirstSequence)
		}
		cfg.FirstSequence = uint32(raw.FirstSequence)
	}
	if meta.IsDefined("max_ready_frames") {
		cfg.Limits.MaxReadyFrames = raw.MaxReadyFrames
	}
	if meta.IsDefined("max_buffered_bytes") {
		cfg.Limits.MaxBufferedBytes = raw.MaxBufferedBytes
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config missing name")
	}
	switch cfg.Mode {
	case ModePacket, ModeChunk:
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.ReadSize <= 0 {
		return fmt.Errorf("read_size must be positive, got %d", cfg.ReadSize)
	}
	if cfg.WriteSize <= 0 {
		return fmt.Errorf("write_size must be positive, got %d", cfg.WriteSize)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.Limits.MaxReadyFrames < 0 || cfg.Limits.MaxBufferedBytes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
		}
	}
	return nil
}
