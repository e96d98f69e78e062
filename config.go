package texstream

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/texstream/gpucore"
)

// ErrInvalidConfig is returned when a configuration file has bad values.
var ErrInvalidConfig = errors.New("texstream: invalid config")

// Config is the file form of the System options.
//
// Example config.toml:
//
//	asset_root = "assets"
//	workers    = 4
//	wrap       = "clamp"
//	log_level  = "debug"
//	watch      = true
type Config struct {
	// AssetRoot is the directory assets are read from.
	AssetRoot string `toml:"asset_root"`
	// Workers is the number of decode workers; 0 uses GOMAXPROCS.
	Workers int `toml:"workers"`
	// Wrap is the default wrap mode: "clamp", "repeat" or "mirror".
	Wrap string `toml:"wrap"`
	// LogLevel enables logging at the given level: "debug", "info", "warn"
	// or "error". Empty keeps logging silent.
	LogLevel string `toml:"log_level"`
	// Watch asks the host to reload assets when files under AssetRoot change.
	Watch bool `toml:"watch"`
}

// LoadConfig reads and parses a TOML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texstream: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses TOML config data. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers = %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := gpucore.ParseWrap(c.Wrap); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty LogLevel yields slog.LevelInfo.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return 0, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return l, nil
}

// Options converts the config to System options.
// The config must have passed Validate.
func (c *Config) Options() []Option {
	opts := []Option{WithWorkers(c.Workers)}
	if c.AssetRoot != "" {
		opts = append(opts, WithAssetRoot(c.AssetRoot))
	}
	if c.Wrap != "" {
		w, _ := gpucore.ParseWrap(c.Wrap)
		opts = append(opts, WithDefaultWrap(w))
	}
	if c.LogLevel != "" {
		level, _ := c.Level()
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))))
	}
	return opts
}
