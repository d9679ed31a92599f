package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynviz/internal/control"
)

const (
	DefaultFPS         = 60.0
	DefaultTraceLength = 120
	DefaultPausePoll   = time.Millisecond
	DefaultRecordEvery = 10
	DefaultDataDir     = "~/.dynviz"
	DefaultLogLevel    = "info"
	DefaultTheme       = "classic"

	fileName = "config.yaml"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Viewer    ViewerConfig    `yaml:"viewer"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Control   ControlConfig   `yaml:"control"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Record    RecordConfig    `yaml:"record"`
	DataDir   string          `yaml:"data_dir"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

type ViewerConfig struct {
	FPS         float64 `yaml:"fps"`
	RateLimited bool    `yaml:"rate_limited"`
	TraceLength int     `yaml:"trace_length"`
	Theme       string  `yaml:"theme"`
}

type SchedulerConfig struct {
	PausePoll time.Duration `yaml:"pause_poll"`
}

type ControlConfig struct {
	Controller string        `yaml:"controller"`
	Gains      control.Gains `yaml:"gains"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TelemetryConfig struct {
	Addr string `yaml:"addr"`
}

type RecordConfig struct {
	Enabled bool `yaml:"enabled"`
	Every   int  `yaml:"every"`
}

func DefaultConfig() *Config {
	return &Config{
		Viewer: ViewerConfig{
			FPS:         DefaultFPS,
			RateLimited: true,
			TraceLength: DefaultTraceLength,
			Theme:       DefaultTheme,
		},
		Scheduler: SchedulerConfig{PausePoll: DefaultPausePoll},
		Control: ControlConfig{
			Controller: "none",
			Gains:      control.DefaultGains(),
		},
		Log:     LogConfig{Level: DefaultLogLevel},
		Record:  RecordConfig{Every: DefaultRecordEvery},
		DataDir: DefaultDataDir,
	}
}

// Load reads the config. Search order: path -> ~/.dynviz/config.yaml ->
// ./configs/dynviz.yaml -> defaults. An explicit path must exist; the
// others are skipped when absent.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}
	for _, p := range searchPaths() {
		cfg, err := loadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return DefaultConfig(), nil
}

func searchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".dynviz", fileName))
	}
	return append(paths, filepath.Join("configs", "dynviz.yaml"))
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Viewer.FPS <= 0:
		return fmt.Errorf("%w: viewer.fps must be positive, got %g", ErrInvalid, c.Viewer.FPS)
	case c.Viewer.TraceLength <= 0:
		return fmt.Errorf("%w: viewer.trace_length must be positive, got %d", ErrInvalid, c.Viewer.TraceLength)
	case c.Scheduler.PausePoll <= 0:
		return fmt.Errorf("%w: scheduler.pause_poll must be positive, got %s", ErrInvalid, c.Scheduler.PausePoll)
	case c.Record.Every <= 0:
		return fmt.Errorf("%w: record.every must be positive, got %d", ErrInvalid, c.Record.Every)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir is empty", ErrInvalid)
	}
	if c.Control.Controller != "" && !slices.Contains(control.Names(), c.Control.Controller) {
		return fmt.Errorf("%w: unknown controller %q", ErrInvalid, c.Control.Controller)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// DataPath resolves name inside the data directory, expanding a leading ~.
func (c *Config) DataPath(name string) (string, error) {
	dir, err := ExpandHome(c.DataDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LogPath is the configured log file, defaulting to dynviz.log in the data
// directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return ExpandHome(c.Log.File)
	}
	return c.DataPath("dynviz.log")
}

func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
