package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/TimelordUK/sigview/internal/playback"
)

// Environment variables that override the config file
const (
	EnvBackendURL = "SIGVIEW_BACKEND_URL"
	EnvDomain     = "SIGVIEW_DOMAIN"
	EnvLogLevel   = "SIGVIEW_LOG_LEVEL"
)

// Config holds all application configuration
type Config struct {
	Backend     BackendConfig    `toml:"backend"`
	Playback    PlaybackConfig   `toml:"playback"`
	Display     DisplayConfig    `toml:"display"`
	Theme       ThemeConfig      `toml:"theme"`
	Keybindings KeybindingConfig `toml:"keybindings"`
	Log         LogConfig        `toml:"log"`
	Broadcast   BroadcastConfig  `toml:"broadcast"`
}

// BackendConfig locates the analysis service
type BackendConfig struct {
	BaseURL   string `toml:"base_url"`
	Domain    string `toml:"domain"`
	PageLimit int    `toml:"page_limit"`
	TimeoutMs int    `toml:"timeout_ms"`
	RetryMs   int    `toml:"retry_ms"`
}

// PlaybackConfig tunes the playback window
type PlaybackConfig struct {
	WindowMode     string    `toml:"window_mode"`
	WindowSize     float64   `toml:"window_size"`
	TickIntervalMs int       `toml:"tick_interval_ms"`
	BaseStep       float64   `toml:"base_step"`
	StepScale      float64   `toml:"step_scale"`
	Lookahead      float64   `toml:"lookahead"`
	Speeds         []float64 `toml:"speeds"`
}

// DisplayConfig holds display options
type DisplayConfig struct {
	ViewMode     string  `toml:"view_mode"`
	ShowAxis     bool    `toml:"show_axis"`
	ShowMeta     bool    `toml:"show_meta"`
	XORChunk     float64 `toml:"xor_chunk"`
	XORTolerance float64 `toml:"xor_tolerance"`
	XORBaseline  bool    `toml:"xor_baseline"`
}

// ThemeConfig defines colours
type ThemeConfig struct {
	Name          string   `toml:"name"`
	StatusBar     string   `toml:"status_bar"`
	StatusBarText string   `toml:"status_bar_text"`
	Axis          string   `toml:"axis"`
	Channels      []string `toml:"channels"`
	Syntax        string   `toml:"syntax"`
}

// KeybindingConfig allows customizing keybindings
type KeybindingConfig struct {
	Quit       []string `toml:"quit"`
	PlayPause  []string `toml:"play_pause"`
	Faster     []string `toml:"faster"`
	Slower     []string `toml:"slower"`
	ZoomIn     []string `toml:"zoom_in"`
	ZoomOut    []string `toml:"zoom_out"`
	PanLeft    []string `toml:"pan_left"`
	PanRight   []string `toml:"pan_right"`
	Start      []string `toml:"start"`
	End        []string `toml:"end"`
	Seek       []string `toml:"seek"`
	Load       []string `toml:"load"`
	ViewMode   []string `toml:"view_mode"`
	WindowMode []string `toml:"window_mode"`
	ShowAll    []string `toml:"show_all"`
	Meta       []string `toml:"meta"`
	Export     []string `toml:"export"`
	Help       []string `toml:"help"`
}

// LogConfig controls the rotating log file
type LogConfig struct {
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// BroadcastConfig enables the websocket mirror when Addr is set
type BroadcastConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	opts := playback.DefaultOptions()
	return &Config{
		Backend: BackendConfig{
			BaseURL:   "http://127.0.0.1:8000",
			Domain:    "EEG",
			PageLimit: opts.PageLimit,
			TimeoutMs: int(opts.FetchTimeout / time.Millisecond),
			RetryMs:   1000,
		},
		Playback: PlaybackConfig{
			WindowMode:     opts.WindowMode.String(),
			WindowSize:     opts.WindowSize,
			TickIntervalMs: int(opts.TickInterval / time.Millisecond),
			BaseStep:       opts.BaseStep,
			StepScale:      opts.StepScale,
			Lookahead:      opts.Lookahead,
			Speeds:         []float64{0.5, 1, 2, 4, 5},
		},
		Display: DisplayConfig{
			ViewMode:     "stacked",
			ShowAxis:     true,
			ShowMeta:     false,
			XORChunk:     1.0,
			XORTolerance: 5.0,
		},
		Theme: ThemeConfig{
			Name:          "subtle",
			StatusBar:     "236", // Darker gray background
			StatusBarText: "252", // Light gray text
			Axis:          "240", // Dark gray
			Channels:      []string{"#ff7f0e", "#1f77b4", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#17becf"},
			Syntax:        "monokai",
		},
		Keybindings: KeybindingConfig{
			Quit:       []string{"q", "ctrl+c"},
			PlayPause:  []string{" ", "p"},
			Faster:     []string{"+", "="},
			Slower:     []string{"-", "_"},
			ZoomIn:     []string{"i"},
			ZoomOut:    []string{"o"},
			PanLeft:    []string{"h", "left"},
			PanRight:   []string{"l", "right"},
			Start:      []string{"g", "home"},
			End:        []string{"G", "end"},
			Seek:       []string{":"},
			Load:       []string{"L"},
			ViewMode:   []string{"v"},
			WindowMode: []string{"w"},
			ShowAll:    []string{"a"},
			Meta:       []string{"m"},
			Export:     []string{"e"},
			Help:       []string{"?"},
		},
		Log: LogConfig{
			Path:       defaultLogPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load loads config from the user config file, falling back to defaults
func Load() (*Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFrom loads config from path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves config to the user config file
func Save(cfg *Config) error {
	return SaveTo(cfg, getConfigPath())
}

// SaveTo writes cfg to path, creating its directory
func SaveTo(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with SIGVIEW_* environment variables
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		c.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDomain)); v != "" {
		c.Backend.Domain = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects values the viewer cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.PageLimit <= 0 {
		errs = append(errs, fmt.Errorf("backend.page_limit must be positive"))
	}
	if c.Backend.TimeoutMs < 0 || c.Backend.RetryMs < 0 {
		errs = append(errs, fmt.Errorf("backend timeouts must not be negative"))
	}
	if _, err := playback.ParseWindowMode(c.Playback.WindowMode); err != nil {
		errs = append(errs, fmt.Errorf("playback.window_mode: %w", err))
	}
	if c.Playback.TickIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("playback.tick_interval_ms must be positive"))
	}
	for _, s := range c.Playback.Speeds {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("playback.speeds: %w", playback.ErrInvalidSpeed))
			break
		}
	}
	switch strings.ToLower(c.Display.ViewMode) {
	case "", "stacked", "single", "overlay", "volts", "multiple", "polar", "xor", "recurrence", "reoccurrence":
	default:
		errs = append(errs, fmt.Errorf("display.view_mode: unknown mode %q", c.Display.ViewMode))
	}
	if !(c.Display.XORChunk > 0) || c.Display.XORTolerance < 0 {
		errs = append(errs, fmt.Errorf("display: xor_chunk must be positive and xor_tolerance not negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.PlaybackOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	return errors.Join(errs...)
}

// PlaybackOptions converts the config into controller options
func (c *Config) PlaybackOptions() playback.Options {
	opts := playback.DefaultOptions()
	mode, _ := playback.ParseWindowMode(c.Playback.WindowMode)
	opts.WindowMode = mode
	opts.PageLimit = c.Backend.PageLimit
	opts.FetchTimeout = time.Duration(c.Backend.TimeoutMs) * time.Millisecond
	opts.WindowSize = c.Playback.WindowSize
	opts.TickInterval = time.Duration(c.Playback.TickIntervalMs) * time.Millisecond
	opts.BaseStep = c.Playback.BaseStep
	opts.StepScale = c.Playback.StepScale
	opts.Lookahead = c.Playback.Lookahead
	return opts
}

// RetryInterval is the delay before a failed page is requested again
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Backend.RetryMs) * time.Millisecond
}

// getConfigPath returns the config file path
func getConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sigview", "config.toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sigview", "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "sigview", "sigview.log")
}
