package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const configFile = "pickme.toml"

// configDir overrides the user configuration directory for testing.
// When empty, os.UserConfigDir is used.
var configDir string

// FormatMode is a style profile as written in the config file.
type FormatMode struct {
	Foreground string   `toml:"foreground"`
	Background string   `toml:"background"`
	Markdown   []string `toml:"markdown"`
}

// Rule converts the profile into a StyleRule. Unrecognized keywords are
// ignored.
func (f FormatMode) Rule() StyleRule {
	r := StyleRule{
		Foreground: ParseEmphasis(f.Foreground),
		Background: ParseEmphasis(f.Background),
	}
	for _, m := range f.Markdown {
		switch strings.ToLower(m) {
		case "bold":
			r.Bold = true
		case "italic":
			r.Italic = true
		}
	}
	return r
}

// CaptureConfig selects the capture backend and its retry policy.
type CaptureConfig struct {
	Backend       string        `toml:"backend"`
	Retries       int           `toml:"retries"`
	RetryInterval time.Duration `toml:"retry_interval"`
}

// ClipboardConfig selects how the committed color is published.
type ClipboardConfig struct {
	Backend string        `toml:"backend"`
	Hold    time.Duration `toml:"hold"`
}

// NotifyConfig enables the desktop notification on commit.
type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// HueConfig enables flashing the committed color on Hue lights.
type HueConfig struct {
	Enabled  bool          `toml:"enabled"`
	Bridge   string        `toml:"bridge"`
	Area     string        `toml:"area"`
	Duration time.Duration `toml:"duration"`
}

// Config is the pickme configuration. It is loaded once at startup.
type Config struct {
	StopButtons        []int           `toml:"stop_buttons"`
	Normal             FormatMode      `toml:"normal"`
	Selected           FormatMode      `toml:"selected"`
	SelectedFormatting string          `toml:"selected_formatting"`
	Interval           time.Duration   `toml:"interval"`
	Capture            CaptureConfig   `toml:"capture"`
	Clipboard          ClipboardConfig `toml:"clipboard"`
	Notify             NotifyConfig    `toml:"notify"`
	Hue                HueConfig       `toml:"hue"`

	// path is the file the config was read from, empty for defaults.
	path string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		StopButtons:        []int{3, 4, 5},
		Normal:             FormatMode{Foreground: "bright", Background: "none", Markdown: []string{}},
		Selected:           FormatMode{Foreground: "bright", Background: "none", Markdown: []string{"bold"}},
		SelectedFormatting: "> {hex} <",
		Capture:            CaptureConfig{Backend: "auto"},
		Clipboard:          ClipboardConfig{Backend: "auto"},
		Hue:                HueConfig{Duration: 3 * time.Second},
	}
}

// StopSet returns the configured stop buttons.
func (c Config) StopSet() (StopSet, error) {
	return NewStopSet(c.StopButtons)
}

// RetryPolicy returns the capture retry policy.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: c.Capture.Retries, Interval: c.Capture.RetryInterval}
}

// Path returns the file the config was read from, or "" for defaults.
func (c Config) Path() string {
	return c.path
}

func userConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pickme"), nil
}

// findConfig returns the config file to load, or "" when none exists.
// ./pickme.toml wins over the user config directory.
func findConfig() string {
	if _, err := os.Stat(configFile); err == nil {
		return configFile
	}
	dir, err := userConfigDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(dir, configFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// LoadConfig reads path over the defaults. An empty path searches the
// usual locations; if nothing is found the defaults are returned.
func LoadConfig(path string) (Config, []string, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = findConfig()
		if path == "" {
			return cfg, nil, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg.path = path

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, unknown, nil
}

func (c *Config) normalize() error {
	if !strings.Contains(c.SelectedFormatting, hexPlaceholder) {
		c.SelectedFormatting = strings.Replace(c.SelectedFormatting, "{}", hexPlaceholder, 1)
	}
	if n := strings.Count(c.SelectedFormatting, hexPlaceholder); n != 1 {
		return fmt.Errorf("selected_formatting must contain %s exactly once, found %d", hexPlaceholder, n)
	}
	if _, err := c.StopSet(); err != nil {
		return err
	}
	if c.Capture.Retries < 0 {
		return errors.New("capture.retries must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"interval":               c.Interval,
		"capture.retry_interval": c.Capture.RetryInterval,
		"clipboard.hold":         c.Clipboard.Hold,
		"hue.duration":           c.Hue.Duration,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	switch c.Capture.Backend {
	case "", "auto", "x11", "grim":
	default:
		return fmt.Errorf("unknown capture.backend %q", c.Capture.Backend)
	}
	switch c.Clipboard.Backend {
	case "", "auto", "system", "osc52":
	default:
		return fmt.Errorf("unknown clipboard.backend %q", c.Clipboard.Backend)
	}
	return nil
}
