// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bethropolis/scribe/internal/component"
	"github.com/bethropolis/scribe/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger    logger.Config   `toml:"logger" yaml:"logger"`
	Editor    EditorConfig    `toml:"editor" yaml:"editor"`
	Latex     LatexConfig     `toml:"latex" yaml:"latex"`
	Store     StoreConfig     `toml:"store" yaml:"store"`
	Component ComponentConfig `toml:"component" yaml:"component"`
}

// EditorConfig holds editing-session settings.
type EditorConfig struct {
	HistoryLimit    int    `toml:"history_limit" yaml:"history_limit"`
	Debounce        string `toml:"debounce" yaml:"debounce"` // Go duration, e.g. "500ms"
	SegmentWindow   int    `toml:"segment_window" yaml:"segment_window"`
	SystemClipboard bool   `toml:"system_clipboard" yaml:"system_clipboard"`
}

// DebounceDuration parses Debounce, falling back to the default.
func (e EditorConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(e.Debounce)
	if err != nil || d <= 0 {
		return DefaultDebounce
	}
	return d
}

// LatexConfig maps LaTeX constructs to the package they need, on top of the
// built-in table.
type LatexConfig struct {
	Packages map[string]string `toml:"packages" yaml:"packages"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// ComponentConfig bounds deterministic component edits.
type ComponentConfig struct {
	WidthStep int `toml:"width_step" yaml:"width_step"`
	WidthMin  int `toml:"width_min" yaml:"width_min"`
	WidthMax  int `toml:"width_max" yaml:"width_max"`
}

// Options converts the section into component engine options.
func (c ComponentConfig) Options() component.Options {
	return component.Options{WidthStep: c.WidthStep, WidthMin: c.WidthMin, WidthMax: c.WidthMax}
}

var (
	loadedConfig *Config
	loadOnce     sync.Once
	loadErr      error
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			HistoryLimit:    DefaultHistoryLimit,
			Debounce:        DefaultDebounce.String(),
			SegmentWindow:   DefaultSegmentWindow,
			SystemClipboard: SystemClipboard,
		},
		Store: StoreConfig{Path: DefaultDBPath()},
		Component: ComponentConfig{
			WidthStep: DefaultWidthStep,
			WidthMin:  DefaultWidthMin,
			WidthMax:  DefaultWidthMax,
		},
	}
}

// DefaultConfigPath is <UserConfigDir>/scribe/config.toml, or "" when the
// config directory is unknown.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// DefaultDBPath is <UserConfigDir>/scribe/scribe.db, or a relative path when
// the config directory is unknown.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultDBFileName
	}
	return filepath.Join(dir, AppName, DefaultDBFileName)
}

// loadFromFile decodes filePath over cfg. The format follows the extension:
// .yaml/.yml is YAML, anything else TOML. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config, verbose bool) error {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		if verbose {
			logger.Debugf("Config file not found: %s", filePath)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading config file '%s': %w", filePath, err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
		}
	default:
		metadata, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
		}
		if len(metadata.Undecoded()) > 0 && verbose {
			logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, metadata.Undecoded())
		}
	}
	if verbose {
		logger.Infof("Successfully loaded configuration from: %s", filePath)
	}
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.HistoryLimit <= 0 {
		c.Editor.HistoryLimit = defaults.Editor.HistoryLimit
	}
	if d, err := time.ParseDuration(c.Editor.Debounce); err != nil || d <= 0 {
		c.Editor.Debounce = defaults.Editor.Debounce
	}
	if c.Editor.SegmentWindow <= 0 {
		c.Editor.SegmentWindow = defaults.Editor.SegmentWindow
	}

	if c.Component.WidthStep <= 0 {
		c.Component.WidthStep = defaults.Component.WidthStep
	}
	if c.Component.WidthMin <= 0 || c.Component.WidthMin > 100 {
		c.Component.WidthMin = defaults.Component.WidthMin
	}
	if c.Component.WidthMax <= 0 || c.Component.WidthMax > 100 || c.Component.WidthMax < c.Component.WidthMin {
		c.Component.WidthMax = defaults.Component.WidthMax
	}

	if c.Store.Path == "" {
		c.Store.Path = defaults.Store.Path
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
}

// Load builds a configuration: defaults, then the file, then flag overrides,
// then validation. An empty path uses DefaultConfigPath.
func Load(configFilePath string, flags *Flags, verbose bool) (*Config, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		effectivePath = DefaultConfigPath()
	}

	var err error
	if effectivePath != "" {
		err = loadFromFile(effectivePath, cfg, verbose)
	}

	if flags != nil {
		flags.ApplyOverrides(cfg, verbose)
	}

	cfg.validate()
	return cfg, err
}

// LoadConfig loads the configuration once for the process, typically from main.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	loadOnce.Do(func() {
		// the logger is not initialized yet
		loadedConfig, loadErr = Load(configFilePath, flags, false)
	})
	return loadedConfig, loadErr
}

// Get returns the loaded application configuration. Panics if LoadConfig wasn't called.
func Get() *Config {
	if loadedConfig == nil {
		panic("config.Get() called before config.LoadConfig()")
	}
	return loadedConfig
}
