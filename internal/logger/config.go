// Package logger provides filtered, printf-style logging on top of log/slog.
package logger

import (
	"log/slog"
	"strings"
)

// debugFilter prints filter decisions to stderr. Only useful when tuning filters.
var debugFilter = false

// Config holds all settings for the logger.
type Config struct {
	// LogLevel is the minimum level to log ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// LogFilePath is the output file. Empty or "-" means stderr.
	LogFilePath string `toml:"log_file" yaml:"log_file"`

	// EnabledTags only logs messages carrying one of these tags (if non-empty).
	EnabledTags []string `toml:"enabled_tags" yaml:"enabled_tags"`
	// DisabledTags drops messages carrying these tags. Overrides EnabledTags.
	DisabledTags []string `toml:"disabled_tags" yaml:"disabled_tags"`

	// EnabledPackages only logs messages from these packages (immediate directory
	// name, e.g. "history", "tracking").
	EnabledPackages []string `toml:"enabled_packages" yaml:"enabled_packages"`
	// DisabledPackages drops messages from these packages. Overrides EnabledPackages.
	DisabledPackages []string `toml:"disabled_packages" yaml:"disabled_packages"`

	// EnabledFiles only logs messages from these file base names.
	EnabledFiles []string `toml:"enabled_files" yaml:"enabled_files"`
	// DisabledFiles drops messages from these files. Overrides EnabledFiles.
	DisabledFiles []string `toml:"disabled_files" yaml:"disabled_files"`

	level    slog.Level
	tags     filterSet
	packages filterSet
	files    filterSet
}

// NewConfig creates a Config with default values.
func NewConfig() Config {
	return Config{
		LogLevel:    "info",
		LogFilePath: "",
	}
}

// filterSet is an allow/deny pair of lowercase names. Nil maps mean "no rule".
type filterSet struct {
	enabled  map[string]struct{}
	disabled map[string]struct{}
}

// allows reports whether name passes the set. Deny wins over allow.
func (f filterSet) allows(name string) bool {
	name = strings.ToLower(name)
	if _, found := f.disabled[name]; found {
		return false
	}
	if f.enabled == nil {
		return true
	}
	_, found := f.enabled[name]
	return found
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// process parses string levels/lists into efficient internal formats.
func (c *Config) process() {
	c.level = ParseLevel(c.LogLevel)
	c.tags = filterSet{enabled: sliceToSet(c.EnabledTags), disabled: sliceToSet(c.DisabledTags)}
	c.packages = filterSet{enabled: sliceToSet(c.EnabledPackages), disabled: sliceToSet(c.DisabledPackages)}
	c.files = filterSet{enabled: sliceToSet(c.EnabledFiles), disabled: sliceToSet(c.DisabledFiles)}
}

func sliceToSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item != "" {
			set[strings.ToLower(item)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil // nil map means "no rule"
	}
	return set
}
