package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), nil, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, cfg.Editor.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.Editor.DebounceDuration())
	assert.Equal(t, 40, cfg.Editor.SegmentWindow)
	assert.Equal(t, 10, cfg.Component.WidthStep)
	assert.Equal(t, 100, cfg.Component.WidthMax)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
[logger]
log_level = "debug"
enabled_tags = ["history"]

[editor]
history_limit = 20
debounce = "250ms"
segment_window = 10

[latex]
packages = { "\\lstinline" = "listings" }

[store]
path = "/tmp/x.db"

[component]
width_step = 5
`)
	cfg, err := Load(path, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.LogLevel)
	assert.Equal(t, []string{"history"}, cfg.Logger.EnabledTags)
	assert.Equal(t, 20, cfg.Editor.HistoryLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.Editor.DebounceDuration())
	assert.Equal(t, 10, cfg.Editor.SegmentWindow)
	assert.Equal(t, "listings", cfg.Latex.Packages[`\lstinline`])
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, 5, cfg.Component.WidthStep)
	assert.Equal(t, 10, cfg.Component.WidthMin, "unset keys keep defaults")
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
editor:
  history_limit: 7
  system_clipboard: true
component:
  width_max: 80
`)
	cfg, err := Load(path, nil, false)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Editor.HistoryLimit)
	assert.True(t, cfg.Editor.SystemClipboard)
	assert.Equal(t, 80, cfg.Component.WidthMax)
	assert.Equal(t, 80, cfg.Component.Options().WidthMax)
}

func TestInvalidValuesResetToDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", `
[editor]
history_limit = -3
debounce = "soon"
[component]
width_min = 60
width_max = 40
`)
	cfg, err := Load(path, nil, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, cfg.Editor.HistoryLimit)
	assert.Equal(t, DefaultDebounce.String(), cfg.Editor.Debounce)
	assert.Equal(t, 60, cfg.Component.WidthMin)
	assert.Equal(t, DefaultWidthMax, cfg.Component.WidthMax)
}

func TestParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[editor\n")
	cfg, err := Load(path, nil, false)
	assert.Error(t, err)
	require.NotNil(t, cfg, "defaults are still returned")
	assert.Equal(t, DefaultHistoryLimit, cfg.Editor.HistoryLimit)
}

func TestFlagOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[editor]\nhistory_limit = 20\n")

	var flags Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	rest, err := flags.ParseFlags(fs, []string{
		"-history-limit", "5", "-window", "3", "-db", "/data/s.db",
		"-log-tags", "history, tracking,", "-system-clipboard", "doc.md",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.md"}, rest)

	cfg, err := Load(path, &flags, false)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Editor.HistoryLimit)
	assert.Equal(t, 3, cfg.Editor.SegmentWindow)
	assert.Equal(t, "/data/s.db", cfg.Store.Path)
	assert.Equal(t, []string{"history", "tracking"}, cfg.Logger.EnabledTags)
	assert.True(t, cfg.Editor.SystemClipboard)
}

func TestSplitCommaList(t *testing.T) {
	assert.Nil(t, splitCommaList(""))
	assert.Nil(t, splitCommaList(" , "))
	assert.Equal(t, []string{"a", "b"}, splitCommaList("a, ,b"))
}

func TestLoaderReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", "[editor]\nhistory_limit = 10\n")

	l := NewLoader(path, nil)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Editor.HistoryLimit)

	changed := make(chan *Config, 1)
	l.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, l.Watch())
	t.Cleanup(func() { l.Close() })

	require.NoError(t, os.WriteFile(path, []byte("[editor]\nhistory_limit = 30\n"), 0644))

	select {
	case c := <-changed:
		assert.Equal(t, 30, c.Editor.HistoryLimit)
		assert.Equal(t, 30, l.Config().Editor.HistoryLimit)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
