package logger

import (
	"bytes"
	"context"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(cfg Config) (*slog.Logger, *bytes.Buffer) {
	cfg.process()
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(newFilteringHandler(base, &cfg)), &buf
}

func TestFilteringHandler_Tags(t *testing.T) {
	log, buf := newTestLogger(Config{LogLevel: "debug", EnabledTags: []string{"History"}})

	log.Info("kept", tagKey, "history")
	log.Info("dropped", tagKey, "tracking")
	log.Info("untagged")

	out := buf.String()
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "dropped")
	assert.NotContains(t, out, "untagged")
}

func TestFilteringHandler_DisabledTagWins(t *testing.T) {
	log, buf := newTestLogger(Config{EnabledTags: []string{"a"}, DisabledTags: []string{"a"}})
	log.Info("msg", tagKey, "a")
	assert.Empty(t, buf.String())
}

func TestFilteringHandler_WithAttrsTag(t *testing.T) {
	log, buf := newTestLogger(Config{DisabledTags: []string{"noisy"}})
	log.With(tagKey, "noisy").Info("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFilteringHandler_Package(t *testing.T) {
	cfg := Config{DisabledPackages: []string{"logger"}}
	cfg.process()
	var buf bytes.Buffer
	h := newFilteringHandler(slog.NewTextHandler(&buf, nil), &cfg)

	// The caller frame is this test file, whose directory is "logger".
	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "from logger pkg", pcs[0])
	assert.NoError(t, h.Handle(context.Background(), r))
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("err"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
