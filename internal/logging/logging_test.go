package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-filterpack/internal/config"
)

func TestSetup_Formats(t *testing.T) {
	var text bytes.Buffer
	logger := SetupWithWriter(&config.Config{LogLevel: "debug", LogFormat: "text"}, &text)
	require.NotNil(t, logger)
	logger.Info("hello", slog.String("widget", "region"))
	assert.Contains(t, text.String(), "widget=region")

	var js bytes.Buffer
	logger = SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "json"}, &js)
	logger.Info("test-msg")
	assert.Contains(t, js.String(), `"msg":"test-msg"`)
	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestSetup_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "text", Quiet: true}, &buf)
	logger.Warn("should-not-appear")
	logger.Error("should-appear")
	assert.NotContains(t, buf.String(), "should-not-appear")
	assert.Contains(t, buf.String(), "should-appear")

	buf.Reset()
	logger = SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "text"}, &buf)
	logger.Debug("debug-hidden")
	assert.NotContains(t, buf.String(), "debug-hidden")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestSetup_UnknownFormatWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter(&config.Config{LogLevel: "warn", LogFormat: "xml"}, &buf)
	logger.Info("below-threshold")
	logger.Warn("kept", slog.String("list", "regions"))
	assert.NotContains(t, buf.String(), "below-threshold")
	assert.Contains(t, buf.String(), "list=regions")
	assert.NotContains(t, buf.String(), `"msg"`)
}
