package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/worklog/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, logger.ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("bogus"))
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Level: "info", Format: "json", Component: "journal", Writer: &buf})

	l.Debug().Msg("hidden")
	l.Info().Str("date", "2025-06-02").Msg("punch added")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "journal", line["component"])
	assert.Equal(t, "punch added", line["message"])
	assert.Equal(t, "2025-06-02", line["date"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Options{Format: "json", Writer: &buf})
	ctx := logger.WithContext(context.Background(), logger.Named(l, "api"))

	logger.FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"api"`)

	// A bare context yields a usable, silent logger
	logger.FromContext(context.Background()).Info().Msg("dropped")
}
