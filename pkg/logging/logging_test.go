package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.DebugLevel, &buf)

	logger.Debug().Msg("test debug message")
	assert.Contains(t, buf.String(), "test debug message")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.InfoLevel, &buf)

	// Debug should not appear (below info level)
	logger.Debug().Msg("debug message")
	assert.NotContains(t, buf.String(), "debug message")

	logger.Info().Msg("info message")
	assert.Contains(t, buf.String(), "info message")

	logger.Warn().Msg("warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestConfigureGlobalSetsLevel(t *testing.T) {
	require.NoError(t, ConfigureGlobal(Options{Level: "debug"}))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.NoError(t, ConfigureGlobal(Options{Level: "warn"}))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestConfigureGlobalInvalidLevelDefaultsToError(t *testing.T) {
	require.NoError(t, ConfigureGlobal(Options{Level: "chatty"}))
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestConfigureGlobalLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portscout.log")
	require.NoError(t, ConfigureGlobal(Options{Level: "info", Format: "json", File: path}))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("INFO"))
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("debug"))
}
