package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobal(t *testing.T) {
	prev, lvl := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(lvl)
	})
}

func TestInit(t *testing.T) {
	restoreGlobal(t)
	Init()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInitWithConfig(t *testing.T) {
	restoreGlobal(t)
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(&Config{Level: "debug", Format: FormatJSON, Out: &buf}, "compress"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Debug().Str("file", "a.txt").Msg("compressed")
	assert.Contains(t, buf.String(), `"module":"compress"`)
	assert.Contains(t, buf.String(), `"file":"a.txt"`)
}

func TestInitWithConfigErrors(t *testing.T) {
	restoreGlobal(t)
	assert.Error(t, InitWithConfig(&Config{Level: "loud"}, ""))
	assert.Error(t, InitWithConfig(&Config{Format: "xml"}, ""))
}

func TestNew(t *testing.T) {
	logger := New("testModule")
	var buf bytes.Buffer
	logger = logger.Output(&buf)
	logger.Warn().Msg("Testing logger")
	assert.Contains(t, buf.String(), `"module":"testModule"`)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestConsoleLogging(t *testing.T) {
	var buf bytes.Buffer
	styles := StylesDark()
	styles.Out = &buf
	styles.NoColor = true
	logger := zerolog.New(ConsoleWriterWithStyles(styles)).With().Timestamp().Logger()

	logger.Info().Str("file", "d/a.txt").Msg("compressed")
	logger.Error().Err(errors.New("sample error")).Msg("entry skipped")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "ERR")
	assert.Contains(t, out, "file=d/a.txt")
	assert.Contains(t, out, "sample error")
	assert.Contains(t, out, "entry skipped")
}

func TestStylesByName(t *testing.T) {
	assert.Equal(t, ColorBlue70, StylesByName("LIGHT").Levels[zerolog.InfoLevel])
	assert.Equal(t, ColorBlue60, StylesByName("anything").Levels[zerolog.InfoLevel])
}

func TestFileLogging(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "huffarc.log")
	var console bytes.Buffer
	require.NoError(t, InitWithConfig(&Config{Level: "info", File: path, MaxSizeMB: 1, Out: &console}, ""))

	log.Info().Msg("Test file logging")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Test file logging")
	assert.Contains(t, console.String(), "Test file logging")
}
