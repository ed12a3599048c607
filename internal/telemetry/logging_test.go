package telemetry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_SetLevelFromString_Recognizes_All_Levels(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
	}

	for input, want := range tests {
		SetLevelFromString(input)
		assert.Equal(t, want, logLevel.Level())
	}
}

func Test_SetLevelFromString_Ignores_Unknown_Value(t *testing.T) {
	t.Parallel()

	SetLevelFromString("info")
	SetLevelFromString("not-a-level")

	assert.Equal(t, slog.LevelInfo, logLevel.Level())
}

func Test_With_Annotates_Logger_With_Cache_Name(t *testing.T) {
	t.Parallel()

	l := With("sessions")
	assert.NotNil(t, l)

	assert.Same(t, Logger(), With(""))
}

func Test_Configure_Switches_Handler_Format(t *testing.T) {
	t.Parallel()

	Configure("json", "debug")
	assert.Equal(t, slog.LevelDebug, logLevel.Level())

	Configure("text", "info")
	assert.Equal(t, slog.LevelInfo, logLevel.Level())
}
