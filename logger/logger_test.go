package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerIsNeverNil(t *testing.T) {
	// The package init installs a no-op logger; helpers must not panic
	// before Initialize is called.
	require.NotNil(t, Logger)

	Info("no-op info")
	Warnw("no-op warn", "key", "value")
	Errorf("no-op error %d", 42)
}

func TestInitializeConsole(t *testing.T) {
	err := Initialize(false)
	require.NoError(t, err)
	assert.False(t, JSONOutput)
	assert.NotNil(t, Logger)
}

func TestInitializeJSON(t *testing.T) {
	err := Initialize(true)
	require.NoError(t, err)
	assert.True(t, JSONOutput)
	assert.NotNil(t, Logger)
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"debug", zap.DebugLevel},
		{"DEBUG", zap.DebugLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"garbage", zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Setenv("TYPESYNC_LOG_LEVEL", tt.value)
		assert.Equal(t, tt.want, levelFromEnv(), "value %q", tt.value)
	}
}
