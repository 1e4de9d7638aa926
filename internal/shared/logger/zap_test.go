package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		log, err := NewZapLogger(nil)
		require.NoError(t, err)
		require.NotNil(t, log)
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("debug level", func(t *testing.T) {
		log, err := NewZapLogger(&Config{Level: "debug", Format: "text"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("error level", func(t *testing.T) {
		log, err := NewZapLogger(&Config{Level: "error"})
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
		assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
	})
}
