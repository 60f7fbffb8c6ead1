package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapEmitsSortedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core))

	log.Info("session connected", map[string]any{
		"topic":    "t-1",
		"accounts": 2,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "session connected", entries[0].Message)
	require.Len(t, entries[0].Context, 2)
	assert.Equal(t, "accounts", entries[0].Context[0].Key)
	assert.Equal(t, "topic", entries[0].Context[1].Key)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
