package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactMessage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"login password=abc123 ok", "login password=******* ok"},
		{`{"bk_app_secret": "xyz"}`, `{"bk_app_secret": "*******"}`},
		{"url?access_token=t0k&x=1", "url?access_token=*******&x=1"},
		{"nothing to hide", "nothing to hide"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactMessage(tt.in))
	}
}

func TestRedactingCoreMasksFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(NewRedactingCore(core)).With(zap.String("bk_token", "abc"))

	log.Info("created admin with password=Secret!123",
		zap.String("tenant_id", "acme"),
		zap.String("Password", "Secret!123"),
		zap.Int("count", 3),
		zap.Any("server", map[string]any{"host": "dir.example.com", "password": "p@ss"}),
	)
	log.Debug("dropped")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "created admin with password=*******", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "acme", ctx["tenant_id"])
	assert.Equal(t, "******", ctx["Password"])
	assert.Equal(t, "******", ctx["bk_token"])
	assert.Equal(t, int64(3), ctx["count"])
	assert.Equal(t, map[string]any{"host": "dir.example.com", "password": "******"}, ctx["server"])
}

func TestNew(t *testing.T) {
	l, err := New("debug", "console", "test")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("bogus", "json", "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
