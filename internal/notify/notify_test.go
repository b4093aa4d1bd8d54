package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCenterKeepsRecentAndExpires(t *testing.T) {
	now := time.Date(2025, 12, 11, 10, 0, 0, 0, time.UTC)
	c := NewCenter(2, time.Second)
	c.now = func() time.Time { return now }

	c.Info("one")
	c.Success("two")
	c.Error("three")
	c.Warning("")

	active := c.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "two", active[0].Message)
	assert.Equal(t, LevelError, active[1].Level)

	select {
	case <-c.Changed():
	default:
		t.Fatal("expected a change signal")
	}

	now = now.Add(2 * time.Second)
	assert.Empty(t, c.Active())
}

func TestCenterDismiss(t *testing.T) {
	c := NewCenter(0, 0)
	c.Info("a")
	c.Info("b")
	first := c.Active()[0]
	c.Dismiss(first.ID)

	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Message)
}

func TestLogAndMulti(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCenter(5, time.Minute)
	sink := Multi{c, NewLog(zap.New(core)), Discard{}}

	sink.Error("Checkout failed")
	sink.Success("Order placed")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Checkout failed", entries[0].Message)
	assert.Equal(t, "notify", entries[1].LoggerName)
	assert.Len(t, c.Active(), 2)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestWriterPrintsOneLinePerNotification(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf)

	w.Success("Cart cleared")
	w.Warning("Only 2 of Soap left in stock")
	w.Error("")
	w.Info("You have been logged out")

	assert.Equal(t, "✓ Cart cleared\n! Only 2 of Soap left in stock\n• You have been logged out\n", buf.String())
}
