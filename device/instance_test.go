package device

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReportLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inst := &Instance{log: zap.New(core)}

	var callback vk.DebugReportCallbackFunc = inst.report

	tests := []struct {
		flags vk.DebugReportFlags
		level zapcore.Level
	}{
		{vk.DebugReportFlags(vk.DebugReportErrorBit), zapcore.ErrorLevel},
		{vk.DebugReportFlags(vk.DebugReportWarningBit), zapcore.WarnLevel},
		{vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit), zapcore.WarnLevel},
	}

	for _, tt := range tests {
		ret := callback(tt.flags, 0, 42, 1<<40, 7, "Validation", "bad thing", nil)
		assert.Equal(t, vk.Bool32(vk.False), ret, "the call must not be aborted")
	}

	entries := logs.All()
	require.Len(t, entries, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.level, entries[i].Level)
		assert.Equal(t, "bad thing", entries[i].Message)
		assert.Equal(t, "Validation", entries[i].ContextMap()["layer"])
		assert.Equal(t, uint64(42), entries[i].ContextMap()["object"])
	}
	assert.Equal(t, true, entries[2].ContextMap()["performance"])
}
