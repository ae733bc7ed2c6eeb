package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsTotals(t *testing.T) {
	m := NewMetrics()

	m.ObserveFrame(2 * time.Millisecond)
	m.ObserveFrame(4 * time.Millisecond)
	m.ObserveRecreation("resized")
	m.ObserveRecreation("present_out_of_date")
	m.ObserveRecreation("resized")
	m.ObserveTimeout("fence")

	frames, err := m.Total("particles_frames_total")
	require.NoError(t, err)
	assert.Equal(t, 2.0, frames)

	recreations, err := m.Total("particles_swapchain_recreations_total")
	require.NoError(t, err)
	assert.Equal(t, 3.0, recreations)

	timeouts, err := m.Total("particles_wait_timeouts_total")
	require.NoError(t, err)
	assert.Equal(t, 1.0, timeouts)

	unknown, err := m.Total("nope")
	require.NoError(t, err)
	assert.Zero(t, unknown)
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()
	m.ObserveFrame(time.Millisecond)

	families, err := m.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "particles_frame_duration_seconds" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(1), h.GetSampleCount())
		assert.InDelta(t, 0.001, h.GetSampleSum(), 1e-9)
		return
	}
	t.Fatal("frame duration histogram not gathered")
}
