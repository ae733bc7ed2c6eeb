package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsEmpty(t *testing.T) {
	assert.Equal(t, FrameSummary{}, NewStats(4).Summary())
}

func TestStatsSingleFrame(t *testing.T) {
	s := NewStats(4)
	s.Add(3 * time.Millisecond)

	sum := s.Summary()
	assert.Equal(t, uint64(1), sum.Frames)
	assert.InDelta(t, 3, sum.MeanMS, 1e-9)
	assert.Zero(t, sum.StdDevMS)
	assert.InDelta(t, 3, sum.P95MS, 1e-9)
}

func TestStatsWindowRolls(t *testing.T) {
	s := NewStats(4)
	for _, ms := range []int{100, 100, 1, 2, 3, 4} {
		s.Add(time.Duration(ms) * time.Millisecond)
	}

	sum := s.Summary()
	assert.Equal(t, uint64(6), sum.Frames)
	assert.Equal(t, 4, sum.Window)
	assert.InDelta(t, 2.5, sum.MeanMS, 1e-9)
	assert.InDelta(t, 4, sum.MaxMS, 1e-9)
	assert.InDelta(t, 4, sum.P95MS, 1e-9)
	assert.InDelta(t, 2, sum.P50MS, 1e-9)
	assert.Greater(t, sum.StdDevMS, 0.0)
}

func TestNewStatsDefaultWindow(t *testing.T) {
	assert.Len(t, NewStats(0).samples, DefaultWindow)
}
