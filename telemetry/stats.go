package telemetry

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of frames Stats keeps when none is given.
const DefaultWindow = 1024

// Stats keeps the durations of the most recent frames in a ring buffer.
type Stats struct {
	samples    []float64 // milliseconds
	writeIndex int
	count      int
	total      uint64
}

// NewStats returns a collector over the last windowSize frames.
func NewStats(windowSize int) *Stats {
	if windowSize < 1 {
		windowSize = DefaultWindow
	}
	return &Stats{samples: make([]float64, windowSize)}
}

// Add records one frame.
func (s *Stats) Add(d time.Duration) {
	s.samples[s.writeIndex] = float64(d) / float64(time.Millisecond)
	s.writeIndex = (s.writeIndex + 1) % len(s.samples)
	if s.count < len(s.samples) {
		s.count++
	}
	s.total++
}

// FrameSummary describes the frame times in the window, in milliseconds.
type FrameSummary struct {
	Frames   uint64
	Window   int
	MeanMS   float64
	StdDevMS float64
	P50MS    float64
	P95MS    float64
	MaxMS    float64
}

// Summary computes the statistics of the current window. Frames counts every
// frame ever added.
func (s *Stats) Summary() FrameSummary {
	sum := FrameSummary{Frames: s.total, Window: s.count}
	if s.count == 0 {
		return sum
	}

	sorted := slices.Clone(s.samples[:s.count])
	slices.Sort(sorted)

	sum.MeanMS, sum.StdDevMS = stat.MeanStdDev(sorted, nil)
	if s.count < 2 {
		sum.StdDevMS = 0
	}
	sum.P50MS = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	sum.P95MS = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	sum.MaxMS = sorted[len(sorted)-1]

	return sum
}
