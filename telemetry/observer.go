package telemetry

import (
	"time"

	"go.uber.org/zap"

	"vulkan-particles/frame"
)

var _ frame.Observer = (*Recorder)(nil)

// Options configures NewRecorder.
type Options struct {
	// CSVPath receives one line per frame when not empty.
	CSVPath string
	// Window is the number of frames the statistics cover.
	Window int
	Logger *zap.Logger
}

// Recorder feeds the frame loop notifications into the metrics, the rolling
// statistics and the CSV file.
type Recorder struct {
	Metrics *Metrics
	Stats   *Stats

	out *FrameWriter
	log *zap.Logger
}

// NewRecorder returns a recorder. The CSV file is created right away.
func NewRecorder(opts Options) (*Recorder, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out, err := NewFrameWriter(opts.CSVPath)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		Metrics: NewMetrics(),
		Stats:   NewStats(opts.Window),
		out:     out,
		log:     log,
	}, nil
}

// FrameRendered records a presented frame. A failing CSV write is logged
// once and turns the file output off.
func (r *Recorder) FrameRendered(s frame.FrameStats) {
	r.Metrics.ObserveFrame(s.Duration)
	r.Stats.Add(s.Duration)

	err := r.out.Write(FrameRecord{
		Frame:      s.Index,
		Slot:       s.Slot,
		Image:      s.Image,
		DeltaTime:  s.DeltaTime,
		DurationMS: float64(s.Duration) / float64(time.Millisecond),
		Timeline:   s.Timeline,
	})
	if err != nil {
		r.log.Error("frame output disabled", zap.Error(err))
		_ = r.out.Close()
		r.out = nil
	}
}

// SwapchainRecreated records a recreation.
func (r *Recorder) SwapchainRecreated(reason string) {
	r.Metrics.ObserveRecreation(reason)
}

// WaitTimedOut records a timed out wait.
func (r *Recorder) WaitTimedOut(what string) {
	r.Metrics.ObserveTimeout(what)
}

// Summary is what LogSummary reports.
type Summary struct {
	FrameSummary
	Recreations  float64
	WaitTimeouts float64
}

// Summary collects the frame statistics and the counter totals.
func (r *Recorder) Summary() (Summary, error) {
	recreations, err := r.Metrics.Total("particles_swapchain_recreations_total")
	if err != nil {
		return Summary{}, err
	}
	timeouts, err := r.Metrics.Total("particles_wait_timeouts_total")
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		FrameSummary: r.Stats.Summary(),
		Recreations:  recreations,
		WaitTimeouts: timeouts,
	}, nil
}

// LogSummary logs the shutdown summary at info level.
func (r *Recorder) LogSummary() {
	sum, err := r.Summary()
	if err != nil {
		r.log.Warn("gathering metrics", zap.Error(err))
		return
	}

	r.log.Info("frame summary",
		zap.Uint64("frames", sum.Frames),
		zap.Int("window", sum.Window),
		zap.Float64("mean_ms", sum.MeanMS),
		zap.Float64("stddev_ms", sum.StdDevMS),
		zap.Float64("p50_ms", sum.P50MS),
		zap.Float64("p95_ms", sum.P95MS),
		zap.Float64("max_ms", sum.MaxMS),
		zap.Float64("recreations", sum.Recreations),
		zap.Float64("wait_timeouts", sum.WaitTimeouts),
	)
}

// Close closes the CSV file.
func (r *Recorder) Close() error {
	return r.out.Close()
}
