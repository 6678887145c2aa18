package ratemon

import (
	"context"
	"time"

	"codeberg.org/mutker/robotctl/internal/logger"
	"codeberg.org/mutker/robotctl/internal/metrics"
)

// Report is the result of one closed window.
type Report struct {
	At     time.Time
	Frames int
	FPS    float64
}

// Reporter publishes a report. Errors are logged by the monitor.
type Reporter interface {
	Report(r Report) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(r Report) error

func (f ReporterFunc) Report(r Report) error { return f(r) }

// Monitor closes the counter window every interval and hands the result to
// its reporters.
type Monitor struct {
	counter   *FpsCounter
	interval  time.Duration
	reporters []Reporter
	log       logger.Logger
	now       func() time.Time
}

func NewMonitor(counter *FpsCounter, interval time.Duration, log logger.Logger, reporters ...Reporter) *Monitor {
	return &Monitor{
		counter:   counter,
		interval:  interval,
		reporters: reporters,
		log:       log.With("ratemon"),
		now:       time.Now,
	}
}

// Tick closes the current window and reports it.
func (m *Monitor) Tick() Report {
	now := m.now()
	frames, fps := m.counter.Close(now)
	r := Report{At: now, Frames: frames, FPS: fps}

	for _, rep := range m.reporters {
		if err := rep.Report(r); err != nil {
			m.log.Warn().Err(err).Msg("Failed to report frame rate")
		}
	}

	return r
}

// Run ticks every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// LogReporter writes each report at debug level.
func LogReporter(log logger.Logger) Reporter {
	return ReporterFunc(func(r Report) error {
		log.Debug().Int("frames", r.Frames).Float64("fps", r.FPS).Msg("Frame rate")
		return nil
	})
}

// GaugeReporter publishes the rate on robotctl_vision_fps.
func GaugeReporter() Reporter {
	return ReporterFunc(func(r Report) error {
		metrics.SetVisionFPS(r.FPS)
		return nil
	})
}
