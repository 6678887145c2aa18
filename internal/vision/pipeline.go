package vision

import (
	"context"
	"time"

	"codeberg.org/mutker/robotctl/internal/camera"
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"codeberg.org/mutker/robotctl/internal/metrics"
	"codeberg.org/mutker/robotctl/internal/telemetry"
)

// Notifier is told about every frame that contains markers.
type Notifier interface {
	OnDetection(ctx context.Context, markers int) error
}

// Counter counts processed frames for the rate monitor.
type Counter interface {
	Increment()
}

// Pipeline captures frames, detects markers and reports detections.
type Pipeline struct {
	camera    camera.Camera
	detector  Detector
	annotator *Annotator
	notifier  Notifier
	counter   Counter
	recorder  telemetry.Recorder
	log       logger.Logger
	now       func() time.Time
}

type Option func(*Pipeline)

// WithAnnotator saves an annotated image for every detection.
func WithAnnotator(a *Annotator) Option {
	return func(p *Pipeline) { p.annotator = a }
}

// WithRecorder logs every detection to telemetry.
func WithRecorder(r telemetry.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(cam camera.Camera, detector Detector, notifier Notifier, counter Counter, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		camera:   cam,
		detector: detector,
		notifier: notifier,
		counter:  counter,
		log:      log.With("vision"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run processes frames until ctx is canceled or the camera fails. Bad frames
// are skipped. The camera is stopped before Run returns, including after a
// panic.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic(r)
		}
		if stopErr := p.camera.Stop(); stopErr != nil {
			p.log.Error().Err(stopErr).Msg("Failed to release camera")
		}
		err = p.finish(err)
	}()

	p.log.Info().Msg("Vision loop started")

	for {
		if ctx.Err() != nil {
			return errors.New().Wrap(errors.ErrInterrupted, ctx.Err())
		}

		err := p.step(ctx)
		if err == nil {
			continue
		}

		switch errors.KindOf(err) {
		case errors.KindTransientFrame:
			metrics.FrameSkipped()
			p.log.Warn().Err(err).Msg("Skipping frame")
		default:
			return err
		}
	}
}

func (p *Pipeline) step(ctx context.Context) error {
	frame, err := p.camera.Capture(ctx)
	if err != nil {
		return err
	}

	gray, err := frame.Gray()
	if err != nil {
		return err
	}

	markers, err := p.detector.Detect(gray)
	if err != nil {
		return err
	}

	p.counter.Increment()
	metrics.FrameProcessed()

	if len(markers) > 0 {
		p.detected(ctx, frame, markers)
	}

	return nil
}

// detected handles a positive result. Failures here are logged and never
// stop the loop.
func (p *Pipeline) detected(ctx context.Context, frame *camera.Frame, markers []Marker) {
	metrics.MarkersDetected(len(markers))

	ids := make([]int, len(markers))
	for i, m := range markers {
		ids[i] = m.ID
	}
	p.log.Info().
		Uint64("seq", frame.Seq).
		Str("trace_id", frame.TraceID).
		Ints("ids", ids).
		Msg("Markers detected")

	var path string
	if p.annotator != nil {
		img, err := frame.Image()
		if err == nil {
			path, err = p.annotator.Save(img, markers, p.now())
		}
		if err != nil {
			p.log.Error().Err(err).Msg("Failed to save annotated image")
		}
	}

	if err := p.notifier.OnDetection(ctx, len(markers)); err != nil {
		p.log.Warn().Err(err).Msg("Failed to signal detection feedback")
	}

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, detectionEvent(frame, markers, path)); err != nil {
			p.log.Warn().Err(err).Msg("Failed to record detection")
		}
	}
}

func detectionEvent(frame *camera.Frame, markers []Marker, path string) *telemetry.DetectionEvent {
	event := &telemetry.DetectionEvent{
		Timestamp: frame.Timestamp,
		FrameSeq:  frame.Seq,
		ImagePath: path,
		Markers:   make([]telemetry.Marker, len(markers)),
	}
	for i, m := range markers {
		event.Markers[i].ID = m.ID
		for j, c := range m.Corners {
			event.Markers[i].Corners[j] = [2]float32{c.X, c.Y}
		}
	}

	return event
}

func (p *Pipeline) finish(err error) error {
	if err == nil {
		p.log.Info().Msg("Vision loop stopped")
		return nil
	}

	kind := errors.KindOf(err)
	if kind == errors.KindInterrupted {
		p.log.Info().Msg("Vision loop interrupted")
		return nil
	}

	event := p.log.Error().Err(err).Stringer("kind", kind)
	var coded errors.Error
	if errors.As(err, &coded) {
		event = event.Str("error_code", string(coded.Code()))
		if panicData, ok := coded.GetData().(errors.PanicData); ok {
			event = event.Str("stack", panicData.Stack)
		}
	}
	event.Msg("Vision loop failed")

	return err
}
