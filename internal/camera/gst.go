//go:build gst

package camera

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const gstPipeline = "libcamerasrc ! videoconvert ! videoscale ! " +
	"video/x-raw,format=GRAY8,width=%d,height=%d ! appsink name=sink max-buffers=2 drop=true"

type gstCamera struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	width    int
	height   int
	timeout  time.Duration
	seq      uint64
	stopOnce sync.Once
	log      logger.Logger
}

var gstInit sync.Once

func openGst(cfg Config, log logger.Logger) (Camera, error) {
	errFactory := errors.New()

	gstInit.Do(func() { gst.Init(nil) })

	desc := fmt.Sprintf(gstPipeline, cfg.Width, cfg.Height)
	pipeline, err := gst.NewPipelineFromString(desc)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData(desc)
	}

	element, err := pipeline.GetElementByName("sink")
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err)
	}
	sink := app.SinkFromElement(element)

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err)
	}

	log.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("libcamera pipeline playing")

	return &gstCamera{
		pipeline: pipeline,
		sink:     sink,
		width:    cfg.Width,
		height:   cfg.Height,
		timeout:  cfg.FrameTimeout,
		log:      log,
	}, nil
}

func (c *gstCamera) Capture(ctx context.Context) (*Frame, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInterrupted, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sink.IsEOS() {
		return nil, errFactory.WithMessage(errors.ErrDeviceUnavailable, "camera pipeline reached end of stream")
	}

	sample := c.sink.TryPullSample(gst.ClockTime(c.timeout))
	if sample == nil {
		return nil, errFactory.WithMessage(errors.ErrTransientFrame, "no sample before timeout")
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, errFactory.WithMessage(errors.ErrTransientFrame, "sample without buffer")
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	owned := make([]byte, len(data))
	copy(owned, data)
	buffer.Unmap()

	c.seq++

	return &Frame{
		Seq:       c.seq,
		TraceID:   uuid.NewString(),
		Timestamp: time.Now(),
		Width:     c.width,
		Height:    c.height,
		Format:    FormatGray8,
		Data:      owned,
	}, nil
}

func (c *gstCamera) Stop() error {
	var err error

	c.stopOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if stateErr := c.pipeline.SetState(gst.StateNull); stateErr != nil {
			err = errors.New().Wrap(errors.ErrShutdownFailed, stateErr)
			return
		}
		c.log.Info().Uint64("frames", c.seq).Msg("libcamera pipeline stopped")
	})

	return err
}
