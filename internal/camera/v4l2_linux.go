//go:build linux

package camera

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"github.com/blackjack/webcam"
	"github.com/google/uuid"
)

func fourcc(code string) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24)
}

var v4l2Formats = []struct {
	code   webcam.PixelFormat
	format PixelFormat
}{
	{fourcc("GREY"), FormatGray8},
	{fourcc("YUYV"), FormatYUYV},
	{fourcc("RGB3"), FormatRGB24},
}

type v4l2Camera struct {
	mu       sync.Mutex
	cam      *webcam.Webcam
	width    int
	height   int
	format   PixelFormat
	timeout  uint32
	seq      uint64
	stopOnce sync.Once
	log      logger.Logger
}

func openV4L2(cfg Config, log logger.Logger) (Camera, error) {
	errFactory := errors.New()

	cam, err := webcam.Open(cfg.Device)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err).WithData(cfg.Device)
	}

	supported := cam.GetSupportedFormats()
	var (
		code   webcam.PixelFormat
		format PixelFormat
	)
	for _, f := range v4l2Formats {
		if _, ok := supported[f.code]; ok {
			code, format = f.code, f.format
			break
		}
	}
	if code == 0 {
		cam.Close()
		return nil, errFactory.WithData(errors.ErrDeviceUnavailable, "no supported pixel format on "+cfg.Device)
	}

	_, w, h, err := cam.SetImageFormat(code, uint32(cfg.Width), uint32(cfg.Height))
	if err != nil {
		cam.Close()
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err)
	}

	timeout := waitSeconds(cfg.FrameTimeout)

	log.Info().
		Str("device", cfg.Device).
		Stringer("format", format).
		Uint32("width", w).
		Uint32("height", h).
		Msg("V4L2 camera streaming")

	return &v4l2Camera{
		cam:     cam,
		width:   int(w),
		height:  int(h),
		format:  format,
		timeout: timeout,
		log:     log,
	}, nil
}

func (c *v4l2Camera) Capture(ctx context.Context) (*Frame, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInterrupted, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.cam.WaitForFrame(c.timeout); err != nil {
		var timeout *webcam.Timeout
		if errors.As(err, &timeout) {
			return nil, errFactory.Wrap(errors.ErrTransientFrame, err)
		}
		return nil, errFactory.Wrap(errors.ErrDeviceUnavailable, err)
	}

	data, err := c.cam.ReadFrame()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrTransientFrame, err)
	}

	// the driver reuses its buffers
	owned := make([]byte, len(data))
	copy(owned, data)
	c.seq++

	return &Frame{
		Seq:       c.seq,
		TraceID:   uuid.NewString(),
		Timestamp: time.Now(),
		Width:     c.width,
		Height:    c.height,
		Format:    c.format,
		Data:      owned,
	}, nil
}

func (c *v4l2Camera) Stop() error {
	var err error

	c.stopOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if stopErr := c.cam.StopStreaming(); stopErr != nil {
			c.log.Warn().Err(stopErr).Msg("Failed to stop streaming")
		}
		if closeErr := c.cam.Close(); closeErr != nil {
			err = errors.New().Wrap(errors.ErrShutdownFailed, closeErr)
			return
		}
		c.log.Info().Uint64("frames", c.seq).Msg("V4L2 camera released")
	})

	return err
}
