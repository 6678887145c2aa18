package camera

import (
	"context"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
)

const (
	BackendV4L2 = "v4l2"
	BackendGst  = "gst"
)

// Camera produces frames until stopped.
type Camera interface {
	// Capture blocks until the next frame is ready. A timeout or an unusable
	// frame is a transient_frame error.
	Capture(ctx context.Context) (*Frame, error)
	Stop() error
}

type Config struct {
	Backend      string
	Device       string
	Width        int
	Height       int
	FrameTimeout time.Duration
}

// Open starts the configured backend. A missing device is reported as
// device_unavailable.
func Open(cfg Config, log logger.Logger) (Camera, error) {
	log = log.With("camera")

	switch cfg.Backend {
	case BackendV4L2, "":
		return openV4L2(cfg, log)
	case BackendGst:
		return openGst(cfg, log)
	default:
		return nil, errors.New().WithData(errors.ErrInvalidArgument, "camera backend "+cfg.Backend)
	}
}

// waitSeconds converts a frame timeout to the whole seconds V4L2 waits for,
// rounding up. The shortest wait is one second.
func waitSeconds(d time.Duration) uint32 {
	secs := (d + time.Second - 1) / time.Second
	if secs < 1 {
		return 1
	}

	return uint32(secs)
}
