//go:build !gst

package camera

import (
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
)

func openGst(Config, logger.Logger) (Camera, error) {
	return nil, errors.New().WithMessage(errors.ErrDeviceUnavailable, "built without GStreamer support (build tag gst)")
}
