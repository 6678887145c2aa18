//go:build !linux

package camera

import (
	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
)

func openV4L2(cfg Config, _ logger.Logger) (Camera, error) {
	return nil, errors.New().WithData(errors.ErrDeviceUnavailable, "v4l2 is only available on linux: "+cfg.Device)
}
