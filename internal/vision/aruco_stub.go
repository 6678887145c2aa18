//go:build !gocv

package vision

import "codeberg.org/mutker/robotctl/internal/errors"

// NewDetector reports the detector as unavailable in builds without OpenCV.
func NewDetector(dict Dictionary) (Detector, error) {
	return nil, errors.New().WithMessage(errors.ErrDeviceUnavailable,
		"marker detection requires OpenCV (build tag gocv), dictionary "+string(dict))
}
