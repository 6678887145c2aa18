package vision

import (
	"image"
	"strings"

	"codeberg.org/mutker/robotctl/internal/errors"
)

// Point is a sub-pixel image coordinate.
type Point struct {
	X float32
	Y float32
}

// Marker is one detected fiducial. Corners run clockwise from the marker's
// top-left corner.
type Marker struct {
	ID      int
	Corners [4]Point
}

// Detector finds markers in a grayscale image.
type Detector interface {
	Detect(img *image.Gray) ([]Marker, error)
	Close() error
}

// Dictionary names a predefined ArUco codebook.
type Dictionary string

const (
	Dict4x4_50    Dictionary = "4x4_50"
	Dict4x4_100   Dictionary = "4x4_100"
	Dict4x4_250   Dictionary = "4x4_250"
	Dict4x4_1000  Dictionary = "4x4_1000"
	Dict5x5_50    Dictionary = "5x5_50"
	Dict5x5_100   Dictionary = "5x5_100"
	Dict5x5_250   Dictionary = "5x5_250"
	Dict5x5_1000  Dictionary = "5x5_1000"
	Dict6x6_50    Dictionary = "6x6_50"
	Dict6x6_100   Dictionary = "6x6_100"
	Dict6x6_250   Dictionary = "6x6_250"
	Dict6x6_1000  Dictionary = "6x6_1000"
	Dict7x7_50    Dictionary = "7x7_50"
	Dict7x7_100   Dictionary = "7x7_100"
	Dict7x7_250   Dictionary = "7x7_250"
	Dict7x7_1000  Dictionary = "7x7_1000"
	DictArucoOrig Dictionary = "original"
)

var dictionaries = []Dictionary{
	Dict4x4_50, Dict4x4_100, Dict4x4_250, Dict4x4_1000,
	Dict5x5_50, Dict5x5_100, Dict5x5_250, Dict5x5_1000,
	Dict6x6_50, Dict6x6_100, Dict6x6_250, Dict6x6_1000,
	Dict7x7_50, Dict7x7_100, Dict7x7_250, Dict7x7_1000,
	DictArucoOrig,
}

// ParseDictionary accepts "4x4_50", "DICT_4X4_50" and similar spellings.
func ParseDictionary(name string) (Dictionary, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "dict_")
	if normalized == "aruco_original" {
		normalized = string(DictArucoOrig)
	}

	for _, d := range dictionaries {
		if string(d) == normalized {
			return d, nil
		}
	}

	return "", errors.New().WithData(errors.ErrInvalidArgument, "unknown marker dictionary "+name)
}
