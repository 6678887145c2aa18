//go:build gocv

package vision

import (
	"image"
	"sync"

	"codeberg.org/mutker/robotctl/internal/errors"
	"gocv.io/x/gocv"
)

const cornerRefineSubpix = 1

var gocvDictionaries = map[Dictionary]gocv.ArucoDictionaryCode{
	Dict4x4_50:    gocv.ArucoDict4x4_50,
	Dict4x4_100:   gocv.ArucoDict4x4_100,
	Dict4x4_250:   gocv.ArucoDict4x4_250,
	Dict4x4_1000:  gocv.ArucoDict4x4_1000,
	Dict5x5_50:    gocv.ArucoDict5x5_50,
	Dict5x5_100:   gocv.ArucoDict5x5_100,
	Dict5x5_250:   gocv.ArucoDict5x5_250,
	Dict5x5_1000:  gocv.ArucoDict5x5_1000,
	Dict6x6_50:    gocv.ArucoDict6x6_50,
	Dict6x6_100:   gocv.ArucoDict6x6_100,
	Dict6x6_250:   gocv.ArucoDict6x6_250,
	Dict6x6_1000:  gocv.ArucoDict6x6_1000,
	Dict7x7_50:    gocv.ArucoDict7x7_50,
	Dict7x7_100:   gocv.ArucoDict7x7_100,
	Dict7x7_250:   gocv.ArucoDict7x7_250,
	Dict7x7_1000:  gocv.ArucoDict7x7_1000,
	DictArucoOrig: gocv.ArucoDictArucoOriginal,
}

type arucoDetector struct {
	mu       sync.Mutex
	detector gocv.ArucoDetector
}

// NewDetector builds an OpenCV ArUco detector with sub-pixel corner
// refinement.
func NewDetector(dict Dictionary) (Detector, error) {
	code, ok := gocvDictionaries[dict]
	if !ok {
		return nil, errors.New().WithData(errors.ErrInvalidArgument, "unknown marker dictionary "+string(dict))
	}

	params := gocv.NewArucoDetectorParameters()
	params.SetCornerRefinementMethod(cornerRefineSubpix)

	return &arucoDetector{
		detector: gocv.NewArucoDetectorWithParams(gocv.GetPredefinedDictionary(code), params),
	}, nil
}

func (d *arucoDetector) Detect(img *image.Gray) ([]Marker, error) {
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrTransientFrame, err)
	}
	defer mat.Close()

	d.mu.Lock()
	corners, ids, _ := d.detector.DetectMarkers(mat)
	d.mu.Unlock()

	markers := make([]Marker, 0, len(ids))
	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		m := Marker{ID: id}
		for j, c := range corners[i] {
			m.Corners[j] = Point{X: c.X, Y: c.Y}
		}
		markers = append(markers, m)
	}

	return markers, nil
}

func (d *arucoDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.detector.Close()
}
