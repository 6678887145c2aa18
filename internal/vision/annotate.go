package vision

import (
	"image"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"github.com/fogleman/gg"
)

const (
	imagePrefix  = "aruco_detected_"
	imageLayout  = "20060102-150405"
	imageDirPerm = 0o755
)

// ImageName returns the file name used for a detection captured at t.
func ImageName(t time.Time) string {
	return imagePrefix + t.Format(imageLayout) + ".png"
}

// Annotator draws detected markers onto a frame and stores the result.
type Annotator struct {
	Dir string
}

// Render outlines every marker in green, marks its first corner in red and
// labels it with its id.
func (a *Annotator) Render(img image.Image, markers []Marker) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetLineWidth(2)

	for _, m := range markers {
		dc.SetRGB(0, 1, 0)
		for i, c := range m.Corners {
			if i == 0 {
				dc.MoveTo(float64(c.X), float64(c.Y))
				continue
			}
			dc.LineTo(float64(c.X), float64(c.Y))
		}
		dc.ClosePath()
		dc.Stroke()

		first := m.Corners[0]
		dc.SetRGB(1, 0, 0)
		dc.DrawRectangle(float64(first.X)-3, float64(first.Y)-3, 6, 6)
		dc.Stroke()

		dc.SetRGB(0, 0, 1)
		dc.DrawString("id="+strconv.Itoa(m.ID), float64(first.X), float64(first.Y)-8)
	}

	return dc.Image()
}

// Save renders the markers and writes the PNG into Dir, creating it when
// missing. It returns the written path.
func (a *Annotator) Save(img image.Image, markers []Marker, at time.Time) (string, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(a.Dir, imageDirPerm); err != nil {
		return "", errFactory.Wrap(errors.ErrSaveImage, err)
	}

	path := filepath.Join(a.Dir, ImageName(at))
	if err := gg.SavePNG(path, a.Render(img, markers)); err != nil {
		return "", errFactory.Wrap(errors.ErrSaveImage, err)
	}

	return path, nil
}
