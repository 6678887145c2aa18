package camera

import (
	"image"
	"image/color"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
)

// PixelFormat is the memory layout of Frame.Data.
type PixelFormat int

const (
	FormatYUYV PixelFormat = iota
	FormatGray8
	FormatRGB24
)

func (f PixelFormat) String() string {
	switch f {
	case FormatYUYV:
		return "YUYV"
	case FormatGray8:
		return "GRAY8"
	case FormatRGB24:
		return "RGB24"
	default:
		return "unknown"
	}
}

func (f PixelFormat) bytesPerPixel() int {
	switch f {
	case FormatGray8:
		return 1
	case FormatYUYV:
		return 2
	default:
		return 3
	}
}

// Frame is one captured image. Data is owned by the frame.
type Frame struct {
	Seq       uint64
	TraceID   string
	Timestamp time.Time
	Width     int
	Height    int
	Format    PixelFormat
	Data      []byte
}

// Validate reports a transient_frame error for empty or truncated frames.
func (f *Frame) Validate() error {
	if f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Data) == 0 {
		return errors.New().WithMessage(errors.ErrTransientFrame, "empty frame")
	}
	if want := f.Width * f.Height * f.Format.bytesPerPixel(); len(f.Data) < want {
		return errors.New().WithData(errors.ErrTransientFrame, struct {
			Want int
			Got  int
		}{want, len(f.Data)})
	}

	return nil
}

// Gray returns the luma plane of the frame.
func (f *Frame) Gray() (*image.Gray, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height

	switch f.Format {
	case FormatGray8:
		copy(img.Pix, f.Data[:n])
	case FormatYUYV:
		// Y0 U Y1 V: luma sits on every even byte
		for i := 0; i < n; i++ {
			img.Pix[i] = f.Data[2*i]
		}
	case FormatRGB24:
		for i := 0; i < n; i++ {
			r, g, b := f.Data[3*i], f.Data[3*i+1], f.Data[3*i+2]
			img.Pix[i] = color.GrayModel.Convert(color.RGBA{R: r, G: g, B: b, A: 0xff}).(color.Gray).Y
		}
	default:
		return nil, errors.New().WithData(errors.ErrTransientFrame, "unsupported pixel format "+f.Format.String())
	}

	return img, nil
}

// Image returns the frame as an image suitable for drawing on. Color frames
// keep their color, other formats come back as grayscale.
func (f *Frame) Image() (image.Image, error) {
	if f.Format != FormatRGB24 {
		gray, err := f.Gray()
		if err != nil {
			return nil, err
		}
		return gray, nil
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		copy(img.Pix[4*i:4*i+3], f.Data[3*i:3*i+3])
		img.Pix[4*i+3] = 0xff
	}

	return img, nil
}
