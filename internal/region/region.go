// Package region converts a UI selection into pixel bounds on a captured image.
package region

import (
	"fmt"
	"image"
	"math"

	"github.com/hpungsan/shutter/internal/errors"
	"golang.org/x/image/draw"
)

// BytesPerPixel is the RGBA stride per pixel.
const BytesPerPixel = 4

// MaxCoordinate bounds every computed pixel value. No display comes close.
const MaxCoordinate = 1 << 20

// Selection is a rectangle in logical (CSS) pixels relative to the overlay content.
type Selection struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Offset is the content origin relative to the display origin, in logical pixels.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds is a display or window rectangle in logical pixels.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is a logical screen coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Contains reports whether p lies inside b (right and bottom edges exclusive).
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X < b.X+b.Width && p.Y >= b.Y && p.Y < b.Y+b.Height
}

// Center returns the center point of b.
func Center(b Bounds) Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// OffsetBetween returns content's origin relative to display's origin.
func OffsetBetween(content, display Bounds) Offset {
	return Offset{X: float64(content.X - display.X), Y: float64(content.Y - display.Y)}
}

// DisplayForPoint returns the index of the first bounds containing p, or -1.
func DisplayForPoint(displays []Bounds, p Point) int {
	for i, b := range displays {
		if b.Contains(p) {
			return i
		}
	}
	return -1
}

// Compute maps a selection to device pixels. Rounding is half-up.
// Values that are not finite or exceed MaxCoordinate after scaling are
// rejected with INVALID_REGION before any integer conversion.
func Compute(sel Selection, scale float64, off Offset) (Rect, error) {
	vals := [4]float64{
		(sel.X + off.X) * scale,
		(sel.Y + off.Y) * scale,
		sel.Width * scale,
		sel.Height * scale,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Rect{}, errors.NewInvalidSelection("coordinates must be finite")
		}
		if math.Abs(v) > MaxCoordinate {
			return Rect{}, errors.NewInvalidSelection(fmt.Sprintf("coordinates must be within %d pixels", MaxCoordinate))
		}
	}
	return Rect{
		X:      round(vals[0]),
		Y:      round(vals[1]),
		Width:  round(vals[2]),
		Height: round(vals[3]),
	}, nil
}

// Validate returns INVALID_REGION unless r has positive size and fits
// inside an imgW x imgH image. Edges are compared by subtraction so huge
// values cannot wrap around.
func Validate(r Rect, imgW, imgH int) error {
	if r.Width <= 0 || r.Height <= 0 || r.X < 0 || r.Y < 0 ||
		r.Width > imgW || r.Height > imgH ||
		r.X > imgW-r.Width || r.Y > imgH-r.Height {
		return errors.NewInvalidRegion(r.X, r.Y, r.Width, r.Height, imgW, imgH)
	}
	return nil
}

// Crop copies r out of img into a new zero-origin RGBA image.
// r must already have passed Validate against img's size.
func Crop(img image.Image, r Rect) *image.RGBA {
	src := toRGBA(img)
	cropped := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))

	origin := src.Bounds().Min
	bytesPerRow := r.Width * BytesPerPixel
	for y := 0; y < r.Height; y++ {
		srcStart := src.PixOffset(origin.X+r.X, origin.Y+r.Y+y)
		dstStart := y * cropped.Stride
		copy(cropped.Pix[dstStart:dstStart+bytesPerRow], src.Pix[srcStart:srcStart+bytesPerRow])
	}
	return cropped
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
