package region

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/hpungsan/shutter/internal/errors"
)

func TestCompute_ScaleOneNoOffset(t *testing.T) {
	got, err := Compute(Selection{X: 100, Y: 100, Width: 50, Height: 50}, 1, Offset{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := Rect{X: 100, Y: 100, Width: 50, Height: 50}
	if got != want {
		t.Errorf("Compute() = %+v, want %+v", got, want)
	}
	if err := Validate(got, 200, 200); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestCompute_ScaleAndOffset(t *testing.T) {
	got, err := Compute(Selection{X: 10.25, Y: 5, Width: 20.5, Height: 11.3}, 2, Offset{X: 0, Y: 28})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := Rect{X: 21, Y: 66, Width: 41, Height: 23}
	if got != want {
		t.Errorf("Compute() = %+v, want %+v", got, want)
	}
}

func TestCompute_HalfRoundsUp(t *testing.T) {
	got, err := Compute(Selection{X: 0.5, Y: 1.5, Width: 2.5, Height: 0.25}, 1, Offset{})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := Rect{X: 1, Y: 2, Width: 3, Height: 0}
	if got != want {
		t.Errorf("Compute() = %+v, want %+v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		rect  Rect
		valid bool
	}{
		{"inside", Rect{X: 0, Y: 0, Width: 200, Height: 200}, true},
		{"zero width", Rect{X: 10, Y: 10, Width: 0, Height: 10}, false},
		{"negative height", Rect{X: 10, Y: 10, Width: 10, Height: -1}, false},
		{"negative x", Rect{X: -1, Y: 0, Width: 10, Height: 10}, false},
		{"negative y", Rect{X: 0, Y: -3, Width: 10, Height: 10}, false},
		{"past right edge", Rect{X: 190, Y: 10, Width: 20, Height: 20}, false},
		{"past bottom edge", Rect{X: 10, Y: 190, Width: 20, Height: 11}, false},
		{"x plus width wraps", Rect{X: 5e18, Y: 0, Width: 5e18, Height: 10}, false},
		{"y plus height wraps", Rect{X: 0, Y: math.MaxInt - 5, Width: 10, Height: 10}, false},
		{"huge width at origin", Rect{X: 0, Y: 0, Width: math.MaxInt, Height: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rect, 200, 200)
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, errors.ErrInvalidRegion) {
				t.Errorf("Validate() error = %v, want INVALID_REGION", err)
			}
		})
	}
}

// Any selection that validates must lie entirely inside the image.
func TestComputeValidate_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const imgW, imgH = 640, 480

	for i := 0; i < 2000; i++ {
		sel := Selection{
			X:      rng.Float64()*400 - 50,
			Y:      rng.Float64()*300 - 50,
			Width:  rng.Float64()*400 - 20,
			Height: rng.Float64()*300 - 20,
		}
		scale := []float64{1, 1.25, 1.5, 2}[rng.Intn(4)]
		off := Offset{X: float64(rng.Intn(20)), Y: float64(rng.Intn(40))}

		r, err := Compute(sel, scale, off)
		if err != nil {
			t.Fatalf("Compute(%+v) error = %v", sel, err)
		}
		if Validate(r, imgW, imgH) != nil {
			continue
		}
		if r.X < 0 || r.Y < 0 || r.X+r.Width > imgW || r.Y+r.Height > imgH || r.Width <= 0 || r.Height <= 0 {
			t.Fatalf("validated rect %+v escapes %dx%d image", r, imgW, imgH)
		}
	}
}

func TestCompute_RejectsUnmappableSelections(t *testing.T) {
	tests := []struct {
		name  string
		sel   Selection
		scale float64
	}{
		{"NaN x", Selection{X: math.NaN(), Width: 10, Height: 10}, 1},
		{"infinite width", Selection{Width: math.Inf(1), Height: 10}, 1},
		{"negative infinite y", Selection{Y: math.Inf(-1), Width: 10, Height: 10}, 1},
		{"huge x", Selection{X: 5e18, Width: 5e18, Height: 10}, 1},
		{"huge after scaling", Selection{Width: MaxCoordinate, Height: 10}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.sel, tt.scale, Offset{})
			if !errors.Is(err, errors.ErrInvalidRegion) {
				t.Errorf("Compute() error = %v, want INVALID_REGION", err)
			}
		})
	}
}

func TestCrop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 200))
	src.Set(100, 100, color.RGBA{R: 255, A: 255})
	src.Set(149, 149, color.RGBA{G: 255, A: 255})

	out := Crop(src, Rect{X: 100, Y: 100, Width: 50, Height: 50})

	if out.Bounds() != image.Rect(0, 0, 50, 50) {
		t.Fatalf("Bounds() = %v, want 50x50", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.R != 255 {
		t.Errorf("pixel (0,0) = %v, want red", got)
	}
	if got := out.RGBAAt(49, 49); got.G != 255 {
		t.Errorf("pixel (49,49) = %v, want green", got)
	}
}

func TestCrop_NonRGBASource(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	src.Set(5, 5, color.NRGBA{B: 255, A: 255})

	out := Crop(src, Rect{X: 5, Y: 5, Width: 2, Height: 2})
	if got := out.RGBAAt(0, 0); got.B != 255 {
		t.Errorf("pixel (0,0) = %v, want blue", got)
	}
}

func TestDisplayForPoint(t *testing.T) {
	displays := []Bounds{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 2560, Height: 1440},
	}

	if got := DisplayForPoint(displays, Center(Bounds{X: 2000, Y: 100, Width: 800, Height: 600})); got != 1 {
		t.Errorf("DisplayForPoint() = %d, want 1", got)
	}
	if got := DisplayForPoint(displays, Point{X: 1919, Y: 1079}); got != 0 {
		t.Errorf("DisplayForPoint() = %d, want 0", got)
	}
	if got := DisplayForPoint(displays, Point{X: -5, Y: 0}); got != -1 {
		t.Errorf("DisplayForPoint() = %d, want -1", got)
	}
}

func TestOffsetBetween(t *testing.T) {
	off := OffsetBetween(Bounds{X: 1930, Y: 25}, Bounds{X: 1920, Y: 0})
	if off.X != 10 || off.Y != 25 {
		t.Errorf("OffsetBetween() = %+v, want {10 25}", off)
	}
}
