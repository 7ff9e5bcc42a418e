package augment

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/bottlesort/bsort/internal/dataset"
)

// createPatternImage builds an image with distinct quadrant colors: red
// top-left, green top-right, blue bottom-left, white bottom-right.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255}
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255}
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255}
			} else {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func newSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	diff := a - b
	return diff < eps && diff > -eps
}

func TestHorizontalFlip(t *testing.T) {
	img := createPatternImage(100, 100)
	objects := []dataset.Object{
		{Class: 0, Box: dataset.Box{XC: 0.3, YC: 0.4, W: 0.2, H: 0.2}},
	}

	flipped, out := horizontalFlip{}.Apply(img, objects, nil)

	if !approxEqual(out[0].Box.XC, 0.7) {
		t.Errorf("XC: got %g, want 0.7", out[0].Box.XC)
	}
	if out[0].Box.YC != 0.4 || out[0].Box.W != 0.2 || out[0].Box.H != 0.2 {
		t.Errorf("flip must only mirror the center: %+v", out[0].Box)
	}

	// Red quadrant moved from top-left to top-right.
	r, _, _, _ := flipped.At(90, 10).RGBA()
	if r>>8 != 255 {
		t.Error("pixels were not mirrored horizontally")
	}

	// Input untouched.
	if objects[0].Box.XC != 0.3 {
		t.Error("Apply mutated its input")
	}
}

func TestVerticalFlip(t *testing.T) {
	img := createPatternImage(100, 100)
	objects := []dataset.Object{
		{Class: 1, Box: dataset.Box{XC: 0.5, YC: 0.25, W: 0.1, H: 0.3}},
	}

	flipped, out := verticalFlip{}.Apply(img, objects, nil)

	if !approxEqual(out[0].Box.YC, 0.75) {
		t.Errorf("YC: got %g, want 0.75", out[0].Box.YC)
	}

	// Red quadrant moved from top-left to bottom-left.
	r, _, _, _ := flipped.At(10, 90).RGBA()
	if r>>8 != 255 {
		t.Error("pixels were not mirrored vertically")
	}
}

func TestClipBox(t *testing.T) {
	tests := []struct {
		name string
		in   dataset.Box
		ok   bool
	}{
		{"fully inside", dataset.Box{XC: 0.5, YC: 0.5, W: 0.4, H: 0.4}, true},
		{"spills left", dataset.Box{XC: 0.05, YC: 0.5, W: 0.3, H: 0.3}, true},
		{"fully left of frame", dataset.Box{XC: -0.5, YC: 0.5, W: 0.2, H: 0.2}, false},
		{"zero area", dataset.Box{XC: 0.5, YC: 0.5, W: 0, H: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := clipBox(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if out.XC-out.W/2 < 0 || out.XC+out.W/2 > 1 || out.YC-out.H/2 < 0 || out.YC+out.H/2 > 1 {
				t.Errorf("clipped box leaves the unit square: %+v", out)
			}
		})
	}
}

func TestClipBox_InsideUnchanged(t *testing.T) {
	in := dataset.Box{XC: 0.5, YC: 0.5, W: 0.4, H: 0.4}
	out, ok := clipBox(in)
	if !ok || out != in {
		t.Errorf("box inside the frame must pass through unchanged: got %+v", out)
	}
}

func TestRotate_BoxesStayNormalized(t *testing.T) {
	img := createPatternImage(120, 80)
	objects := []dataset.Object{
		{Class: 0, Box: dataset.Box{XC: 0.2, YC: 0.3, W: 0.2, H: 0.2}},
		{Class: 1, Box: dataset.Box{XC: 0.9, YC: 0.9, W: 0.15, H: 0.15}},
	}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		_, out := rotate{Limit: 30}.Apply(img, objects, rng)
		for _, obj := range out {
			b := obj.Box
			if b.XC-b.W/2 < -1e-9 || b.XC+b.W/2 > 1+1e-9 || b.YC-b.H/2 < -1e-9 || b.YC+b.H/2 > 1+1e-9 {
				t.Fatalf("iteration %d: box outside unit square: %+v", i, b)
			}
		}
	}
}

func TestShiftScale_IdentityWhenLimitsZero(t *testing.T) {
	img := createPatternImage(100, 100)
	objects := []dataset.Object{
		{Class: 0, Box: dataset.Box{XC: 0.5, YC: 0.5, W: 0.3, H: 0.3}},
	}
	rng := rand.New(rand.NewSource(1))

	out, outObjects := shiftScale{}.Apply(img, objects, rng)

	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Errorf("dimensions changed: %v", out.Bounds())
	}
	if len(outObjects) != 1 {
		t.Fatalf("objects: got %d, want 1", len(outObjects))
	}
	b := outObjects[0].Box
	if !approxEqual(b.XC, 0.5) || !approxEqual(b.YC, 0.5) || !approxEqual(b.W, 0.3) || !approxEqual(b.H, 0.3) {
		t.Errorf("identity window must keep boxes: %+v", b)
	}
}

func TestShiftScale_BoxesStayNormalized(t *testing.T) {
	img := createPatternImage(100, 100)
	objects := []dataset.Object{
		{Class: 0, Box: dataset.Box{XC: 0.1, YC: 0.1, W: 0.15, H: 0.15}},
		{Class: 1, Box: dataset.Box{XC: 0.8, YC: 0.7, W: 0.2, H: 0.3}},
	}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		_, out := shiftScale{ShiftLimit: 0.2, ScaleLimit: 0.2}.Apply(img, objects, rng)
		for _, obj := range out {
			b := obj.Box
			if b.XC-b.W/2 < -1e-9 || b.XC+b.W/2 > 1+1e-9 || b.YC-b.H/2 < -1e-9 || b.YC+b.H/2 > 1+1e-9 {
				t.Fatalf("iteration %d: box outside unit square: %+v", i, b)
			}
		}
	}
}

func TestColorJitter_KeepsBoxesAndDimensions(t *testing.T) {
	img := createPatternImage(50, 50)
	objects := []dataset.Object{
		{Class: 2, Box: dataset.Box{XC: 0.5, YC: 0.5, W: 0.2, H: 0.2}},
	}
	rng := rand.New(rand.NewSource(9))

	out, outObjects := colorJitter{}.Apply(img, objects, rng)

	if out.Bounds() != img.Bounds() {
		t.Errorf("color jitter must not change geometry: %v", out.Bounds())
	}
	if len(outObjects) != 1 || outObjects[0] != objects[0] {
		t.Errorf("color jitter must not touch boxes: %+v", outObjects)
	}
}
