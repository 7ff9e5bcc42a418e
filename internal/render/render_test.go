package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/bottlesort/bsort/internal/detect"
)

func createSolidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnnotate_DrawsBoxOutline(t *testing.T) {
	img := createSolidImage(100, 100, color.RGBA{0, 0, 0, 255})
	detections := []detect.Detection{
		{
			Box:        detect.Bounds{X1: 20, Y1: 30, X2: 80, Y2: 90},
			ClassID:    1,
			ClassName:  "blue",
			Confidence: 0.8,
		},
	}

	out := Annotate(img, detections)

	want := classColor(1)
	for _, p := range []image.Point{{20, 60}, {79, 60}, {50, 30}, {50, 89}} {
		if got := out.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("edge pixel %v: got %v, want %v", p, got, want)
		}
	}

	// A pixel well inside the box keeps the source color.
	if got := out.RGBAAt(50, 60); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("interior pixel changed: %v", got)
	}
}

func TestAnnotate_DoesNotMutateSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 50))
	detections := []detect.Detection{
		{Box: detect.Bounds{X1: 10, Y1: 10, X2: 40, Y2: 40}, ClassName: "red", Confidence: 0.9},
	}

	_ = Annotate(src, detections)

	if got := src.RGBAAt(10, 25); got != (color.RGBA{}) {
		t.Errorf("source image mutated: %v", got)
	}
}

func TestAnnotate_ClampsOutOfBoundsBox(t *testing.T) {
	img := createSolidImage(50, 50, color.White)
	detections := []detect.Detection{
		{Box: detect.Bounds{X1: -10, Y1: -10, X2: 200, Y2: 200}, ClassName: "black", Confidence: 0.7},
		{Box: detect.Bounds{X1: 200, Y1: 200, X2: 300, Y2: 300}, ClassName: "red", Confidence: 0.7},
	}

	// Must not panic on boxes partially or fully outside the frame.
	out := Annotate(img, detections)
	if out.Bounds() != img.Bounds() {
		t.Errorf("bounds changed: %v", out.Bounds())
	}
}

func TestClassColor_StablePerClass(t *testing.T) {
	if classColor(2) != classColor(2) {
		t.Error("class color must be deterministic")
	}
	if classColor(0) == classColor(1) {
		t.Error("adjacent classes should get distinct colors")
	}
}

func TestSaveAnnotated(t *testing.T) {
	img := createSolidImage(60, 60, color.RGBA{10, 10, 10, 255})
	detections := []detect.Detection{
		{Box: detect.Bounds{X1: 5, Y1: 5, X2: 55, Y2: 55}, ClassName: "green", Confidence: 0.6},
	}

	for _, name := range []string{"out.jpg", "out.png"} {
		path := filepath.Join(t.TempDir(), "nested", name)
		if err := SaveAnnotated(img, detections, path); err != nil {
			t.Fatalf("SaveAnnotated(%s) failed: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: missing or empty output (%v)", name, err)
		}
	}
}
