// Package render draws detection results onto images.
//
// Annotation is pure Go (image/draw plus a bitmap font), so saving annotated
// results works in every build, including ones without the detection
// backend compiled in.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/bottlesort/bsort/internal/detect"
)

const boxThickness = 2

// Annotate returns a copy of img with a rectangle and a "<class>: <conf>"
// label drawn for every detection. Colors are assigned per class id.
func Annotate(img image.Image, detections []detect.Detection) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, d := range detections {
		c := classColor(d.ClassID)
		rect := image.Rect(d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2).Intersect(bounds)
		if rect.Empty() {
			continue
		}
		drawRect(out, rect, c)

		label := fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
		drawLabel(out, rect.Min.X, rect.Min.Y, label, c)
	}
	return out
}

// SaveAnnotated annotates img and writes it to path, choosing the encoder
// from the file extension (.png or JPEG otherwise).
func SaveAnnotated(img image.Image, detections []detect.Detection, path string) error {
	annotated := Annotate(img, detections)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		if err := png.Encode(f, annotated); err != nil {
			return fmt.Errorf("failed to encode %s: %w", path, err)
		}
		return nil
	}
	if err := jpeg.Encode(f, annotated, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// classColor picks a stable, well-separated color for a class id by walking
// the hue wheel with a golden-angle stride.
func classColor(id int) color.RGBA {
	hue := float64((id*137)%360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawRect outlines rect on dst.
func drawRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	for t := 0; t < boxThickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, c)
			dst.Set(x, rect.Max.Y-1-t, c)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, c)
			dst.Set(rect.Max.X-1-t, y, c)
		}
	}
}

// drawLabel renders text on a filled background just above (x, y), clamped
// into the image when the box touches the top edge.
func drawLabel(dst *image.RGBA, x, y int, text string, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil() + 4
	height := face.Metrics().Height.Ceil() + 2

	top := y - height
	if top < dst.Bounds().Min.Y {
		top = y
	}
	bgRect := image.Rect(x, top, x+width, top+height).Intersect(dst.Bounds())
	draw.Draw(dst, bgRect, &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x + 2),
			Y: fixed.I(top + face.Metrics().Ascent.Ceil()),
		},
	}
	d.DrawString(text)
}
