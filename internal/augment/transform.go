// Package augment generates modified image/label pairs to enlarge a
// training dataset.
//
// Transforms operate on an image together with its normalized bounding
// boxes and must keep the two consistent: geometric transforms remap every
// box through the same mapping as the pixels, photometric transforms leave
// boxes untouched. Boxes pushed outside the frame are clipped to it and
// dropped when nothing visible remains.
//
// All randomness flows through a single *rand.Rand, so a pipeline seeded
// with a fixed value reproduces its output exactly.
package augment

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/bottlesort/bsort/internal/dataset"
)

// Transform applies one augmentation step to an image and its boxes.
type Transform interface {
	// Name identifies the transform in logs.
	Name() string

	// Apply returns the transformed image and the remapped boxes. It must
	// not mutate its inputs.
	Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object)
}

// clipBox clips a box to the unit square. The second return value is false
// when the clipped box has no area left.
func clipBox(b dataset.Box) (dataset.Box, bool) {
	x1 := clamp01(b.XC - b.W/2)
	y1 := clamp01(b.YC - b.H/2)
	x2 := clamp01(b.XC + b.W/2)
	y2 := clamp01(b.YC + b.H/2)
	if x2-x1 <= 1e-6 || y2-y1 <= 1e-6 {
		return dataset.Box{}, false
	}
	return dataset.Box{
		XC: (x1 + x2) / 2,
		YC: (y1 + y2) / 2,
		W:  x2 - x1,
		H:  y2 - y1,
	}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clipObjects clips every box, dropping objects that fell outside the frame.
func clipObjects(objects []dataset.Object) []dataset.Object {
	out := make([]dataset.Object, 0, len(objects))
	for _, obj := range objects {
		if box, ok := clipBox(obj.Box); ok {
			out = append(out, dataset.Object{Class: obj.Class, Box: box})
		}
	}
	return out
}

// horizontalFlip mirrors the image and box centers across the vertical axis.
type horizontalFlip struct{}

func (horizontalFlip) Name() string { return "horizontal_flip" }

func (horizontalFlip) Apply(img image.Image, objects []dataset.Object, _ *rand.Rand) (image.Image, []dataset.Object) {
	flipped := imaging.FlipH(img)
	out := make([]dataset.Object, len(objects))
	for i, obj := range objects {
		obj.Box.XC = 1 - obj.Box.XC
		out[i] = obj
	}
	return flipped, out
}

// verticalFlip mirrors the image and box centers across the horizontal axis.
type verticalFlip struct{}

func (verticalFlip) Name() string { return "vertical_flip" }

func (verticalFlip) Apply(img image.Image, objects []dataset.Object, _ *rand.Rand) (image.Image, []dataset.Object) {
	flipped := imaging.FlipV(img)
	out := make([]dataset.Object, len(objects))
	for i, obj := range objects {
		obj.Box.YC = 1 - obj.Box.YC
		out[i] = obj
	}
	return flipped, out
}

// rotate turns the image by a random angle within ±Limit degrees, expanding
// the canvas to fit. Boxes are remapped by rotating their corners and taking
// the axis-aligned hull, which grows boxes slightly at oblique angles.
type rotate struct {
	Limit float64
}

func (rotate) Name() string { return "rotate" }

func (r rotate) Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object) {
	angle := (rng.Float64()*2 - 1) * r.Limit
	rotated := imaging.Rotate(img, angle, color.Black)

	theta := angle * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	newW := math.Abs(w*cos) + math.Abs(h*sin)
	newH := math.Abs(w*sin) + math.Abs(h*cos)

	// Counter-clockwise rotation about the image center in a y-down
	// coordinate system.
	mapPoint := func(x, y float64) (float64, float64) {
		dx := x - w/2
		dy := y - h/2
		return dx*cos + dy*sin + newW/2,
			-dx*sin + dy*cos + newH/2
	}

	out := make([]dataset.Object, 0, len(objects))
	for _, obj := range objects {
		x1 := (obj.Box.XC - obj.Box.W/2) * w
		y1 := (obj.Box.YC - obj.Box.H/2) * h
		x2 := (obj.Box.XC + obj.Box.W/2) * w
		y2 := (obj.Box.YC + obj.Box.H/2) * h

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, c := range [4][2]float64{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}} {
			px, py := mapPoint(c[0], c[1])
			minX = math.Min(minX, px)
			minY = math.Min(minY, py)
			maxX = math.Max(maxX, px)
			maxY = math.Max(maxY, py)
		}

		box, ok := clipBox(dataset.Box{
			XC: (minX + maxX) / 2 / newW,
			YC: (minY + maxY) / 2 / newH,
			W:  (maxX - minX) / newW,
			H:  (maxY - minY) / newH,
		})
		if ok {
			out = append(out, dataset.Object{Class: obj.Class, Box: box})
		}
	}
	return rotated, out
}

// brightnessContrast nudges brightness and contrast by up to ±20% each.
type brightnessContrast struct{}

func (brightnessContrast) Name() string { return "brightness_contrast" }

func (brightnessContrast) Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object) {
	b := (rng.Float64()*2 - 1) * 0.2
	c := (rng.Float64()*2 - 1) * 0.2
	return adjust.Contrast(adjust.Brightness(img, b), c), objects
}

// gaussianBlur softens the image with a small random radius.
type gaussianBlur struct{}

func (gaussianBlur) Name() string { return "blur" }

func (gaussianBlur) Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object) {
	radius := 0.5 + rng.Float64()*1.0
	return blur.Gaussian(img, radius), objects
}

// colorJitter shifts hue and scales saturation and lightness in HSL space.
type colorJitter struct{}

func (colorJitter) Name() string { return "color_jitter" }

func (colorJitter) Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object) {
	hueShift := (rng.Float64()*2 - 1) * 15 // degrees
	satScale := 1 + (rng.Float64()*2-1)*0.2
	lightScale := 1 + (rng.Float64()*2-1)*0.1

	jittered := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		cf := colorful.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
		}
		h, s, l := cf.Hsl()
		h = math.Mod(h+hueShift+360, 360)
		s = clamp01(s * satScale)
		l = clamp01(l * lightScale)
		r8, g8, b8 := colorful.Hsl(h, s, l).Clamped().RGB255()
		return color.NRGBA{R: r8, G: g8, B: b8, A: c.A}
	})
	return jittered, objects
}

// shiftScale crops a randomly shifted and scaled window and resizes it back
// to the source dimensions. Boxes are remapped into window coordinates;
// boxes left partially outside are clipped, fully outside ones dropped.
type shiftScale struct {
	ShiftLimit float64
	ScaleLimit float64
}

func (shiftScale) Name() string { return "shift_scale" }

func (t shiftScale) Apply(img image.Image, objects []dataset.Object, rng *rand.Rand) (image.Image, []dataset.Object) {
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())

	scale := 1 + (rng.Float64()*2-1)*t.ScaleLimit
	dx := (rng.Float64()*2 - 1) * t.ShiftLimit * w
	dy := (rng.Float64()*2 - 1) * t.ShiftLimit * h

	winW := w / scale
	winH := h / scale
	x0 := clampRange(w/2+dx-winW/2, 0, w-winW)
	y0 := clampRange(h/2+dy-winH/2, 0, h-winH)
	if winW > w {
		winW, x0 = w, 0
	}
	if winH > h {
		winH, y0 = h, 0
	}

	window := image.Rect(int(x0), int(y0), int(x0+winW), int(y0+winH))
	cropped := imaging.Crop(img, window)
	resized := imaging.Resize(cropped, img.Bounds().Dx(), img.Bounds().Dy(), imaging.Lanczos)

	out := make([]dataset.Object, 0, len(objects))
	for _, obj := range objects {
		box, ok := clipBox(dataset.Box{
			XC: (obj.Box.XC*w - x0) / winW,
			YC: (obj.Box.YC*h - y0) / winH,
			W:  obj.Box.W * w / winW,
			H:  obj.Box.H * h / winH,
		})
		if ok {
			out = append(out, dataset.Object{Class: obj.Class, Box: box})
		}
	}
	return resized, out
}

func clampRange(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
