package augment

import (
	"image"
	"math/rand"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/dataset"
)

// step is a transform plus the probability of applying it on each pass.
type step struct {
	transform   Transform
	probability float64
}

// Pipeline applies a configured sequence of transforms. Each transform
// fires independently with its configured probability, in a fixed order, so
// one pass can compose several augmentations.
type Pipeline struct {
	steps []step
	rng   *rand.Rand
}

// NewPipeline builds a pipeline from the augmentation settings. Transforms
// with a zero probability (or zero limits) are left out entirely.
func NewPipeline(cfg config.Augmentation, rng *rand.Rand) *Pipeline {
	p := &Pipeline{rng: rng}
	add := func(t Transform, prob float64) {
		if prob > 0 {
			p.steps = append(p.steps, step{transform: t, probability: prob})
		}
	}

	add(horizontalFlip{}, cfg.HorizontalFlip)
	add(verticalFlip{}, cfg.VerticalFlip)
	if cfg.RotationLimit > 0 {
		add(rotate{Limit: cfg.RotationLimit}, 0.5)
	}
	add(brightnessContrast{}, cfg.BrightnessContrast)
	add(gaussianBlur{}, cfg.Blur)
	add(colorJitter{}, cfg.ColorJitter)
	if cfg.ShiftLimit > 0 || cfg.ScaleLimit > 0 {
		add(shiftScale{ShiftLimit: cfg.ShiftLimit, ScaleLimit: cfg.ScaleLimit}, 0.5)
	}
	return p
}

// Len returns the number of active transforms.
func (p *Pipeline) Len() int { return len(p.steps) }

// Apply runs the pipeline once over an image/label pair.
func (p *Pipeline) Apply(img image.Image, objects []dataset.Object) (image.Image, []dataset.Object) {
	outImg := img
	outObjects := objects
	for _, s := range p.steps {
		if p.rng.Float64() < s.probability {
			outImg, outObjects = s.transform.Apply(outImg, outObjects, p.rng)
		}
	}
	return outImg, outObjects
}
