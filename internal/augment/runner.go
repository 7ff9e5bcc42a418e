package augment

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/dataset"
	"github.com/bottlesort/bsort/internal/logging"
)

// Result summarizes an augmentation run.
type Result struct {
	// Skipped is true when existing outputs were left untouched.
	Skipped bool `json:"skipped"`

	// Sources is the number of input images processed.
	Sources int `json:"sources"`

	// Written is the number of augmented image/label pairs written.
	Written int `json:"written"`
}

// Runner performs a whole augmentation pass over one dataset split.
type Runner struct {
	Settings *config.Settings
	Split    dataset.Split

	// Force regenerates outputs even when they already exist.
	Force bool
}

// Run augments every labeled image of the split, writing n copies per source
// as <stem>_aug<i>.jpg with matching label files.
//
// When output images already exist and Force is unset the run is a no-op:
// nothing on disk is touched. With Force, existing augmented artifacts are
// removed first.
func (r *Runner) Run() (*Result, error) {
	s := r.Settings
	log := logging.S()

	inputRoot := s.Resolve(s.InputDir)
	outputRoot := s.Resolve(s.AugmentDir)

	imgDir := dataset.ImagesDir(inputRoot, r.Split)
	lblDir := dataset.LabelsDir(inputRoot, r.Split)
	outImgDir := dataset.ImagesDir(outputRoot, r.Split)
	outLblDir := dataset.LabelsDir(outputRoot, r.Split)

	if dataset.HasImages(outImgDir) {
		if !r.Force {
			log.Infow("augmented artifacts already exist, skipping (use --force to re-augment)",
				"dir", outImgDir)
			return &Result{Skipped: true}, nil
		}
		if err := clearDir(outImgDir); err != nil {
			return nil, err
		}
		if err := clearDir(outLblDir); err != nil {
			return nil, err
		}
		log.Infow("removed existing augmented artifacts", "dir", outputRoot)
	}

	for _, dir := range []string{outImgDir, outLblDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	images, err := dataset.ListImages(imgDir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images found in %s", imgDir)
	}

	seed := s.Augmentation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	pipeline := NewPipeline(s.Augmentation, rng)
	n := s.Augmentation.AugPerImage

	log.Infow("augmenting split",
		"split", r.Split,
		"images", len(images),
		"per_image", n,
		"transforms", pipeline.Len())

	result := &Result{}
	for _, imgPath := range images {
		img, err := dataset.LoadImage(imgPath)
		if err != nil {
			log.Warnw("skipping unreadable image", "path", imgPath, "error", err)
			continue
		}
		objects, err := dataset.ReadLabels(dataset.LabelPath(lblDir, imgPath))
		if err != nil {
			return nil, err
		}
		result.Sources++

		base := filepath.Base(imgPath)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for i := 0; i < n; i++ {
			augImg, augObjects := pipeline.Apply(img, objects)

			outName := fmt.Sprintf("%s_aug%d.jpg", stem, i)
			if err := imaging.Save(augImg, filepath.Join(outImgDir, outName), imaging.JPEGQuality(95)); err != nil {
				return nil, fmt.Errorf("failed to save %s: %w", outName, err)
			}
			lblName := fmt.Sprintf("%s_aug%d.txt", stem, i)
			if err := dataset.WriteLabels(filepath.Join(outLblDir, lblName), augObjects); err != nil {
				return nil, err
			}
			result.Written++
		}
	}

	log.Infow("augmentation completed",
		"sources", result.Sources,
		"written", result.Written,
		"output", filepath.Join(outputRoot, string(r.Split)))
	return result, nil
}

// clearDir removes the regular files directly inside dir, ignoring a dir
// that does not exist.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
