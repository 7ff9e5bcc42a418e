package augment

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/dataset"
)

// makeInputSplit creates a raw train split with n labeled images under
// root/relabel and returns the configured settings.
func makeInputSplit(t *testing.T, n int) *config.Settings {
	t.Helper()
	root := t.TempDir()
	imgDir := filepath.Join(root, "relabel", "train", "images")
	lblDir := filepath.Join(root, "relabel", "train", "labels")
	for _, dir := range []string{imgDir, lblDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("cap_%03d", i)
		f, err := os.Create(filepath.Join(imgDir, name+".jpg"))
		if err != nil {
			t.Fatalf("failed to create image: %v", err)
		}
		if err := jpeg.Encode(f, createPatternImage(64, 64), nil); err != nil {
			t.Fatalf("failed to encode image: %v", err)
		}
		f.Close()

		objects := []dataset.Object{
			{Class: i % 2, Box: dataset.Box{XC: 0.5, YC: 0.5, W: 0.4, H: 0.4}},
		}
		if err := dataset.WriteLabels(filepath.Join(lblDir, name+".txt"), objects); err != nil {
			t.Fatalf("failed to write labels: %v", err)
		}
	}

	s := config.Defaults()
	s.BasePath = root
	s.Augmentation.AugPerImage = 2
	s.Augmentation.HorizontalFlip = 0.5
	s.Augmentation.Seed = 42
	return &s
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	return len(entries)
}

func TestRunner_WritesArtifacts(t *testing.T) {
	s := makeInputSplit(t, 3)
	runner := &Runner{Settings: s, Split: dataset.SplitTrain}

	result, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Skipped {
		t.Fatal("first run must not skip")
	}
	if result.Sources != 3 || result.Written != 6 {
		t.Errorf("result: got %+v, want 3 sources / 6 written", result)
	}

	outImg := filepath.Join(s.BasePath, "relabel_aug", "train", "images")
	outLbl := filepath.Join(s.BasePath, "relabel_aug", "train", "labels")
	if got := countFiles(t, outImg); got != 6 {
		t.Errorf("augmented images: got %d, want 6", got)
	}
	if got := countFiles(t, outLbl); got != 6 {
		t.Errorf("augmented labels: got %d, want 6", got)
	}

	// Every written label parses and stays normalized.
	labels, err := os.ReadDir(outLbl)
	if err != nil {
		t.Fatalf("failed to list labels: %v", err)
	}
	for _, e := range labels {
		objects, err := dataset.ReadLabels(filepath.Join(outLbl, e.Name()))
		if err != nil {
			t.Fatalf("label %s does not parse: %v", e.Name(), err)
		}
		for _, obj := range objects {
			b := obj.Box
			if b.XC-b.W/2 < -1e-6 || b.XC+b.W/2 > 1+1e-6 || b.YC-b.H/2 < -1e-6 || b.YC+b.H/2 > 1+1e-6 {
				t.Errorf("%s: box outside unit square: %+v", e.Name(), b)
			}
		}
	}
}

func TestRunner_SkipsWhenOutputsExist(t *testing.T) {
	s := makeInputSplit(t, 1)
	outImg := filepath.Join(s.BasePath, "relabel_aug", "train", "images")
	if err := os.MkdirAll(outImg, 0o755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	sentinel := filepath.Join(outImg, "existing_aug0.jpg")
	if err := os.WriteFile(sentinel, []byte("sentinel"), 0o644); err != nil {
		t.Fatalf("failed to write sentinel: %v", err)
	}

	runner := &Runner{Settings: s, Split: dataset.SplitTrain}
	result, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Skipped {
		t.Fatal("run with existing outputs and no force must skip")
	}

	// Filesystem unchanged: the sentinel survived and nothing was added.
	data, err := os.ReadFile(sentinel)
	if err != nil || string(data) != "sentinel" {
		t.Errorf("sentinel modified: %q, %v", data, err)
	}
	if got := countFiles(t, outImg); got != 1 {
		t.Errorf("output dir changed: %d files", got)
	}
}

func TestRunner_ForceOverwrites(t *testing.T) {
	s := makeInputSplit(t, 1)
	outImg := filepath.Join(s.BasePath, "relabel_aug", "train", "images")
	if err := os.MkdirAll(outImg, 0o755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	sentinel := filepath.Join(outImg, "stale_aug0.jpg")
	if err := os.WriteFile(sentinel, []byte("stale"), 0o644); err != nil {
		t.Fatalf("failed to write sentinel: %v", err)
	}

	runner := &Runner{Settings: s, Split: dataset.SplitTrain, Force: true}
	result, err := runner.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Skipped || result.Written != 2 {
		t.Errorf("forced run: got %+v, want 2 written", result)
	}
	if _, err := os.Stat(sentinel); !os.IsNotExist(err) {
		t.Error("force must remove stale artifacts")
	}
	if got := countFiles(t, outImg); got != 2 {
		t.Errorf("augmented images: got %d, want 2", got)
	}
}

func TestRunner_NoImages(t *testing.T) {
	root := t.TempDir()
	s := config.Defaults()
	s.BasePath = root
	if err := os.MkdirAll(filepath.Join(root, "relabel", "train", "images"), 0o755); err != nil {
		t.Fatalf("failed to create input dir: %v", err)
	}

	runner := &Runner{Settings: &s, Split: dataset.SplitTrain}
	if _, err := runner.Run(); err == nil {
		t.Error("Run should fail when the split has no images")
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	cfg := config.Augmentation{
		AugPerImage:        1,
		HorizontalFlip:     0.5,
		VerticalFlip:       0.5,
		RotationLimit:      15,
		BrightnessContrast: 0.5,
		Blur:               0.3,
		ColorJitter:        0.3,
		ShiftLimit:         0.1,
		ScaleLimit:         0.1,
	}
	img := createPatternImage(48, 48)
	objects := []dataset.Object{
		{Class: 0, Box: dataset.Box{XC: 0.4, YC: 0.6, W: 0.3, H: 0.2}},
	}

	run := func(seed int64) []dataset.Object {
		p := NewPipeline(cfg, newSeededRand(seed))
		var out []dataset.Object
		for i := 0; i < 5; i++ {
			_, out = p.Apply(img, objects)
		}
		return out
	}

	a := run(42)
	b := run(42)
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("object %d differs between seeded runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPipeline_EmptyWhenDisabled(t *testing.T) {
	p := NewPipeline(config.Augmentation{AugPerImage: 1}, newSeededRand(1))
	if p.Len() != 0 {
		t.Fatalf("transforms: got %d, want 0", p.Len())
	}

	img := createPatternImage(10, 10)
	objects := []dataset.Object{{Class: 0, Box: dataset.Box{XC: 0.5, YC: 0.5, W: 0.2, H: 0.2}}}
	outImg, outObjects := p.Apply(img, objects)
	if outImg != img || len(outObjects) != 1 || outObjects[0] != objects[0] {
		t.Error("empty pipeline must pass inputs through unchanged")
	}
}
