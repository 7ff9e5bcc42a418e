// Package infer batches detection over images and handles result output.
//
// The forward pass itself lives behind the detect package boundary; this
// package owns input collection, confidence-threshold override handling, and
// saving annotated copies plus a machine-readable result file.
package infer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/bottlesort/bsort/internal/config"
	"github.com/bottlesort/bsort/internal/dataset"
	"github.com/bottlesort/bsort/internal/detect"
	"github.com/bottlesort/bsort/internal/logging"
	"github.com/bottlesort/bsort/internal/render"
)

// PredictDirName is where --save output lands, relative to the base path.
const PredictDirName = "runs/detect/predict"

// ErrNoInput is returned when neither an image nor a directory was given.
var ErrNoInput = errors.New("no input: exactly one of --image or --dir is required")

// ErrBothInputs is returned when an image and a directory were both given.
var ErrBothInputs = errors.New("--image and --dir are mutually exclusive")

// Options carries the inference CLI flags. Model and Conf override the YAML
// configuration when set.
type Options struct {
	Image string
	Dir   string
	Model string
	Conf  float64
	Save  bool
	Show  bool
}

// Validate enforces that exactly one input source was given.
func (o Options) Validate() error {
	switch {
	case o.Image == "" && o.Dir == "":
		return ErrNoInput
	case o.Image != "" && o.Dir != "":
		return ErrBothInputs
	}
	return nil
}

// ImageResult holds the detections for one processed image.
type ImageResult struct {
	Image      string             `json:"image"`
	Detections []detect.Detection `json:"detections"`
}

// Runner executes one inference invocation.
type Runner struct {
	Settings *config.Settings
	Options  Options
}

// Run detects objects on the selected image or directory, logs every
// detection, and honors the save/show flags. Detections below the effective
// confidence threshold never reach the output.
func (r *Runner) Run() ([]ImageResult, error) {
	if err := r.Options.Validate(); err != nil {
		return nil, err
	}
	log := logging.S()
	s := r.Settings

	conf := s.Inference.Conf
	if r.Options.Conf > 0 {
		conf = r.Options.Conf
	}
	modelPath := s.Resolve(s.Inference.Model)
	if r.Options.Model != "" {
		modelPath = r.Options.Model
	}

	paths, err := collectInputs(r.Options)
	if err != nil {
		return nil, err
	}

	detector, err := detect.New(detect.Options{
		ModelPath: modelPath,
		Names:     s.Names,
		Conf:      conf,
		Iou:       s.Inference.Iou,
		InputSize: s.Inference.InputSize,
	})
	if err != nil {
		return nil, err
	}
	defer detector.Close()

	log.Infow("running inference",
		"model", modelPath,
		"images", len(paths),
		"conf", conf)

	outDir := s.Resolve(PredictDirName)
	results := make([]ImageResult, 0, len(paths))
	for _, path := range paths {
		detections, err := detector.Detect(path)
		if err != nil {
			return nil, err
		}
		detections = detect.FilterByConfidence(detections, conf)

		name := filepath.Base(path)
		if len(detections) == 0 {
			log.Infow("no detections", "image", name)
		}
		for _, d := range detections {
			log.Infow("detection", "image", name, "class", d.ClassName, "conf", fmt.Sprintf("%.2f", d.Confidence))
		}
		results = append(results, ImageResult{Image: path, Detections: detections})

		if r.Options.Save || r.Options.Show {
			img, err := dataset.LoadImage(path)
			if err != nil {
				return nil, err
			}
			annotated := filepath.Join(outDir, name)
			if err := render.SaveAnnotated(img, detections, annotated); err != nil {
				return nil, err
			}
			if r.Options.Show {
				openViewer(annotated)
			}
		}
	}

	if r.Options.Save {
		if err := writeResults(filepath.Join(outDir, "predictions.json"), results); err != nil {
			return nil, err
		}
		log.Infow("results saved", "dir", outDir)
	}
	return results, nil
}

// collectInputs resolves the flag inputs into a list of image paths.
func collectInputs(o Options) ([]string, error) {
	if o.Image != "" {
		if _, err := os.Stat(o.Image); err != nil {
			return nil, fmt.Errorf("image not found: %s", o.Image)
		}
		return []string{o.Image}, nil
	}
	if _, err := os.Stat(o.Dir); err != nil {
		return nil, fmt.Errorf("directory not found: %s", o.Dir)
	}
	paths, err := dataset.ListImages(o.Dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", o.Dir)
	}
	return paths, nil
}

func writeResults(path string, results []ImageResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// openViewer asks the desktop environment to display an image. Best effort:
// a headless host just logs the failure.
func openViewer(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		logging.S().Warnw("failed to open viewer", "path", path, "error", err)
	}
}
