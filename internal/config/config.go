// Package config loads the settings.yaml file that drives every bsort
// command and holds the CLI override logic for training parameters.
//
// Settings are loaded once per invocation and treated as immutable for the
// lifetime of that run. Values absent from the YAML file keep their
// defaults (see Defaults).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings mirrors the settings.yaml schema.
type Settings struct {
	// BasePath is the dataset root; all relative paths below resolve
	// against it.
	BasePath string `yaml:"base_path"`

	// InputDir holds the raw labeled dataset (<split>/images, <split>/labels).
	InputDir string `yaml:"input_dir"`

	// AugmentDir receives augmented artifacts with the same split layout.
	AugmentDir string `yaml:"augment_dir"`

	// ValPath, RawTrainPath and AugmentedTrainPath are the image
	// directories written into the generated dataset config, relative to
	// BasePath.
	ValPath            string `yaml:"val_path"`
	RawTrainPath       string `yaml:"raw_train_path"`
	AugmentedTrainPath string `yaml:"augmented_train_path"`

	// Names are the class labels, indexed by class id.
	Names ClassNames `yaml:"names"`

	Augmentation Augmentation `yaml:"augmentation"`
	Training     Training     `yaml:"training"`
	Inference    Inference    `yaml:"inference"`
	Tracking     Tracking     `yaml:"tracking"`
}

// Augmentation configures the transform pipeline. Probabilities are in
// [0,1]; a zero probability disables the transform.
type Augmentation struct {
	AugPerImage        int     `yaml:"aug_per_image"`
	HorizontalFlip     float64 `yaml:"horizontal_flip"`
	VerticalFlip       float64 `yaml:"vertical_flip"`
	RotationLimit      float64 `yaml:"rotation_limit"`
	BrightnessContrast float64 `yaml:"brightness_contrast"`
	Blur               float64 `yaml:"blur"`
	ColorJitter        float64 `yaml:"color_jitter"`
	ShiftLimit         float64 `yaml:"shift_limit"`
	ScaleLimit         float64 `yaml:"scale_limit"`

	// Seed makes a run reproducible when non-zero.
	Seed int64 `yaml:"seed"`
}

// Training configures the delegated trainer process.
type Training struct {
	Model  string `yaml:"model"`
	Epochs int    `yaml:"epochs"`
	ImgSz  int    `yaml:"imgsz"`
	// Batch <= 0 means the trainer picks a batch size itself.
	Batch   int    `yaml:"batch"`
	Device  string `yaml:"device"`
	Project string `yaml:"project"`
	Name    string `yaml:"name"`

	// Command is the trainer argv prefix, e.g. ["yolo", "detect", "train"].
	// bsort appends key=value arguments to it.
	Command []string `yaml:"command"`
}

// Inference configures the detection backend.
type Inference struct {
	Model     string  `yaml:"model"`
	Conf      float64 `yaml:"conf"`
	Iou       float64 `yaml:"iou"`
	ImageDir  string  `yaml:"image_dir"`
	InputSize int     `yaml:"input_size"`
}

// Tracking configures the experiment tracking client. The API key is never
// stored in YAML; it is read from the BSORT_TRACKING_API_KEY environment
// variable (a .env file is honored).
type Tracking struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Project  string `yaml:"project"`
	Entity   string `yaml:"entity"`
	Name     string `yaml:"name"`
}

// TrackingAPIKeyEnv names the environment variable holding the tracking
// service credential.
const TrackingAPIKeyEnv = "BSORT_TRACKING_API_KEY"

// Defaults returns a Settings pre-filled with the values used when the YAML
// file omits a key.
func Defaults() Settings {
	return Settings{
		BasePath:           ".",
		InputDir:           "relabel",
		AugmentDir:         "relabel_aug",
		ValPath:            "relabel/val/images",
		RawTrainPath:       "relabel/train/images",
		AugmentedTrainPath: "relabel_aug/train/images",
		Augmentation: Augmentation{
			AugPerImage: 5,
		},
		Training: Training{
			Model:  "yolov9t.pt",
			Epochs: 100,
			ImgSz:  640,
			Batch:  -1,
		},
		Inference: Inference{
			Model:     "runs/detect/train/weights/best.pt",
			Conf:      0.25,
			Iou:       0.45,
			ImageDir:  "unseen",
			InputSize: 640,
		},
		Tracking: Tracking{
			Enabled: true,
			Project: "bsort-yolo",
		},
	}
}

// Load reads and validates a settings file. A .env file in the working
// directory is loaded first so tracking credentials can live outside YAML.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &s, nil
}

func (s *Settings) validate() error {
	if s.Augmentation.AugPerImage < 1 {
		return fmt.Errorf("augmentation.aug_per_image must be >= 1, got %d", s.Augmentation.AugPerImage)
	}
	if s.Inference.Conf < 0 || s.Inference.Conf > 1 {
		return fmt.Errorf("inference.conf must be within [0,1], got %g", s.Inference.Conf)
	}
	for name, p := range map[string]float64{
		"horizontal_flip":     s.Augmentation.HorizontalFlip,
		"vertical_flip":       s.Augmentation.VerticalFlip,
		"brightness_contrast": s.Augmentation.BrightnessContrast,
		"blur":                s.Augmentation.Blur,
		"color_jitter":        s.Augmentation.ColorJitter,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("augmentation.%s must be a probability within [0,1], got %g", name, p)
		}
	}
	return nil
}

// Resolve joins a settings-relative path with the base path. Absolute paths
// pass through untouched.
func (s *Settings) Resolve(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.BasePath, rel)
}

// TrainOverrides carries the command-line training flags. Zero values mean
// "not given"; non-zero values win over the YAML configuration.
type TrainOverrides struct {
	Epochs int
	Device string
	Batch  int
	ImgSz  int
}

// Merged applies CLI overrides on top of the YAML training block.
func (t Training) Merged(o TrainOverrides) Training {
	out := t
	if o.Epochs > 0 {
		out.Epochs = o.Epochs
	}
	if o.Device != "" {
		out.Device = o.Device
	}
	if o.Batch != 0 {
		out.Batch = o.Batch
	}
	if o.ImgSz > 0 {
		out.ImgSz = o.ImgSz
	}
	return out
}
