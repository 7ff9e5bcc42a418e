package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// datasetConfig is the YAML document handed to the delegated trainer.
type datasetConfig struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

// DatasetConfigName is the file written next to the dataset by
// WriteDatasetConfig.
const DatasetConfigName = "config_dynamic.yaml"

// UseAugmentedTrain reports whether augmented training images exist on disk.
// The augmented set is preferred whenever it is non-empty.
func (s *Settings) UseAugmentedTrain() bool {
	entries, err := os.ReadDir(s.Resolve(s.AugmentedTrainPath))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true
		}
	}
	return false
}

// WriteDatasetConfig generates the trainer's dataset config under BasePath,
// pointing train at the augmented images when they exist and at the raw set
// otherwise. It returns the path of the written file and whether the
// augmented set was selected.
func (s *Settings) WriteDatasetConfig() (path string, augmented bool, err error) {
	augmented = s.UseAugmentedTrain()
	train := s.RawTrainPath
	if augmented {
		train = s.AugmentedTrainPath
	}

	doc := datasetConfig{
		Path:  s.BasePath,
		Train: train,
		Val:   s.ValPath,
		Names: s.Names.AsMap(),
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal dataset config: %w", err)
	}

	path = filepath.Join(s.BasePath, DatasetConfigName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write dataset config: %w", err)
	}
	return path, augmented, nil
}
