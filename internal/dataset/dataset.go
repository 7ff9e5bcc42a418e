// Package dataset handles the on-disk layout of labeled image sets and the
// plain-text label format paired with them.
//
// A dataset directory contains one subdirectory per split, each with an
// images/ and a labels/ directory. Label files share the image's base name
// with a .txt extension:
//
//	relabel/
//	  train/
//	    images/cap_001.jpg
//	    labels/cap_001.txt
//	  val/
//	    ...
//
// Existence on disk is the only persistence mechanism; there is no index.
package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Split names a dataset partition.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
)

// ParseSplit validates a split name from user input.
func ParseSplit(s string) (Split, error) {
	switch Split(s) {
	case SplitTrain, SplitVal:
		return Split(s), nil
	default:
		return "", fmt.Errorf("unknown split %q (expected train or val)", s)
	}
}

// ImagesDir returns <root>/<split>/images.
func ImagesDir(root string, split Split) string {
	return filepath.Join(root, string(split), "images")
}

// LabelsDir returns <root>/<split>/labels.
func LabelsDir(root string, split Split) string {
	return filepath.Join(root, string(split), "labels")
}

// LabelPath derives the label file colocated with an image by naming
// convention.
func LabelPath(labelsDir, imagePath string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(labelsDir, stem+".txt")
}

// IsImageFile reports whether a file name has a supported image extension.
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// ListImages returns the sorted image files directly inside dir.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list images in %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// HasImages reports whether dir exists and contains at least one image file.
func HasImages(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && IsImageFile(e.Name()) {
			return true
		}
	}
	return false
}

// LoadImage decodes an image from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
