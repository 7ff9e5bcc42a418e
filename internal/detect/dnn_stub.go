//go:build !gocv

package detect

import "errors"

// New reports the missing detection backend when the binary was built
// without the gocv build tag. Augmentation and training do not need the
// backend and keep working in such builds.
func New(Options) (Detector, error) {
	return nil, errors.New("detection backend unavailable: rebuild with -tags gocv (requires OpenCV)")
}
