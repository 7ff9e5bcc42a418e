// Package detect defines the detection result model and the boundary to the
// external object-detection framework.
//
// The actual forward pass, output decoding and non-max suppression are
// delegated to OpenCV's DNN module through gocv; builds without the gocv
// build tag get a stub backend that reports the missing capability instead.
package detect

import "fmt"

// Bounds is a detection bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds: (X1, Y1) is the
// top-left corner, (X2, Y2) the bottom-right.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width returns the horizontal extent in pixels.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent in pixels.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Detection is one detected object.
type Detection struct {
	// Box locates the object in the source image.
	Box Bounds `json:"box"`

	// ClassID is the model's class index.
	ClassID int `json:"class_id"`

	// ClassName is the configured label for ClassID.
	ClassName string `json:"class_name"`

	// Confidence is the detection score in [0,1].
	Confidence float64 `json:"confidence"`
}

func (d Detection) String() string {
	return fmt.Sprintf("%s: %.2f", d.ClassName, d.Confidence)
}

// Options configures a detector backend.
type Options struct {
	// ModelPath is the trained weights file.
	ModelPath string

	// Names maps class ids to labels.
	Names []string

	// Conf is the minimum confidence for a detection to be reported.
	Conf float64

	// Iou is the overlap threshold handed to non-max suppression.
	Iou float64

	// InputSize is the square network input edge in pixels.
	InputSize int
}

// Detector runs object detection on image files.
type Detector interface {
	// Detect loads an image from disk and returns the detections at or
	// above the configured confidence threshold.
	Detect(imagePath string) ([]Detection, error)

	// Close releases backend resources.
	Close() error
}

// FilterByConfidence returns the detections scoring at or above threshold,
// preserving order.
func FilterByConfidence(detections []Detection, threshold float64) []Detection {
	out := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= threshold {
			out = append(out, d)
		}
	}
	return out
}
