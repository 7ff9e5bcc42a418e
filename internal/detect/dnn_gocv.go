//go:build gocv

package detect

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// dnnDetector delegates detection to OpenCV's DNN module. The network
// output is expected in the single-head layout of recent YOLO exports:
// [1, 4+numClasses, numAnchors] with box centers in input-image scale.
type dnnDetector struct {
	net  gocv.Net
	opts Options
}

// New loads the model weights into an OpenCV DNN network.
func New(opts Options) (Detector, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model not found: %s", opts.ModelPath)
	}
	net := gocv.ReadNet(opts.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", opts.ModelPath)
	}
	return &dnnDetector{net: net, opts: opts}, nil
}

func (d *dnnDetector) Close() error {
	return d.net.Close()
}

func (d *dnnDetector) Detect(imagePath string) ([]Detection, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	if mat.Empty() {
		return nil, fmt.Errorf("failed to read image %s", imagePath)
	}
	defer mat.Close()

	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	dims := prob.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected network output shape %v", dims)
	}
	attrs, anchors := dims[1], dims[2]
	numClasses := attrs - 4
	if numClasses < 1 {
		return nil, fmt.Errorf("network output has no class scores (shape %v)", dims)
	}

	data, err := prob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to access network output: %w", err)
	}
	at := func(attr, i int) float32 { return data[attr*anchors+i] }

	// The blob was resized without preserving aspect ratio, so the two
	// axes scale back independently.
	sx := float64(mat.Cols()) / float64(size)
	sy := float64(mat.Rows()) / float64(size)

	var boxes []image.Rectangle
	var scores []float32
	var classIDs []int
	for i := 0; i < anchors; i++ {
		bestClass := 0
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, i); s > bestScore {
				bestScore = s
				bestClass = c
			}
		}
		if float64(bestScore) < d.opts.Conf {
			continue
		}

		cx := float64(at(0, i))
		cy := float64(at(1, i))
		w := float64(at(2, i))
		h := float64(at(3, i))
		boxes = append(boxes, image.Rect(
			int((cx-w/2)*sx),
			int((cy-h/2)*sy),
			int((cx+w/2)*sx),
			int((cy+h/2)*sy),
		))
		scores = append(scores, bestScore)
		classIDs = append(classIDs, bestClass)
	}
	if len(boxes) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(d.opts.Conf), float32(d.opts.Iou))

	detections := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		box := boxes[idx].Intersect(image.Rect(0, 0, mat.Cols(), mat.Rows()))
		detections = append(detections, Detection{
			Box:        Bounds{X1: box.Min.X, Y1: box.Min.Y, X2: box.Max.X, Y2: box.Max.Y},
			ClassID:    classIDs[idx],
			ClassName:  className(d.opts.Names, classIDs[idx]),
			Confidence: float64(scores[idx]),
		})
	}
	return detections, nil
}

func className(names []string, id int) string {
	if id >= 0 && id < len(names) && names[id] != "" {
		return names[id]
	}
	return fmt.Sprintf("class%d", id)
}
