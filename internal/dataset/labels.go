package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Box is a normalized bounding box: center coordinates plus width and
// height, all in [0,1] relative to the image dimensions.
type Box struct {
	XC float64 `json:"xc"`
	YC float64 `json:"yc"`
	W  float64 `json:"w"`
	H  float64 `json:"h"`
}

// Object pairs a class id with its bounding box.
type Object struct {
	Class int `json:"class"`
	Box   Box `json:"box"`
}

// ReadLabels parses a label file: one object per line in the form
//
//	<class> <xc> <yc> <w> <h>
//
// A missing file reads as an empty object list, matching an image with no
// annotations.
func ReadLabels(path string) ([]Object, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer f.Close()

	var objects []Object
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, fmt.Errorf("%s:%d: expected 5 fields, got %d", path, lineNo, len(fields))
		}
		cls, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid class id %q", path, lineNo, fields[0])
		}
		var coords [4]float64
		for i, fv := range fields[1:] {
			coords[i], err = strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid coordinate %q", path, lineNo, fv)
			}
		}
		objects = append(objects, Object{
			Class: cls,
			Box:   Box{XC: coords[0], YC: coords[1], W: coords[2], H: coords[3]},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels %s: %w", path, err)
	}
	return objects, nil
}

// WriteLabels writes objects in the label format with 6-decimal coordinates.
// An empty object list produces an empty file.
func WriteLabels(path string, objects []Object) error {
	var b strings.Builder
	for _, obj := range objects {
		fmt.Fprintf(&b, "%d %.6f %.6f %.6f %.6f\n",
			obj.Class, obj.Box.XC, obj.Box.YC, obj.Box.W, obj.Box.H)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	return nil
}
