package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ClassNames is the ordered class label list. The YAML side accepts either a
// plain sequence or the detection-framework convention of an integer-keyed
// mapping:
//
//	names: [black, blue, red]
//
//	names:
//	  0: black
//	  1: blue
//	  2: red
//
// Class ids index into the slice; gaps in a sparse mapping become empty
// strings.
type ClassNames []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ClassNames) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	case yaml.MappingNode:
		var m map[int]string
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("names mapping must use integer class ids: %w", err)
		}
		max := -1
		for id := range m {
			if id < 0 {
				return fmt.Errorf("negative class id %d in names", id)
			}
			if id > max {
				max = id
			}
		}
		list := make([]string, max+1)
		for id, name := range m {
			list[id] = name
		}
		*c = list
		return nil
	default:
		return fmt.Errorf("names must be a sequence or an integer-keyed mapping")
	}
}

// Name returns the label for a class id, or "class<N>" for ids outside the
// configured list.
func (c ClassNames) Name(id int) string {
	if id >= 0 && id < len(c) && c[id] != "" {
		return c[id]
	}
	return fmt.Sprintf("class%d", id)
}

// AsMap renders the list in the integer-keyed form expected by the trainer's
// dataset config.
func (c ClassNames) AsMap() map[int]string {
	m := make(map[int]string, len(c))
	for id, name := range c {
		m[id] = name
	}
	return m
}
