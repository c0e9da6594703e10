package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// graphFile is the on-disk layout of a model graph snapshot. Scalar
// attributes live under attrs, element-valued attributes under refs as
// lists of element identifiers.
type graphFile struct {
	Elements []graphElement `yaml:"elements"`
}

type graphElement struct {
	UUID  string              `yaml:"uuid"`
	Type  string              `yaml:"type"`
	Layer string              `yaml:"layer"`
	Name  string              `yaml:"name"`
	Attrs map[string]any      `yaml:"attrs"`
	Refs  map[string][]string `yaml:"refs"`
}

// LoadGraph reads a model graph snapshot from a YAML file. Reference
// attributes naming an unknown element identifier are an error.
func LoadGraph(path string) ([]Element, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model graph: %w", err)
	}
	return ParseGraph(raw)
}

// ParseGraph parses a model graph snapshot from raw YAML.
func ParseGraph(raw []byte) ([]Element, error) {
	var file graphFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing model graph: %w", err)
	}

	objects := make(map[string]*Object, len(file.Elements))
	elements := make([]Element, 0, len(file.Elements))
	for _, entry := range file.Elements {
		if entry.UUID == "" {
			return nil, fmt.Errorf("model element without uuid")
		}
		if _, dup := objects[entry.UUID]; dup {
			return nil, fmt.Errorf("duplicate model element %s", entry.UUID)
		}
		obj := NewObject(entry.UUID, entry.Type, entry.Layer, entry.Name)
		for name, value := range entry.Attrs {
			switch v := value.(type) {
			case string:
				obj.Set(name, OfString(v))
			case bool:
				obj.Set(name, OfBool(v))
			default:
				return nil, fmt.Errorf("element %s: attribute %s has unsupported type %T",
					entry.UUID, name, value)
			}
		}
		objects[entry.UUID] = obj
		elements = append(elements, obj)
	}

	// Second pass, references can point forward.
	for _, entry := range file.Elements {
		obj := objects[entry.UUID]
		for name, uuids := range entry.Refs {
			targets := make([]Element, 0, len(uuids))
			for _, id := range uuids {
				target, ok := objects[id]
				if !ok {
					return nil, fmt.Errorf("element %s: attribute %s references unknown element %s",
						entry.UUID, name, id)
				}
				targets = append(targets, target)
			}
			obj.Set(name, OfList(targets))
		}
	}
	return elements, nil
}
