// Package layout describes records whose fields are only known at run time.
// A layout is a YAML document listing the fields of one record; it turns
// into a serializer schema over Record.
package layout

import (
	"fmt"
	"os"

	"github.com/KevinKickass/plcmap/internal/serializer"
	"github.com/KevinKickass/plcmap/internal/types"
	"gopkg.in/yaml.v3"
)

// Record holds field values by name. Missing names are absent values.
type Record map[string]any

type Layout struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Fields      []FieldDef `yaml:"fields"`
}

type FieldDef struct {
	Name        string         `yaml:"name"`
	Address     string         `yaml:"address"`
	Type        types.DataType `yaml:"type"`
	Count       *int           `yaml:"count,omitempty"` // defaults to 1
	Description string         `yaml:"description,omitempty"`
}

// Spec returns the mapping spec of the field.
func (f FieldDef) Spec() serializer.MappingSpec {
	count := 1
	if f.Count != nil {
		count = *f.Count
	}
	return serializer.Spec(f.Address, f.Type, count)
}

// Load reads and validates a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// Parse validates a YAML layout document and decodes it.
func Parse(data []byte) (*Layout, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	if err := validator.ValidateYAML(data); err != nil {
		return nil, err
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layout: %w", err)
	}

	seen := make(map[string]bool, len(l.Fields))
	for _, f := range l.Fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		if err := f.Spec().Validate(); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return &l, nil
}

// Field returns the definition named name.
func (l *Layout) Field(name string) (FieldDef, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Schema builds the mapping table for Record, in file order.
func (l *Layout) Schema() *serializer.Schema[Record] {
	fields := make([]serializer.Field[Record], 0, len(l.Fields))
	for _, f := range l.Fields {
		name := f.Name
		fields = append(fields, serializer.BindFunc(name, f.Spec(),
			func(r *Record) (any, bool) {
				v, ok := (*r)[name]
				return v, ok && v != nil
			},
			func(r *Record, v any) error {
				if *r == nil {
					*r = make(Record)
				}
				(*r)[name] = v
				return nil
			}))
	}
	return serializer.NewSchema(fields...)
}
