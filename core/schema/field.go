package schema

import (
	"fmt"
	"sort"
)

// Kind is the value shape of a field.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindGroup   Kind = "group" // alias of object
	KindArray   Kind = "array"
	KindList    Kind = "list" // alias of array
	KindMixed   Kind = "mixed"
)

// IsObject reports whether values of this kind are nested maps.
func (k Kind) IsObject() bool {
	return k == KindObject || k == KindGroup
}

// IsArray reports whether values of this kind are sequences.
func (k Kind) IsArray() bool {
	return k == KindArray || k == KindList
}

// Field describes one editable field of a block's data payload.
type Field struct {
	Name        string  `json:"name" yaml:"name"`
	Kind        Kind    `json:"kind" yaml:"kind"`
	Required    bool    `json:"required" yaml:"required,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []Field `json:"children,omitempty" yaml:"children,omitempty"`
	Items       []Field `json:"items,omitempty" yaml:"items,omitempty"`
}

// HasChildren reports whether the field is an object with declared children.
func (f Field) HasChildren() bool {
	return f.Kind.IsObject() && len(f.Children) > 0
}

// HasItems reports whether the field is an array with a declared element shape.
func (f Field) HasItems() bool {
	return f.Kind.IsArray() && len(f.Items) > 0
}

// Names returns the field names in declaration order.
func Names(fields []Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

// Find returns the field with the given name.
func Find(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CheckUnique verifies that names are unique within every sibling list,
// recursing into children and items.
func CheckUnique(fields []Field) error {
	return checkUnique(fields, "")
}

func checkUnique(fields []Field, path string) error {
	seen := make(map[string]bool, len(fields))
	var dups []string
	for _, f := range fields {
		if seen[f.Name] {
			dups = append(dups, f.Name)
			continue
		}
		seen[f.Name] = true
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return fmt.Errorf("duplicate field names at %q: %v", path, dups)
	}

	for _, f := range fields {
		child := f.Name
		if path != "" {
			child = path + "." + f.Name
		}
		if err := checkUnique(f.Children, child); err != nil {
			return err
		}
		if err := checkUnique(f.Items, child+"[]"); err != nil {
			return err
		}
	}
	return nil
}
