package schema

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FromPrototype derives a field list from a Go value describing a block's data
// payload, typically a struct with json tags. A nil prototype yields no fields.
// Panics raised during reflection are returned as errors.
func FromPrototype(proto any) (fields []Field, err error) {
	if proto == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = fmt.Errorf("introspect %T: %v", proto, r)
		}
	}()

	s := Reflect(proto)
	if s == nil {
		return nil, nil
	}
	return FromJSONSchema(s), nil
}

// Reflect builds an inlined JSON Schema for the prototype. Nested structs are
// expanded in place rather than referenced through definitions.
func Reflect(proto any) *jsonschema.Schema {
	t := reflect.TypeOf(proto)
	if t == nil {
		return nil
	}

	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	return r.ReflectFromType(t)
}

// FromJSONSchema converts the properties of an object schema into fields,
// preserving property order.
func FromJSONSchema(s *jsonschema.Schema) []Field {
	if s == nil || s.Properties == nil {
		return nil
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	fields := make([]Field, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, fieldFromSchema(pair.Key, pair.Value, required[pair.Key]))
	}
	return fields
}

func fieldFromSchema(name string, s *jsonschema.Schema, required bool) Field {
	f := Field{
		Name:     name,
		Kind:     kindOf(s),
		Required: required,
	}
	if s == nil {
		return f
	}
	f.Description = s.Description

	switch {
	case f.Kind.IsObject():
		f.Children = FromJSONSchema(s)
	case f.Kind.IsArray():
		if s.Items != nil && kindOf(s.Items).IsObject() {
			f.Items = FromJSONSchema(s.Items)
		}
	}
	return f
}

func kindOf(s *jsonschema.Schema) Kind {
	if s == nil {
		return KindMixed
	}
	switch s.Type {
	case "string":
		return KindString
	case "integer":
		return KindInteger
	case "number":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "object":
		return KindObject
	case "array":
		return KindArray
	default:
		return KindMixed
	}
}

// ToJSONSchema renders a field list as an object JSON Schema. Unknown
// properties are rejected whenever fields are declared, mirroring validation.
func ToJSONSchema(fields []Field) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	if len(fields) > 0 {
		s.AdditionalProperties = jsonschema.FalseSchema
	}

	for _, f := range fields {
		s.Properties.Set(f.Name, fieldToSchema(f))
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldToSchema(f Field) *jsonschema.Schema {
	switch {
	case f.Kind.IsObject():
		s := ToJSONSchema(f.Children)
		s.Description = f.Description
		return s
	case f.Kind.IsArray():
		s := &jsonschema.Schema{Type: "array", Description: f.Description}
		if len(f.Items) > 0 {
			s.Items = ToJSONSchema(f.Items)
		}
		return s
	case f.Kind == KindMixed:
		return &jsonschema.Schema{Description: f.Description}
	default:
		return &jsonschema.Schema{Type: string(f.Kind), Description: f.Description}
	}
}
