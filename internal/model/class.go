package model

import (
	"fmt"
	"sort"
)

// FieldType constrains the value type of a class attribute.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldBool   FieldType = "bool"
	FieldList   FieldType = "list"
	FieldObject FieldType = "object"
	FieldAny    FieldType = "any"
)

// ParseFieldType validates a field type name.
func ParseFieldType(s string) (FieldType, error) {
	switch FieldType(s) {
	case FieldString, FieldInt, FieldBool, FieldList, FieldObject, FieldAny:
		return FieldType(s), nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}

// ClassSpec describes one entity or association class: which attributes
// its versions may carry and whether changes require moderator approval.
type ClassSpec struct {
	// Name is the class name, unique within a registry.
	Name string

	// Moderated routes create/update/delete transitions through the
	// pending states until a moderator approves or rejects them.
	Moderated bool

	// Fields maps attribute names to their allowed types. An empty map
	// admits any attributes.
	Fields map[string]FieldType
}

// Validate checks an attribute snapshot against the class spec.
func (c ClassSpec) Validate(attrs Attrs) error {
	if len(c.Fields) == 0 {
		return nil
	}
	for name, val := range attrs {
		ft, ok := c.Fields[name]
		if !ok {
			return fmt.Errorf("class %s: unknown attribute %q", c.Name, name)
		}
		if err := checkFieldType(ft, val); err != nil {
			return fmt.Errorf("class %s, attribute %q: %w", c.Name, name, err)
		}
	}
	return nil
}

func checkFieldType(ft FieldType, v Value) error {
	if _, isNull := v.(Null); isNull || ft == FieldAny {
		return nil
	}
	switch ft {
	case FieldString:
		if _, ok := v.(String); !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	case FieldInt:
		if _, ok := v.(Int); !ok {
			return fmt.Errorf("expected int, got %T", v)
		}
	case FieldBool:
		if _, ok := v.(Bool); !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case FieldList:
		if _, ok := v.(List); !ok {
			return fmt.Errorf("expected list, got %T", v)
		}
	case FieldObject:
		if _, ok := v.(Attrs); !ok {
			return fmt.Errorf("expected object, got %T", v)
		}
	}
	return nil
}

// Registry holds the class specs an engine validates against. A nil
// Registry admits every class with no validation, which keeps small
// programs and tests lightweight.
type Registry struct {
	classes map[string]ClassSpec
}

// NewRegistry builds a registry from class specs. Duplicate class names
// are an error.
func NewRegistry(specs ...ClassSpec) (*Registry, error) {
	r := &Registry{classes: make(map[string]ClassSpec, len(specs))}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("class spec with empty name")
		}
		if _, dup := r.classes[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate class %q", spec.Name)
		}
		r.classes[spec.Name] = spec
	}
	return r, nil
}

// Lookup returns the spec for a class. Unregistered classes get a
// permissive default spec.
func (r *Registry) Lookup(class string) ClassSpec {
	if r == nil {
		return ClassSpec{Name: class}
	}
	if spec, ok := r.classes[class]; ok {
		return spec
	}
	return ClassSpec{Name: class}
}

// Moderated reports whether the class routes changes through moderation.
func (r *Registry) Moderated(class string) bool {
	return r.Lookup(class).Moderated
}

// Names returns the registered class names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
