// Package compiler turns CUE class definitions into model.ClassSpec
// values. Classes declare the attribute schema of an entity or
// association class and whether its changes require moderation:
//
//	class: Book: {
//		moderated: false
//		attributes: {
//			name:  "string"
//			title: "string"
//		}
//	}
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/revgraph/revgraph/internal/model"
)

// CompileClass parses one CUE class struct into a ClassSpec.
//
// The CUE value should be the class struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Book: { ... }`)
//	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Book")))
func CompileClass(v cue.Value) (model.ClassSpec, error) {
	if err := v.Err(); err != nil {
		return model.ClassSpec{}, formatCUEError(err)
	}

	spec := model.ClassSpec{}

	// Class name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}
	if spec.Name == "" {
		return model.ClassSpec{}, &CompileError{
			Field:   "class",
			Message: "class name missing",
			Pos:     v.Pos(),
		}
	}

	// moderated (optional, defaults to false)
	modVal := v.LookupPath(cue.ParsePath("moderated"))
	if modVal.Exists() {
		moderated, err := modVal.Bool()
		if err != nil {
			return model.ClassSpec{}, formatCUEError(err)
		}
		spec.Moderated = moderated
	}

	// attributes (optional; an absent or empty map admits anything)
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if attrsVal.Exists() {
		fields, err := parseAttributes(attrsVal)
		if err != nil {
			return model.ClassSpec{}, err
		}
		spec.Fields = fields
	}

	return spec, nil
}

// CompileClasses parses every class under the "class" struct of a CUE
// value into specs.
func CompileClasses(v cue.Value) ([]model.ClassSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	classesVal := v.LookupPath(cue.ParsePath("class"))
	if !classesVal.Exists() {
		return nil, nil
	}

	iter, err := classesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []model.ClassSpec
	for iter.Next() {
		spec, err := CompileClass(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseAttributes parses the attributes struct: field name -> type name.
func parseAttributes(v cue.Value) (map[string]model.FieldType, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	fields := make(map[string]model.FieldType)
	for iter.Next() {
		name := iter.Selector().String()
		typeName, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   name,
				Message: fmt.Sprintf("attribute type must be a string: %v", err),
				Pos:     iter.Value().Pos(),
			}
		}
		ft, err := model.ParseFieldType(typeName)
		if err != nil {
			if typeName == "float" || typeName == "float64" || typeName == "number" {
				return nil, &CompileError{
					Field:   name,
					Message: fmt.Sprintf("float type forbidden for attribute %q, use int instead", name),
					Pos:     iter.Value().Pos(),
				}
			}
			return nil, &CompileError{
				Field:   name,
				Message: err.Error(),
				Pos:     iter.Value().Pos(),
			}
		}
		fields[name] = ft
	}
	return fields, nil
}

// CompileError reports a class definition problem with CUE position info
// when available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts the first positioned error from a CUE error
// list.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
