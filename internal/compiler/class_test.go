package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revgraph/revgraph/internal/model"
)

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileClass(t *testing.T) {
	v := compileString(t, `
class: Book: {
	moderated: false
	attributes: {
		name:  "string"
		pages: "int"
		sold:  "bool"
		tags:  "list"
		meta:  "object"
		extra: "any"
	}
}
`)

	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Book")))
	require.NoError(t, err)

	assert.Equal(t, "Book", spec.Name)
	assert.False(t, spec.Moderated)
	assert.Equal(t, model.FieldString, spec.Fields["name"])
	assert.Equal(t, model.FieldInt, spec.Fields["pages"])
	assert.Equal(t, model.FieldBool, spec.Fields["sold"])
	assert.Equal(t, model.FieldList, spec.Fields["tags"])
	assert.Equal(t, model.FieldObject, spec.Fields["meta"])
	assert.Equal(t, model.FieldAny, spec.Fields["extra"])
}

func TestCompileClass_Defaults(t *testing.T) {
	v := compileString(t, `class: Note: {}`)

	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Note")))
	require.NoError(t, err)

	assert.Equal(t, "Note", spec.Name)
	assert.False(t, spec.Moderated)
	assert.Empty(t, spec.Fields)
}

func TestCompileClass_Moderated(t *testing.T) {
	v := compileString(t, `
class: Review: {
	moderated: true
	attributes: stars: "int"
}
`)

	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Review")))
	require.NoError(t, err)
	assert.True(t, spec.Moderated)
}

func TestCompileClass_FloatForbidden(t *testing.T) {
	v := compileString(t, `
class: Measurement: {
	attributes: reading: "float"
}
`)

	_, err := CompileClass(v.LookupPath(cue.ParsePath("class.Measurement")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "reading", compileErr.Field)
	assert.Contains(t, compileErr.Message, "float")
	assert.Contains(t, compileErr.Message, "use int instead")
}

func TestCompileClass_UnknownType(t *testing.T) {
	v := compileString(t, `
class: Thing: {
	attributes: blob: "binary"
}
`)

	_, err := CompileClass(v.LookupPath(cue.ParsePath("class.Thing")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "blob", compileErr.Field)
}

func TestCompileClass_TypeMustBeString(t *testing.T) {
	v := compileString(t, `
class: Thing: {
	attributes: count: 42
}
`)

	_, err := CompileClass(v.LookupPath(cue.ParsePath("class.Thing")))
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "count", compileErr.Field)
}

func TestCompileClasses(t *testing.T) {
	v := compileString(t, `
class: {
	Book: {
		attributes: name: "string"
	}
	Review: {
		moderated: true
	}
}
`)

	specs, err := CompileClasses(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	byName := map[string]model.ClassSpec{}
	for _, spec := range specs {
		byName[spec.Name] = spec
	}
	assert.Contains(t, byName, "Book")
	assert.True(t, byName["Review"].Moderated)
}

func TestCompileClasses_NoClassStruct(t *testing.T) {
	v := compileString(t, `other: 1`)

	specs, err := CompileClasses(v)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "pages", Message: "bad type"}
	assert.Equal(t, "pages: bad type", err.Error())
}
