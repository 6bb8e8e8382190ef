package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revgraph/revgraph/internal/model"
)

func writeCUE(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "classes.cue", `
class: {
	book: {
		attributes: {
			name:  "string"
			pages: "int"
		}
	}
	review: {
		moderated: true
	}
}
`)

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"book", "review"}, reg.Names())
	assert.True(t, reg.Moderated("review"))
	assert.Equal(t, model.FieldInt, reg.Lookup("book").Fields["pages"])
}

func TestLoadDir_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", `class: book: { attributes: name: "string" }`)
	writeCUE(t, dir, "b.cue", `class: person: {}`)

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"book", "person"}, reg.Names())
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadDir_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "classes.cue")
	require.NoError(t, os.WriteFile(file, []byte(`class: x: {}`), 0o644))

	_, err := LoadDir(file)
	assert.Error(t, err)
}

func TestLoadDir_NoCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "readme.txt", "not cue")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestLoadDir_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "broken.cue", `class: book: { attributes: { name: `)

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestLoadDir_FloatAttribute(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "classes.cue", `class: sensor: { attributes: reading: "float" }`)

	_, err := LoadDir(dir)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Message, "float")
}
