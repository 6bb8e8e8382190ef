package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

func TestIsConflict(t *testing.T) {
	conflict := &ConflictError{Conflicts: []Conflict{
		{ContinuityID: "e-1", BaseSequence: 3, HeadSequence: 5},
	}}

	assert.True(t, IsConflict(conflict))
	assert.True(t, IsConflict(fmt.Errorf("commit: %w", conflict)))
	assert.False(t, IsConflict(errors.New("something else")))
	assert.False(t, IsConflict(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&NotFoundError{ContinuityID: "e-1"}))
	assert.True(t, IsNotFound(fmt.Errorf("read: %w", store.ErrNotFound)))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestNotFoundError_Message(t *testing.T) {
	plain := &NotFoundError{ContinuityID: "e-1", Ref: model.Latest()}
	assert.Contains(t, plain.Error(), "e-1")
	assert.Contains(t, plain.Error(), "not found")

	hidden := &NotFoundError{ContinuityID: "e-1", Ref: model.Latest(), State: model.StateDeleted}
	assert.Contains(t, hidden.Error(), "not visible")
	assert.Contains(t, hidden.Error(), "deleted")
}

func TestWrapStorage(t *testing.T) {
	assert.NoError(t, wrapStorage("commit", nil))

	// Conflicts pass through untouched.
	conflict := &ConflictError{}
	assert.Same(t, conflict, wrapStorage("commit", conflict))

	// Everything else becomes a StorageError that still unwraps.
	cause := errors.New("disk full")
	wrapped := wrapStorage("commit", cause)
	var storageErr *StorageError
	assert.ErrorAs(t, wrapped, &storageErr)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "commit", storageErr.Op)
}
