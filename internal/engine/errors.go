package engine

import (
	"errors"
	"fmt"

	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

// ConflictError is the commit-time optimistic-concurrency failure,
// produced inside the storage collaborator's commit transaction and
// surfaced unchanged. Recoverable: re-stage against the fresh head and
// retry, or give up.
type ConflictError = store.ConflictError

// Conflict identifies one continuity whose head moved under the session.
type Conflict = store.Conflict

// NotFoundError reports that a continuity has no applicable version at
// the requested revision, or that the applicable version is not visible
// under only-visible read semantics.
type NotFoundError struct {
	// ContinuityID identifies the continuity looked up.
	ContinuityID string

	// Ref is the revision reference the read was evaluated against.
	Ref model.RevisionRef

	// State is the state of the version that was found but hidden, or
	// empty if no version existed at all.
	State model.State
}

func (e *NotFoundError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("continuity %s at %s: not visible (state %s)", e.ContinuityID, e.Ref, e.State)
	}
	return fmt.Sprintf("continuity %s at %s: not found", e.ContinuityID, e.Ref)
}

// SessionError reports misuse of the session lifecycle: staging after
// commit, committing twice, operating on a rolled-back session. A
// programming error, never retried.
type SessionError struct {
	Op     string
	Reason string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s", e.Op, e.Reason)
}

// StateError reports an illegal state machine transition, such as
// deleting an already deleted continuity or approving a non-pending one.
type StateError struct {
	ContinuityID string
	From         model.State
	Op           string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s continuity %s in state %s", e.Op, e.ContinuityID, e.From)
}

// IrreversibleOperationError guards purge: the caller must pass an
// explicit confirmation before history is destroyed.
type IrreversibleOperationError struct {
	Op           string
	ContinuityID string
}

func (e *IrreversibleOperationError) Error() string {
	return fmt.Sprintf("%s of continuity %s is irreversible and requires explicit confirmation", e.Op, e.ContinuityID)
}

// StorageError wraps a failure of the storage collaborator. The engine
// guarantees the visible state is unchanged when a commit surfaces one:
// either the collaborator's transaction succeeded wholly or nothing was
// written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is a commit conflict.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a resolution miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, store.ErrNotFound)
}

// wrapStorage classifies a storage collaborator failure: conflicts pass
// through untouched, everything else becomes a StorageError.
func wrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce
	}
	return &StorageError{Op: op, Err: err}
}
