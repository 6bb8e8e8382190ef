package model

import "fmt"

// State governs the visibility of a Version and the delete/undelete
// lifecycle. Moderation folds into the same machine rather than a parallel
// approval queue: pending states are the not-yet-approved counterparts of
// the two committed states, so one resolution algorithm covers both.
//
// Transitions (each produces a NEW Version, existing Versions are never
// mutated):
//
//	Active  --delete-->   Deleted      (PendingDeleted under moderation)
//	Deleted --undelete--> Active       (PendingActive under moderation)
//	PendingActive  --approve--> Active
//	PendingDeleted --approve--> Deleted
//	Pending*       --reject-->  copy of last approved Version
//	Active  --purge--> (all history removed, terminal)
type State string

const (
	// StateActive is the ordinary visible state.
	StateActive State = "active"

	// StateDeleted marks the continuity deleted as of this version.
	// Reversible via undelete; history is retained.
	StateDeleted State = "deleted"

	// StatePendingActive is an Active version awaiting moderator approval.
	StatePendingActive State = "pending-active"

	// StatePendingDeleted is a Deleted version awaiting moderator approval.
	StatePendingDeleted State = "pending-deleted"
)

// ParseState validates a stored state string.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateActive, StateDeleted, StatePendingActive, StatePendingDeleted:
		return State(s), nil
	default:
		return "", fmt.Errorf("unknown state %q", s)
	}
}

// Visible reports whether a version in this state satisfies only-visible
// read semantics. Only Active versions are visible; deleted and pending
// versions resolve as not found unless the caller asks for them.
func (s State) Visible() bool {
	return s == StateActive
}

// Pending reports whether the state awaits moderator action.
func (s State) Pending() bool {
	return s == StatePendingActive || s == StatePendingDeleted
}

// Deleted reports whether the state is a deleted variant.
func (s State) Deleted() bool {
	return s == StateDeleted || s == StatePendingDeleted
}

// Approved maps a pending state to its approved counterpart. Approving a
// non-pending state is a caller error.
func (s State) Approved() (State, error) {
	switch s {
	case StatePendingActive:
		return StateActive, nil
	case StatePendingDeleted:
		return StateDeleted, nil
	default:
		return "", fmt.Errorf("state %q is not pending", s)
	}
}

// InitialState returns the state a freshly inserted continuity starts in.
func InitialState(moderated bool) State {
	if moderated {
		return StatePendingActive
	}
	return StateActive
}

// DeleteTarget returns the state a delete transition produces.
func DeleteTarget(moderated bool) State {
	if moderated {
		return StatePendingDeleted
	}
	return StateDeleted
}

// UndeleteTarget returns the state an undelete transition produces.
func UndeleteTarget(moderated bool) State {
	if moderated {
		return StatePendingActive
	}
	return StateActive
}
