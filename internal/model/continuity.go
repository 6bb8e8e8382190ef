package model

import "strings"

// Continuity is the stable identity of a versionable entity, independent
// of any particular snapshot. A continuity is created on first insert and
// is never mutated afterwards; its history lives entirely in its Versions.
// Association continuities carry the pair of endpoint ids they link;
// entity continuities leave Left/Right empty.
type Continuity struct {
	// ID is the surrogate identity key.
	ID string

	// Class names the entity class (or association class) this
	// continuity belongs to. Classes control attribute validation and
	// whether moderation applies.
	Class string

	// Left and Right are set only for association continuities: the ids
	// of the two endpoints the link joins, in canonical order.
	Left  string
	Right string

	// CreatedSequence is the sequence of the revision that first
	// inserted this continuity.
	CreatedSequence int64
}

// IsAssociation reports whether the continuity versions a link rather
// than an entity.
func (c Continuity) IsAssociation() bool {
	return c.Left != ""
}

// CanonicalPair orders an endpoint pair deterministically so an undirected
// link between A and B is the same continuity regardless of argument
// order.
func CanonicalPair(a, b string) (left, right string) {
	if strings.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// Version is one immutable snapshot of a continuity: its attributes and
// state as of the revision that produced it. Versions of one continuity
// are totally ordered by their revision's sequence; a snapshot never
// changes once its revision commits.
type Version struct {
	// ContinuityID identifies the owning continuity.
	ContinuityID string

	// Class mirrors the continuity's class for convenience on reads.
	Class string

	// RevisionID and Sequence identify the revision that produced this
	// version.
	RevisionID string
	Sequence   int64

	// State governs visibility; see State.
	State State

	// Attrs is the attribute snapshot. Nil for association versions,
	// which carry no attributes of their own.
	Attrs Attrs

	// ExpiredSequence is the sequence of the revision that superseded
	// this version, or 0 while it is still the head. Maintained by the
	// store; the snapshot itself is never edited.
	ExpiredSequence int64
}

// Head reports whether this version is the current head of its
// continuity.
func (v Version) Head() bool {
	return v.ExpiredSequence == 0
}
