package model

import (
	"fmt"
	"time"
)

// Revision is one atomic changeset against the domain model. Any number of
// continuities may gain a new Version under a single Revision; either the
// whole set commits durably or none of it does.
//
// Sequence is 0 while the revision is open and is assigned by the store at
// commit time. Committed sequences are strictly increasing and gap-free,
// establishing the total order every as-of read is evaluated against.
// A committed Revision is immutable and is never deleted: history is
// permanent, only the entities inside it can later be marked deleted.
type Revision struct {
	// ID is an opaque identifier, assigned when the session opens.
	ID string

	// Sequence is the commit-time position in the global total order.
	// Zero until committed.
	Sequence int64

	// Author identifies who made the change.
	Author string

	// Timestamp is assigned at commit, not at session open.
	Timestamp time.Time

	// Message is an optional log message.
	Message string
}

// Committed reports whether the revision has been durably committed.
func (r Revision) Committed() bool {
	return r.Sequence > 0
}

// RevisionRef addresses a revision for as-of reads: by sequence, by
// revision id, by timestamp, or the latest committed revision. The zero
// value means latest.
type RevisionRef struct {
	sequence int64
	id       string
	at       time.Time
}

// Latest refers to the store's current maximum committed sequence.
func Latest() RevisionRef {
	return RevisionRef{}
}

// AtSequence refers to the revision with the given sequence number.
// Resolution targets the greatest committed sequence <= seq, so a sequence
// between two commits (or past the end) is valid.
func AtSequence(seq int64) RevisionRef {
	return RevisionRef{sequence: seq}
}

// AtRevision refers to a revision by its id.
func AtRevision(id string) RevisionRef {
	return RevisionRef{id: id}
}

// AtTime refers to the greatest committed revision whose timestamp is not
// after t.
func AtTime(t time.Time) RevisionRef {
	return RevisionRef{at: t}
}

// IsLatest reports whether the ref addresses the latest revision.
func (r RevisionRef) IsLatest() bool {
	return r.sequence == 0 && r.id == "" && r.at.IsZero()
}

// Sequence returns the explicit sequence of the ref, or 0 if the ref is
// addressed another way.
func (r RevisionRef) Sequence() int64 { return r.sequence }

// RevisionID returns the revision id of the ref, if set.
func (r RevisionRef) RevisionID() string { return r.id }

// Time returns the timestamp of the ref, if set.
func (r RevisionRef) Time() time.Time { return r.at }

func (r RevisionRef) String() string {
	switch {
	case r.id != "":
		return fmt.Sprintf("revision %s", r.id)
	case r.sequence > 0:
		return fmt.Sprintf("sequence %d", r.sequence)
	case !r.at.IsZero():
		return fmt.Sprintf("as of %s", r.at.Format(time.RFC3339))
	default:
		return "latest"
	}
}
