// Package model defines the core value types of the revisioned domain
// model: revisions, continuities, versions, states, attribute snapshots,
// and class specs.
//
// The identity/version split is the central idea. A Continuity is the
// stable identity of an entity (or of a many-to-many link); a Version is
// one immutable snapshot of that continuity's attributes and state, tagged
// with the Revision that produced it. A Revision is an atomic changeset
// spanning any number of continuities, placed in a strict total order by
// its commit-time sequence number.
//
// Attribute snapshots serialize as RFC 8785 canonical JSON (sorted keys,
// NFC strings, no floats) so that equal snapshots are byte-equal in the
// store and in golden files.
package model
