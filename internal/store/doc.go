// Package store provides SQLite-backed durable storage for revisioned
// domain model histories.
//
// The store is the storage collaborator the engine commits through. It
// holds three tables:
//   - Revisions: committed changesets with a gap-free sequence number
//   - Continuities: stable identities of entities and associations
//   - Versions: immutable attribute snapshots, one per
//     (continuity, revision) pair
//
// # Critical Patterns
//
// CP-1: Atomic Commit
//   - One revision and all of its versions are written in a single
//     transaction, including the optimistic conflict check and the
//     sequence allocation. Either everything becomes visible or nothing.
//
// CP-2: Logical Identity and Time
//   - All as-of resolution uses sequence INTEGER (logical clock), never
//     timestamps. Timestamps are metadata on revisions.
//
// CP-3: Deterministic Query Results
//   - Ordered reads use ORDER BY sequence ASC, rowid ASC; as-of reads
//     take the greatest sequence <= target with rowid DESC as the
//     last-writer tie-break.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: versions cascade when a continuity is purged
//
// Attribute snapshots are stored as RFC 8785 canonical JSON produced by
// model.MarshalCanonical.
package store
