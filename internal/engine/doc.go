// Package engine implements the revisioning engine: sessions, the state
// machine, and as-of resolution.
//
// ARCHITECTURE:
//
// Unit-of-Work Sessions:
// A Session binds an open revision to a unit of work. Mutations stage
// in-memory pending versions, private to the session and invisible to
// every reader; Commit hands the whole set to the storage collaborator,
// which re-checks optimistic base sequences and writes revision plus
// versions in one transaction. There is no ambient "current revision"
// state anywhere; the session value is threaded explicitly through every
// mutating call.
//
// Concurrency model:
// Multiple independent sessions may run against the same store. They
// coordinate only at commit time: each session records, per continuity,
// the head sequence it observed when staging ("base sequence"), and the
// commit aborts atomically with a ConflictError when any head has
// advanced. Readers never block writers and never see partial commits.
// Retry on conflict is the caller's choice, never automatic.
//
// Resolution:
// The Resolver maps (continuity, revision ref) to the applicable version:
// the one with the greatest sequence not after the target. Visible reads
// return only Active versions; deleted and pending versions surface as
// NotFoundError unless the caller resolves including deleted. Traverse
// evaluates every association edge against one fixed sequence, so a
// whole-graph snapshot is consistent even while new revisions commit.
//
// A single Session is NOT safe for concurrent use; open one session per
// goroutine or unit of work.
package engine
