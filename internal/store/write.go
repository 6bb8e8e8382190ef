package store

import (
	"context"
	"fmt"

	"github.com/revgraph/revgraph/internal/model"
)

// StagedVersion is one pending version handed to CommitRevision.
type StagedVersion struct {
	// ContinuityID identifies the continuity gaining a new version.
	ContinuityID string

	// Class, Left, Right describe the continuity row when New is true.
	// Left and Right are empty for entity continuities.
	Class string
	Left  string
	Right string

	// New marks a continuity created by this commit; the continuity row
	// is inserted alongside the version.
	New bool

	// State of the new version.
	State model.State

	// Attrs snapshot of the new version. Nil for association versions.
	Attrs model.Attrs

	// BaseSequence is the head sequence the session observed when it
	// first read or staged this continuity. The commit aborts with a
	// ConflictError if the head has advanced past it. Ignored when New.
	BaseSequence int64
}

// CommitRequest bundles an open revision and its staged versions.
type CommitRequest struct {
	Revision model.Revision
	Staged   []StagedVersion
}

// CommitRevision durably commits a revision and all of its staged
// versions as one atomic unit.
//
// Inside a single transaction it:
//  1. re-checks every staged continuity's head sequence against the
//     session's recorded base sequence, aborting with *ConflictError on
//     any mismatch (optimistic concurrency)
//  2. allocates the next global sequence number (MAX+1 inside the
//     transaction: gap-free on success, nothing consumed on rollback)
//  3. inserts the revision row with the commit timestamp
//  4. inserts continuity rows for identities created by this commit
//  5. stamps superseded head versions' expired_sequence
//  6. inserts the new version rows
//
// On any failure the transaction rolls back and no staged state is
// visible. The returned revision carries the assigned sequence.
func (s *Store) CommitRevision(ctx context.Context, req CommitRequest) (model.Revision, error) {
	if len(req.Staged) == 0 {
		return model.Revision{}, fmt.Errorf("commit revision: nothing staged")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Revision{}, fmt.Errorf("commit revision: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: optimistic conflict check against current heads.
	var conflicts []Conflict
	for _, sv := range req.Staged {
		if sv.New {
			continue
		}
		var head int64
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(sequence), 0) FROM versions WHERE continuity_id = ?
		`, sv.ContinuityID).Scan(&head)
		if err != nil {
			return model.Revision{}, fmt.Errorf("commit revision: read head of %s: %w", sv.ContinuityID, err)
		}
		if head > sv.BaseSequence {
			conflicts = append(conflicts, Conflict{
				ContinuityID: sv.ContinuityID,
				BaseSequence: sv.BaseSequence,
				HeadSequence: head,
			})
		}
	}
	if len(conflicts) > 0 {
		return model.Revision{}, &ConflictError{Conflicts: conflicts}
	}

	// Step 2: allocate the next sequence. MAX+1 inside the transaction
	// keeps committed sequences gap-free; an aborted commit consumes
	// nothing.
	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1 FROM revisions
	`).Scan(&seq)
	if err != nil {
		return model.Revision{}, fmt.Errorf("commit revision: allocate sequence: %w", err)
	}

	// Step 3: insert the revision row.
	rev := req.Revision
	rev.Sequence = seq
	_, err = tx.ExecContext(ctx, `
		INSERT INTO revisions (id, sequence, author, message, committed_at)
		VALUES (?, ?, ?, ?, ?)
	`, rev.ID, rev.Sequence, rev.Author, rev.Message, marshalTime(rev.Timestamp))
	if err != nil {
		return model.Revision{}, fmt.Errorf("commit revision: insert revision: %w", err)
	}

	for _, sv := range req.Staged {
		// Step 4: continuity rows for identities born in this commit.
		if sv.New {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO continuities (id, class, left_id, right_id, created_sequence)
				VALUES (?, ?, ?, ?, ?)
			`, sv.ContinuityID, sv.Class, sv.Left, sv.Right, seq)
			if err != nil {
				return model.Revision{}, fmt.Errorf("commit revision: insert continuity %s: %w", sv.ContinuityID, err)
			}
		}

		attrsJSON, err := marshalAttrs(sv.Attrs)
		if err != nil {
			return model.Revision{}, fmt.Errorf("commit revision: continuity %s: %w", sv.ContinuityID, err)
		}

		// Step 5: the superseded head expires at this sequence. The
		// snapshot itself is never edited.
		_, err = tx.ExecContext(ctx, `
			UPDATE versions SET expired_sequence = ?
			WHERE continuity_id = ? AND expired_sequence = 0
		`, seq, sv.ContinuityID)
		if err != nil {
			return model.Revision{}, fmt.Errorf("commit revision: expire head of %s: %w", sv.ContinuityID, err)
		}

		// Step 6: the new version. The primary key enforces at most one
		// version per (continuity, revision) pair.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO versions (continuity_id, revision_id, sequence, state, attrs, expired_sequence)
			VALUES (?, ?, ?, ?, ?, 0)
		`, sv.ContinuityID, rev.ID, seq, string(sv.State), attrsJSON)
		if err != nil {
			return model.Revision{}, fmt.Errorf("commit revision: insert version for %s: %w", sv.ContinuityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Revision{}, fmt.Errorf("commit revision: commit tx: %w", err)
	}

	return rev, nil
}

// PurgeContinuity removes a continuity and, via the foreign key cascade,
// every version it ever had. Irreversible. Revisions that touched the
// continuity remain; they simply no longer reference it.
//
// Returns ErrNotFound if the continuity does not exist.
func (s *Store) PurgeContinuity(ctx context.Context, continuityID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM continuities WHERE id = ?
	`, continuityID)
	if err != nil {
		return fmt.Errorf("purge continuity %s: %w", continuityID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("purge continuity %s: rows affected: %w", continuityID, err)
	}
	if n == 0 {
		return fmt.Errorf("purge continuity %s: %w", continuityID, ErrNotFound)
	}
	return nil
}
