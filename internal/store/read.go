package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/revgraph/revgraph/internal/model"
)

const versionColumns = `
	v.continuity_id, c.class, v.revision_id, v.sequence, v.state, v.attrs, v.expired_sequence
`

// GetContinuity retrieves a continuity row by id.
// Returns ErrNotFound if it does not exist (including after a purge).
func (s *Store) GetContinuity(ctx context.Context, id string) (model.Continuity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, class, left_id, right_id, created_sequence
		FROM continuities
		WHERE id = ?
	`, id)

	var c model.Continuity
	err := row.Scan(&c.ID, &c.Class, &c.Left, &c.Right, &c.CreatedSequence)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Continuity{}, fmt.Errorf("continuity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Continuity{}, fmt.Errorf("get continuity %s: %w", id, err)
	}
	return c, nil
}

// AssocContinuity looks up the association continuity linking a canonical
// endpoint pair under the given class.
// Returns ErrNotFound if the pair was never linked.
func (s *Store) AssocContinuity(ctx context.Context, class, left, right string) (model.Continuity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, class, left_id, right_id, created_sequence
		FROM continuities
		WHERE class = ? AND left_id = ? AND right_id = ?
	`, class, left, right)

	var c model.Continuity
	err := row.Scan(&c.ID, &c.Class, &c.Left, &c.Right, &c.CreatedSequence)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Continuity{}, fmt.Errorf("association %s(%s, %s): %w", class, left, right, ErrNotFound)
	}
	if err != nil {
		return model.Continuity{}, fmt.Errorf("get association %s(%s, %s): %w", class, left, right, err)
	}
	return c, nil
}

// Head returns the current head version of a continuity: the version with
// the greatest committed sequence.
// Returns ErrNotFound for unknown or purged continuities.
func (s *Store) Head(ctx context.Context, continuityID string) (model.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions v
		JOIN continuities c ON c.id = v.continuity_id
		WHERE v.continuity_id = ?
		ORDER BY v.sequence DESC, v.rowid DESC
		LIMIT 1
	`, continuityID)

	v, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Version{}, fmt.Errorf("head of %s: %w", continuityID, ErrNotFound)
	}
	if err != nil {
		return model.Version{}, fmt.Errorf("head of %s: %w", continuityID, err)
	}
	return v, nil
}

// VersionAsOf returns the version of a continuity applicable at the given
// sequence: the one with the greatest sequence <= seq. Where duplicate
// versions exist under one sequence (an integrity violation the versions
// primary key prevents), rowid DESC makes the last writer win.
//
// Returns ErrNotFound if the continuity did not exist yet at seq, or was
// purged.
func (s *Store) VersionAsOf(ctx context.Context, continuityID string, seq int64) (model.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions v
		JOIN continuities c ON c.id = v.continuity_id
		WHERE v.continuity_id = ? AND v.sequence <= ?
		ORDER BY v.sequence DESC, v.rowid DESC
		LIMIT 1
	`, continuityID, seq)

	v, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Version{}, fmt.Errorf("version of %s at sequence %d: %w", continuityID, seq, ErrNotFound)
	}
	if err != nil {
		return model.Version{}, fmt.Errorf("version of %s at sequence %d: %w", continuityID, seq, err)
	}
	return v, nil
}

// VersionsOf returns the complete ordered history of a continuity,
// oldest first. Deterministic ordering: ORDER BY sequence ASC, rowid ASC.
//
// Returns an empty slice (not nil) for unknown continuities.
func (s *Store) VersionsOf(ctx context.Context, continuityID string) ([]model.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions v
		JOIN continuities c ON c.id = v.continuity_id
		WHERE v.continuity_id = ?
		ORDER BY v.sequence ASC, v.rowid ASC
	`, continuityID)
	if err != nil {
		return nil, fmt.Errorf("query versions of %s: %w", continuityID, err)
	}
	defer rows.Close()

	versions := []model.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("versions of %s: %w", continuityID, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions of %s: %w", continuityID, err)
	}

	return versions, nil
}

// VersionsOfRevision returns the versions committed under one revision,
// in staging order (insertion order within the commit transaction).
func (s *Store) VersionsOfRevision(ctx context.Context, revisionID string) ([]model.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions v
		JOIN continuities c ON c.id = v.continuity_id
		WHERE v.revision_id = ?
		ORDER BY v.rowid ASC
	`, revisionID)
	if err != nil {
		return nil, fmt.Errorf("query versions of revision %s: %w", revisionID, err)
	}
	defer rows.Close()

	versions := []model.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("versions of revision %s: %w", revisionID, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions of revision %s: %w", revisionID, err)
	}

	return versions, nil
}

// MaxSequence returns the store's current maximum committed sequence, or 0
// for an empty store.
func (s *Store) MaxSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM revisions
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max sequence: %w", err)
	}
	return seq, nil
}

// GetRevision retrieves a committed revision by id.
// Returns ErrNotFound if no such revision exists.
func (s *Store) GetRevision(ctx context.Context, id string) (model.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sequence, author, message, committed_at
		FROM revisions
		WHERE id = ?
	`, id)
	rev, err := scanRevisionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, fmt.Errorf("revision %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Revision{}, fmt.Errorf("get revision %s: %w", id, err)
	}
	return rev, nil
}

// RevisionBySequence retrieves a committed revision by sequence number.
// Returns ErrNotFound if no such revision exists.
func (s *Store) RevisionBySequence(ctx context.Context, seq int64) (model.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sequence, author, message, committed_at
		FROM revisions
		WHERE sequence = ?
	`, seq)
	rev, err := scanRevisionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, fmt.Errorf("revision at sequence %d: %w", seq, ErrNotFound)
	}
	if err != nil {
		return model.Revision{}, fmt.Errorf("get revision at sequence %d: %w", seq, err)
	}
	return rev, nil
}

// SequenceAtTime returns the greatest committed sequence whose revision
// timestamp is not after t, or 0 if nothing was committed by then.
// Timestamps are stored RFC 3339 UTC, so lexical comparison is
// chronological.
func (s *Store) SequenceAtTime(ctx context.Context, t time.Time) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) FROM revisions WHERE committed_at <= ?
	`, marshalTime(t)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("sequence at time %s: %w", t, err)
	}
	return seq, nil
}

// ListRevisions returns all committed revisions in sequence order.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRevisions(ctx context.Context) ([]model.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence, author, message, committed_at
		FROM revisions
		ORDER BY sequence ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revisions := []model.Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}

	return revisions, nil
}

// Link is an association resolved at a point in time: the link continuity
// and the endpoint pair it joins.
type Link struct {
	ContinuityID string
	Class        string
	Left         string
	Right        string
}

// LinksAsOf returns the links involving an endpoint whose association
// version resolves to Active at the given sequence. An empty class
// matches association continuities of every class.
//
// Deterministic ordering: by class, then left id, then right id.
func (s *Store) LinksAsOf(ctx context.Context, class, endpointID string, seq int64) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.class, c.left_id, c.right_id
		FROM continuities c
		JOIN versions v ON v.continuity_id = c.id
		WHERE c.left_id != ''
		  AND (? = '' OR c.class = ?)
		  AND (c.left_id = ? OR c.right_id = ?)
		  AND v.rowid = (
			SELECT v2.rowid FROM versions v2
			WHERE v2.continuity_id = c.id AND v2.sequence <= ?
			ORDER BY v2.sequence DESC, v2.rowid DESC
			LIMIT 1
		  )
		  AND v.state = ?
		ORDER BY c.class ASC, c.left_id ASC, c.right_id ASC
	`, class, class, endpointID, endpointID, seq, string(model.StateActive))
	if err != nil {
		return nil, fmt.Errorf("query links of %s: %w", endpointID, err)
	}
	defer rows.Close()

	links := []Link{}
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ContinuityID, &l.Class, &l.Left, &l.Right); err != nil {
			return nil, fmt.Errorf("scan link of %s: %w", endpointID, err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links of %s: %w", endpointID, err)
	}

	return links, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(sc scanner) (model.Version, error) {
	var (
		v         model.Version
		state     string
		attrsText string
	)
	if err := sc.Scan(&v.ContinuityID, &v.Class, &v.RevisionID, &v.Sequence, &state, &attrsText, &v.ExpiredSequence); err != nil {
		return model.Version{}, err
	}

	st, err := model.ParseState(state)
	if err != nil {
		return model.Version{}, fmt.Errorf("scan version: %w", err)
	}
	v.State = st

	attrs, err := unmarshalAttrs(attrsText)
	if err != nil {
		return model.Version{}, fmt.Errorf("scan version: %w", err)
	}
	v.Attrs = attrs

	return v, nil
}

func scanVersionRow(row *sql.Row) (model.Version, error) {
	return scanVersion(row)
}

func scanRevision(sc scanner) (model.Revision, error) {
	var (
		rev model.Revision
		ts  string
	)
	if err := sc.Scan(&rev.ID, &rev.Sequence, &rev.Author, &rev.Message, &ts); err != nil {
		return model.Revision{}, err
	}
	t, err := unmarshalTime(ts)
	if err != nil {
		return model.Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	rev.Timestamp = t
	return rev, nil
}

func scanRevisionRow(row *sql.Row) (model.Revision, error) {
	return scanRevision(row)
}
