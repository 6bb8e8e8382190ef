package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/revgraph/revgraph/internal/model"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// createTestStore creates a fresh on-disk store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRevision creates a revision with a deterministic timestamp n
// minutes past the test epoch.
func testRevision(id string, n int) model.Revision {
	return model.Revision{
		ID:        id,
		Author:    "tester",
		Message:   "test commit",
		Timestamp: testEpoch.Add(time.Duration(n) * time.Minute),
	}
}

// newEntity stages a brand-new entity continuity.
func newEntity(id, class string, attrs model.Attrs) StagedVersion {
	return StagedVersion{
		ContinuityID: id,
		Class:        class,
		New:          true,
		State:        model.StateActive,
		Attrs:        attrs,
	}
}

// updateEntity stages a new version for an existing continuity.
func updateEntity(id string, state model.State, attrs model.Attrs, base int64) StagedVersion {
	return StagedVersion{
		ContinuityID: id,
		State:        state,
		Attrs:        attrs,
		BaseSequence: base,
	}
}

// commitOne commits a single staged version under the given revision id
// and timestamp offset, failing the test on error.
func commitOne(t *testing.T, s *Store, revID string, n int, sv StagedVersion) model.Revision {
	t.Helper()
	rev, err := s.CommitRevision(context.Background(), CommitRequest{
		Revision: testRevision(revID, n),
		Staged:   []StagedVersion{sv},
	})
	if err != nil {
		t.Fatalf("CommitRevision() failed: %v", err)
	}
	return rev
}
