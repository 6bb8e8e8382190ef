package harness

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHarness() *Harness {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_Basic(t *testing.T) {
	scenario := &Scenario{
		Name: "basic",
		Revisions: []RevisionStep{
			{Message: "create", Ops: []Op{
				{Op: OpStage, Ref: "book", Class: "Book", Attrs: map[string]any{"title": "Dune"}},
			}},
			{Message: "retitle", Ops: []Op{
				{Op: OpStage, Ref: "book", Class: "Book", Attrs: map[string]any{"title": "Dune Messiah"}},
			}},
		},
		Assertions: []Assertion{
			{Type: AssertResolve, Ref: "book", At: 1, Attrs: map[string]any{"title": "Dune"}},
			{Type: AssertResolve, Ref: "book", State: "active", Attrs: map[string]any{"title": "Dune Messiah"}},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "id-2", result.Handles["book"])
	require.Len(t, result.Revisions, 2)
	assert.Equal(t, "create", result.Revisions[0].Message)
	assert.Equal(t, int64(1), result.Revisions[0].Sequence)
	assert.Equal(t, int64(2), result.Revisions[1].Sequence)
}

func TestRun_DeterministicIDs(t *testing.T) {
	scenario := &Scenario{
		Name: "ids",
		Revisions: []RevisionStep{
			{Ops: []Op{
				{Op: OpStage, Ref: "a", Class: "Thing"},
				{Op: OpStage, Ref: "b", Class: "Thing"},
			}},
		},
	}

	h := testHarness()
	first, err := h.Run(t.Context(), scenario)
	require.NoError(t, err)
	second, err := h.Run(t.Context(), scenario)
	require.NoError(t, err)

	// Every run gets a fresh database, clock, and id generator.
	assert.Equal(t, first.Handles, second.Handles)
	assert.Equal(t, first.Revisions[0].ID, second.Revisions[0].ID)
	assert.Equal(t, first.Revisions[0].Timestamp, second.Revisions[0].Timestamp)
}

func TestRun_History(t *testing.T) {
	scenario := &Scenario{
		Name: "history",
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "x", Class: "Thing", Attrs: map[string]any{"n": 1}}}},
			{Ops: []Op{{Op: OpStage, Ref: "x", Class: "Thing", Attrs: map[string]any{"n": 2}}}},
			{Ops: []Op{{Op: OpDelete, Ref: "x"}}},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	require.Len(t, result.History, 3)
	for i, entry := range result.History {
		assert.Equal(t, int64(i+1), entry.Revision.Sequence)
		require.Len(t, entry.Versions, 1)
		assert.Equal(t, int64(i+1), entry.Versions[0].Sequence)
	}
	assert.Equal(t, int64(2), result.History[0].Versions[0].ExpiredSequence)
	assert.Equal(t, int64(0), result.History[2].Versions[0].ExpiredSequence)
}

func TestRun_FailedAssertion(t *testing.T) {
	scenario := &Scenario{
		Name: "fails",
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "x", Class: "Thing", Attrs: map[string]any{"n": 1}}}},
		},
		Assertions: []Assertion{
			{Type: AssertResolve, Ref: "x", Attrs: map[string]any{"n": 99}},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "resolve")
}

func TestRun_MissingExpectation(t *testing.T) {
	scenario := &Scenario{
		Name: "missing",
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "x", Class: "Thing"}}},
			{Ops: []Op{{Op: OpDelete, Ref: "x"}}},
		},
		Assertions: []Assertion{
			{Type: AssertResolve, Ref: "x", Missing: true},
			{Type: AssertResolve, Ref: "x", At: 1},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Purge(t *testing.T) {
	scenario := &Scenario{
		Name: "purge",
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "x", Class: "Thing"}}},
			{Ops: []Op{{Op: OpPurge, Ref: "x"}}},
		},
		Assertions: []Assertion{
			{Type: AssertResolve, Ref: "x", At: 1, IncludeDeleted: true, Missing: true},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// A purge-only step commits no revision.
	require.Len(t, result.Revisions, 1)
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := testHarness().Run(t.Context(), &Scenario{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one revision")
}

func TestRun_OpFailure(t *testing.T) {
	scenario := &Scenario{
		Name: "bad-op",
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpDelete, Ref: "ghost"}}},
		},
	}

	_, err := testHarness().Run(t.Context(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision 1")
	assert.Contains(t, err.Error(), "op delete")
}

func TestRun_InlineClasses(t *testing.T) {
	scenario := &Scenario{
		Name: "moderated",
		Classes: `class: Review: {
	moderated: true
	attributes: stars: "int"
}`,
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "r", Class: "Review", Attrs: map[string]any{"stars": 5}}}},
		},
		Assertions: []Assertion{
			{Type: AssertResolve, Ref: "r", Missing: true},
			{Type: AssertResolve, Ref: "r", IncludeDeleted: true, State: "pending-active"},
		},
	}

	result, err := testHarness().Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InlineClassesInvalid(t *testing.T) {
	scenario := &Scenario{
		Name:    "bad-classes",
		Classes: `class: Review: { attributes: rating: "float" }`,
		Revisions: []RevisionStep{
			{Ops: []Op{{Op: OpStage, Ref: "r", Class: "Review"}}},
		},
	}

	_, err := testHarness().Run(t.Context(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile inline classes")
}
