package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revgraph/revgraph/internal/model"
)

func TestPurge_RequiresConfirmation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	id, _ := commitEntity(t, eng, "book", nil)

	session, err := eng.OpenSession("admin")
	require.NoError(t, err)

	err = session.Purge(ctx, id, false)
	var irrevErr *IrreversibleOperationError
	require.ErrorAs(t, err, &irrevErr)
	assert.Equal(t, id, irrevErr.ContinuityID)

	// Nothing was removed.
	_, err = eng.Resolver().ResolveLatest(ctx, id)
	require.NoError(t, err)
}

func TestPurge_Finality(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	id, rev := commitEntity(t, eng, "book", model.Attrs{"name": model.String("Eric")})

	session, err := eng.OpenSession("admin")
	require.NoError(t, err)
	require.NoError(t, session.Purge(ctx, id, true))
	session.Rollback()

	// Unresolvable at every revision, including ones where it existed.
	_, err = eng.Resolver().ResolveLatest(ctx, id)
	assert.True(t, IsNotFound(err))
	_, err = eng.Resolver().Resolve(ctx, id, model.AtSequence(rev.Sequence))
	assert.True(t, IsNotFound(err))
	_, err = eng.Resolver().ResolveIncludingDeleted(ctx, id, model.Latest())
	assert.True(t, IsNotFound(err))
}

func TestPurge_NotFound(t *testing.T) {
	eng := newTestEngine(t)

	session, err := eng.OpenSession("admin")
	require.NoError(t, err)
	err = session.Purge(context.Background(), "ghost", true)
	assert.True(t, IsNotFound(err))
}

func TestPurge_HeadMustBeActive(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	id, _ := commitEntity(t, eng, "book", nil)

	session, err := eng.OpenSession("alice")
	require.NoError(t, err)
	require.NoError(t, session.Delete(ctx, id))
	_, err = session.Commit(ctx)
	require.NoError(t, err)

	session, err = eng.OpenSession("admin")
	require.NoError(t, err)
	err = session.Purge(ctx, id, true)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.StateDeleted, stateErr.From)
}

func TestPurge_RejectsStagedContinuity(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	id, _ := commitEntity(t, eng, "book", nil)

	session, err := eng.OpenSession("admin")
	require.NoError(t, err)
	_, err = session.Stage(ctx, id, "", model.Attrs{"name": model.String("edited")})
	require.NoError(t, err)

	err = session.Purge(ctx, id, true)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
}

func TestPurge_SeversLinks(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	a, b := commitPair(t, eng, "authored")

	// Purge the association continuity directly.
	left, right := model.CanonicalPair(a, b)
	cont, err := eng.storage.AssocContinuity(ctx, "authored", left, right)
	require.NoError(t, err)

	session, err := eng.OpenSession("admin")
	require.NoError(t, err)
	require.NoError(t, session.Purge(ctx, cont.ID, true))

	links, err := eng.Resolver().ResolveLinks(ctx, "authored", a, model.Latest())
	require.NoError(t, err)
	assert.Empty(t, links)
}
