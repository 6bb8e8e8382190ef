package engine

import (
	"context"
	"errors"

	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

// Resolver maps (continuity, revision reference) to the applicable
// version and supports whole-graph traversal at a fixed revision.
//
// Resolution is pure with respect to committed state: the same arguments
// return the same result regardless of later commits to other
// continuities. Reads never block writers and never observe staged,
// uncommitted versions.
type Resolver struct {
	storage Storage
}

// NewResolver builds a resolver over a storage collaborator.
func NewResolver(storage Storage) *Resolver {
	return &Resolver{storage: storage}
}

// sequenceFor turns a revision reference into a concrete sequence number.
func (r *Resolver) sequenceFor(ctx context.Context, ref model.RevisionRef) (int64, error) {
	switch {
	case ref.RevisionID() != "":
		rev, err := r.storage.GetRevision(ctx, ref.RevisionID())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, &NotFoundError{ContinuityID: ref.RevisionID(), Ref: ref}
			}
			return 0, wrapStorage("resolve revision ref", err)
		}
		return rev.Sequence, nil
	case ref.Sequence() > 0:
		return ref.Sequence(), nil
	case !ref.Time().IsZero():
		seq, err := r.storage.SequenceAtTime(ctx, ref.Time())
		if err != nil {
			return 0, wrapStorage("resolve revision ref", err)
		}
		return seq, nil
	default:
		seq, err := r.storage.MaxSequence(ctx)
		if err != nil {
			return 0, wrapStorage("resolve revision ref", err)
		}
		return seq, nil
	}
}

// Resolve returns the version of a continuity applicable at the given
// revision reference: the one whose revision has the greatest sequence
// not after the target. Only-visible semantics: a version in a Deleted or
// pending state surfaces as a NotFoundError carrying the hidden state.
func (r *Resolver) Resolve(ctx context.Context, continuityID string, ref model.RevisionRef) (model.Version, error) {
	v, err := r.resolveAny(ctx, continuityID, ref)
	if err != nil {
		return model.Version{}, err
	}
	if !v.State.Visible() {
		return model.Version{}, &NotFoundError{ContinuityID: continuityID, Ref: ref, State: v.State}
	}
	return v, nil
}

// ResolveIncludingDeleted is the auditing variant of Resolve: deleted and
// pending versions are returned rather than hidden.
func (r *Resolver) ResolveIncludingDeleted(ctx context.Context, continuityID string, ref model.RevisionRef) (model.Version, error) {
	return r.resolveAny(ctx, continuityID, ref)
}

// ResolveLatest resolves against the store's current maximum committed
// sequence.
func (r *Resolver) ResolveLatest(ctx context.Context, continuityID string) (model.Version, error) {
	return r.Resolve(ctx, continuityID, model.Latest())
}

func (r *Resolver) resolveAny(ctx context.Context, continuityID string, ref model.RevisionRef) (model.Version, error) {
	seq, err := r.sequenceFor(ctx, ref)
	if err != nil {
		return model.Version{}, err
	}
	v, err := r.storage.VersionAsOf(ctx, continuityID, seq)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Version{}, &NotFoundError{ContinuityID: continuityID, Ref: ref}
		}
		return model.Version{}, wrapStorage("resolve", err)
	}
	return v, nil
}

// ResolveLinks returns the ids of the entities an endpoint was linked to
// under the given association class as of the revision reference. Only
// links whose version resolves to Active are included. An empty class
// matches every association class.
func (r *Resolver) ResolveLinks(ctx context.Context, class, endpointID string, ref model.RevisionRef) ([]string, error) {
	seq, err := r.sequenceFor(ctx, ref)
	if err != nil {
		return nil, err
	}
	links, err := r.storage.LinksAsOf(ctx, class, endpointID, seq)
	if err != nil {
		return nil, wrapStorage("resolve links", err)
	}

	others := make([]string, 0, len(links))
	for _, l := range links {
		if l.Left == endpointID {
			others = append(others, l.Right)
		} else {
			others = append(others, l.Left)
		}
	}
	return others, nil
}

// Snapshot is a consistent view of the object graph reachable from one
// root, with every entity and every association edge evaluated at the
// same sequence.
type Snapshot struct {
	// Sequence is the fixed sequence the whole snapshot was resolved at.
	Sequence int64

	// Entities maps continuity id to the version applicable at Sequence,
	// for the root and every reachable endpoint.
	Entities map[string]model.Version

	// Links are the active association edges between entities in the
	// snapshot.
	Links []store.Link
}

// Traverse walks the association edges reachable from root, resolving the
// root and every endpoint at one fixed sequence. Following mixed past and
// present state is impossible by construction: the target sequence is
// computed once and reused for every resolution.
//
// Endpoints that are not visible at the target sequence are skipped along
// with their edges. The root itself must be visible.
func (r *Resolver) Traverse(ctx context.Context, rootID string, ref model.RevisionRef) (*Snapshot, error) {
	seq, err := r.sequenceFor(ctx, ref)
	if err != nil {
		return nil, err
	}
	pinned := model.AtSequence(seq)
	if seq == 0 {
		// Nothing committed yet; nothing can resolve.
		return nil, &NotFoundError{ContinuityID: rootID, Ref: ref}
	}

	rootVersion, err := r.Resolve(ctx, rootID, pinned)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Sequence: seq,
		Entities: map[string]model.Version{rootID: rootVersion},
	}
	seenLinks := make(map[string]bool)

	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		links, err := r.storage.LinksAsOf(ctx, "", current, seq)
		if err != nil {
			return nil, wrapStorage("traverse", err)
		}
		for _, l := range links {
			other := l.Left
			if other == current {
				other = l.Right
			}
			if _, seen := snap.Entities[other]; !seen {
				v, err := r.Resolve(ctx, other, pinned)
				if IsNotFound(err) {
					continue // endpoint not visible at this revision
				}
				if err != nil {
					return nil, err
				}
				snap.Entities[other] = v
				queue = append(queue, other)
			}
			if !seenLinks[l.ContinuityID] {
				seenLinks[l.ContinuityID] = true
				snap.Links = append(snap.Links, l)
			}
		}
	}

	return snap, nil
}
