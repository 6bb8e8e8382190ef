package engine

import (
	"context"

	"github.com/revgraph/revgraph/internal/model"
)

// Handle is a capability-based facade over one continuity: attribute
// reads delegate to resolution at the handle's pinned revision, or at the
// latest committed revision when unpinned. It holds no snapshot of its
// own, so no dynamic attribute interception is involved; every read is an
// explicit resolve.
type Handle struct {
	resolver *Resolver
	id       string
	pin      model.RevisionRef
}

// Handle returns a facade for a continuity, reading at the latest
// committed revision.
func (e *Engine) Handle(continuityID string) Handle {
	return Handle{resolver: e.Resolver(), id: continuityID, pin: model.Latest()}
}

// ID returns the continuity id the handle reads.
func (h Handle) ID() string {
	return h.id
}

// At returns a handle pinned to a fixed revision reference for historical
// views. The receiver is unchanged.
func (h Handle) At(ref model.RevisionRef) Handle {
	h.pin = ref
	return h
}

// Version resolves the handle's version at its pinned revision.
func (h Handle) Version(ctx context.Context) (model.Version, error) {
	return h.resolver.Resolve(ctx, h.id, h.pin)
}

// Attr resolves a single attribute value. Missing attributes on a
// resolvable version return (nil, false, nil).
func (h Handle) Attr(ctx context.Context, name string) (model.Value, bool, error) {
	v, err := h.Version(ctx)
	if err != nil {
		return nil, false, err
	}
	val, ok := v.Attrs[name]
	return val, ok, nil
}

// Links resolves the ids the continuity is linked to under the given
// association class at the handle's pinned revision.
func (h Handle) Links(ctx context.Context, class string) ([]string, error) {
	return h.resolver.ResolveLinks(ctx, class, h.id, h.pin)
}
