package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

// Storage is the collaborator contract the engine consumes: durable
// atomic writes and indexed lookups. *store.Store implements it; tests
// substitute failure-injecting doubles.
type Storage interface {
	// CommitRevision atomically persists a revision and all of its
	// staged versions, or nothing. Performs the optimistic conflict
	// check and sequence allocation inside its transaction.
	CommitRevision(ctx context.Context, req store.CommitRequest) (model.Revision, error)

	// Indexed lookups.
	GetContinuity(ctx context.Context, id string) (model.Continuity, error)
	AssocContinuity(ctx context.Context, class, left, right string) (model.Continuity, error)
	Head(ctx context.Context, continuityID string) (model.Version, error)
	VersionAsOf(ctx context.Context, continuityID string, seq int64) (model.Version, error)
	VersionsOf(ctx context.Context, continuityID string) ([]model.Version, error)
	MaxSequence(ctx context.Context) (int64, error)
	GetRevision(ctx context.Context, id string) (model.Revision, error)
	SequenceAtTime(ctx context.Context, t time.Time) (int64, error)
	LinksAsOf(ctx context.Context, class, endpointID string, seq int64) ([]store.Link, error)

	// PurgeContinuity irreversibly removes a continuity and its history.
	PurgeContinuity(ctx context.Context, continuityID string) error
}

// Engine coordinates sessions and resolution over one storage
// collaborator.
//
// Thread-safety model:
//   - OpenSession / Resolver: safe from any goroutine
//   - a single Session: one goroutine only
type Engine struct {
	storage Storage
	ids     model.IDGenerator
	clock   Clock
	classes *model.Registry
	logger  *slog.Logger
}

// Option configures engine parameters.
type Option func(*Engine)

// WithIDGenerator substitutes the id generator.
// Use model.NewFixedIDGenerator for deterministic tests.
func WithIDGenerator(gen model.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = gen
	}
}

// WithClock substitutes the commit timestamp source.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithClasses installs the class registry used for attribute validation
// and moderation routing. Without one, every class is admitted
// unmoderated.
func WithClasses(registry *model.Registry) Option {
	return func(e *Engine) {
		e.classes = registry
	}
}

// WithLogger substitutes the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over a storage collaborator.
func New(storage Storage, opts ...Option) *Engine {
	e := &Engine{
		storage: storage,
		ids:     model.UUIDv7Generator{},
		clock:   SystemClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OpenSession opens a new unit of work with a freshly allocated,
// uncommitted revision authored by author.
func (e *Engine) OpenSession(author string) (*Session, error) {
	if author == "" {
		return nil, &SessionError{Op: "open", Reason: "author must not be empty"}
	}
	s := &Session{
		eng: e,
		rev: model.Revision{
			ID:     e.ids.NewID(),
			Author: author,
		},
		staged:    make(map[string]*store.StagedVersion),
		assocKeys: make(map[assocKey]string),
	}
	e.logger.Debug("session opened", "revision", s.rev.ID, "author", author)
	return s, nil
}

// Resolver returns a resolver reading through the engine's storage.
func (e *Engine) Resolver() *Resolver {
	return &Resolver{storage: e.storage}
}

// Classes returns the engine's class registry.
func (e *Engine) Classes() *model.Registry {
	return e.classes
}
