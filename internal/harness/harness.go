package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"

	"github.com/revgraph/revgraph/internal/compiler"
	"github.com/revgraph/revgraph/internal/engine"
	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
	"github.com/revgraph/revgraph/internal/testutil"
)

// Harness executes scenarios with deterministic clock and ids.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{logger: logger}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temp-file database for isolation, with a
// deterministic clock and a sequential id generator, so the same
// scenario always commits an identical history.
//
// Execution flow:
//  1. Create a fresh database and engine
//  2. Commit each revision step as one session
//  3. Evaluate assertions against the committed history
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "revgraph-harness-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer st.Close()

	registry, err := compileInlineClasses(scenario.Classes)
	if err != nil {
		return nil, err
	}

	eng := engine.New(st,
		engine.WithClasses(registry),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
		engine.WithLogger(h.logger),
	)

	result := NewResult()

	for i, step := range scenario.Revisions {
		if err := h.commitStep(ctx, eng, step, result); err != nil {
			return nil, fmt.Errorf("revision %d: %w", i+1, err)
		}
	}

	revisions, err := st.ListRevisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	result.Revisions = revisions

	for _, rev := range revisions {
		versions, err := st.VersionsOfRevision(ctx, rev.ID)
		if err != nil {
			return nil, fmt.Errorf("versions of revision %s: %w", rev.ID, err)
		}
		result.History = append(result.History, HistoryEntry{Revision: rev, Versions: versions})
	}

	resolver := eng.Resolver()
	for i, assertion := range scenario.Assertions {
		if err := evalAssertion(ctx, resolver, assertion, result); err != nil {
			return nil, fmt.Errorf("assertion %d: %w", i+1, err)
		}
	}

	return result, nil
}

// commitStep runs one revision step as a session. Purge ops execute
// immediately; if a step stages nothing besides purges, there is nothing
// to commit and the session is rolled back.
func (h *Harness) commitStep(ctx context.Context, eng *engine.Engine, step RevisionStep, result *Result) error {
	author := step.Author
	if author == "" {
		author = "tester"
	}

	session, err := eng.OpenSession(author)
	if err != nil {
		return err
	}
	session.SetMessage(step.Message)

	staged := 0
	for _, op := range step.Ops {
		mutated, err := h.applyOp(ctx, session, op, result)
		if err != nil {
			session.Rollback()
			return fmt.Errorf("op %s: %w", op.Op, err)
		}
		if mutated {
			staged++
		}
	}

	if staged == 0 {
		session.Rollback()
		return nil
	}
	if _, err := session.Commit(ctx); err != nil {
		return err
	}
	return nil
}

// applyOp stages one operation. Returns whether the op staged a pending
// version (purge does not).
func (h *Harness) applyOp(ctx context.Context, session *engine.Session, op Op, result *Result) (bool, error) {
	switch op.Op {
	case OpStage:
		attrs, err := model.ToAttrs(op.Attrs)
		if err != nil {
			return false, err
		}
		id := result.Handles[op.Ref]
		pending, err := session.Stage(ctx, id, op.Class, attrs)
		if err != nil {
			return false, err
		}
		result.Handles[op.Ref] = pending.ContinuityID
		return true, nil
	case OpDelete:
		return true, session.Delete(ctx, result.Handles[op.Ref])
	case OpUndelete:
		return true, session.Undelete(ctx, result.Handles[op.Ref])
	case OpApprove:
		return true, session.Approve(ctx, result.Handles[op.Ref])
	case OpReject:
		return true, session.Reject(ctx, result.Handles[op.Ref])
	case OpLink:
		return true, session.Link(ctx, op.Class, result.Handles[op.Left], result.Handles[op.Right])
	case OpUnlink:
		return true, session.Unlink(ctx, op.Class, result.Handles[op.Left], result.Handles[op.Right])
	case OpPurge:
		return false, session.Purge(ctx, result.Handles[op.Ref], true)
	default:
		return false, fmt.Errorf("unknown op %q", op.Op)
	}
}

// compileInlineClasses builds a registry from a scenario's inline CUE.
func compileInlineClasses(src string) (*model.Registry, error) {
	if src == "" {
		return nil, nil
	}
	value := cuecontext.New().CompileString(src)
	specs, err := compiler.CompileClasses(value)
	if err != nil {
		return nil, fmt.Errorf("compile inline classes: %w", err)
	}
	return model.NewRegistry(specs...)
}
