package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/revgraph/revgraph/internal/compiler"
	"github.com/revgraph/revgraph/internal/engine"
	"github.com/revgraph/revgraph/internal/model"
	"github.com/revgraph/revgraph/internal/store"
)

// app bundles the opened store, engine, and output formatter for one
// command invocation.
type app struct {
	store  *store.Store
	engine *engine.Engine
	out    *OutputFormatter
}

// openApp opens the database and builds the engine, loading class
// definitions when --classes is set.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	s, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("opening database %s", opts.DB), err)
	}

	engOpts := []engine.Option{}
	if opts.Classes != "" {
		registry, err := compiler.LoadDir(opts.Classes)
		if err != nil {
			s.Close()
			return nil, WrapExitError(ExitCommandError, "loading class definitions", err)
		}
		engOpts = append(engOpts, engine.WithClasses(registry))
	}

	return &app{
		store:  s,
		engine: engine.New(s, engOpts...),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (a *app) Close() {
	a.store.Close()
}

// commitOne runs a single-mutation session to completion: open, apply,
// commit. This is the shape every mutating command shares.
func (a *app) commitOne(ctx context.Context, author, message string, apply func(*engine.Session) error) (model.Revision, error) {
	session, err := a.engine.OpenSession(author)
	if err != nil {
		return model.Revision{}, err
	}
	session.SetMessage(message)
	if err := apply(session); err != nil {
		session.Rollback()
		return model.Revision{}, err
	}
	rev, err := session.Commit(ctx)
	if err != nil {
		session.Rollback()
		return model.Revision{}, err
	}
	return rev, nil
}

// classifyError maps engine errors to exit-coded CLI errors.
func classifyError(err error) *ExitError {
	switch {
	case engine.IsConflict(err):
		return WrapExitError(ExitFailure, "commit conflict", err)
	case engine.IsNotFound(err):
		return WrapExitError(ExitFailure, "not found", err)
	default:
		return WrapExitError(ExitFailure, "operation failed", err)
	}
}

// parseRef parses the --at flag: empty means latest, an integer is a
// sequence number, an RFC 3339 timestamp is an as-of time, anything else
// is a revision id.
func parseRef(at string) model.RevisionRef {
	if at == "" {
		return model.Latest()
	}
	if seq, err := strconv.ParseInt(at, 10, 64); err == nil && seq > 0 {
		return model.AtSequence(seq)
	}
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		return model.AtTime(t)
	}
	return model.AtRevision(at)
}

// parseAttrArgs parses key=value arguments into an attribute snapshot.
// Values parse as JSON when possible (numbers, booleans, lists, objects)
// and fall back to plain strings.
func parseAttrArgs(args []string) (model.Attrs, error) {
	attrs := model.Attrs{}
	for _, arg := range args {
		key, raw, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("attribute argument %q: expected key=value", arg)
		}

		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			decoded = raw // plain string
		}
		val, err := model.ToValue(decoded)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		attrs[key] = val
	}
	return attrs, nil
}

// revisionPayload is the JSON shape of a committed revision.
type revisionPayload struct {
	ID        string `json:"id"`
	Sequence  int64  `json:"sequence"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
}

func toRevisionPayload(rev model.Revision) revisionPayload {
	return revisionPayload{
		ID:        rev.ID,
		Sequence:  rev.Sequence,
		Author:    rev.Author,
		Timestamp: rev.Timestamp.UTC().Format(time.RFC3339Nano),
		Message:   rev.Message,
	}
}

// versionPayload is the JSON shape of a resolved version.
type versionPayload struct {
	ContinuityID    string          `json:"continuity_id"`
	Class           string          `json:"class"`
	RevisionID      string          `json:"revision_id"`
	Sequence        int64           `json:"sequence"`
	State           string          `json:"state"`
	Attrs           json.RawMessage `json:"attrs"`
	ExpiredSequence int64           `json:"expired_sequence,omitempty"`
}

func toVersionPayload(v model.Version) (versionPayload, error) {
	attrsJSON, err := model.MarshalCanonical(v.Attrs)
	if err != nil {
		return versionPayload{}, err
	}
	return versionPayload{
		ContinuityID:    v.ContinuityID,
		Class:           v.Class,
		RevisionID:      v.RevisionID,
		Sequence:        v.Sequence,
		State:           string(v.State),
		Attrs:           attrsJSON,
		ExpiredSequence: v.ExpiredSequence,
	}, nil
}
