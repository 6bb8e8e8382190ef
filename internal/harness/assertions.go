package harness

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/revgraph/revgraph/internal/engine"
	"github.com/revgraph/revgraph/internal/model"
)

// AssertionError describes one failed assertion with expected/actual
// context.
type AssertionError struct {
	Type     string
	Ref      string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s on %s failed: expected %s, got %s", e.Type, e.Ref, e.Expected, e.Actual)
}

// evalAssertion evaluates one assertion, recording failures on the
// result. Infrastructure failures (storage errors, malformed
// expectations) return an error instead.
func evalAssertion(ctx context.Context, resolver *engine.Resolver, a Assertion, result *Result) error {
	switch a.Type {
	case AssertResolve:
		return evalResolve(ctx, resolver, a, result)
	case AssertLinks:
		return evalLinks(ctx, resolver, a, result)
	case AssertTraverse:
		return evalTraverse(ctx, resolver, a, result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (a Assertion) ref(result *Result) string {
	if id, ok := result.Handles[a.Ref]; ok {
		return id
	}
	return a.Ref
}

func (a Assertion) at() model.RevisionRef {
	if a.At > 0 {
		return model.AtSequence(a.At)
	}
	return model.Latest()
}

func evalResolve(ctx context.Context, resolver *engine.Resolver, a Assertion, result *Result) error {
	resolve := resolver.Resolve
	if a.IncludeDeleted {
		resolve = resolver.ResolveIncludingDeleted
	}

	version, err := resolve(ctx, a.ref(result), a.at())
	if err != nil {
		if !engine.IsNotFound(err) {
			return err
		}
		if !a.Missing {
			result.AddError((&AssertionError{
				Type: a.Type, Ref: a.Ref,
				Expected: "a resolvable version",
				Actual:   err.Error(),
			}).Error())
		}
		return nil
	}
	if a.Missing {
		result.AddError((&AssertionError{
			Type: a.Type, Ref: a.Ref,
			Expected: "not found",
			Actual:   fmt.Sprintf("resolved version at sequence %d", version.Sequence),
		}).Error())
		return nil
	}

	if a.State != "" && string(version.State) != a.State {
		result.AddError((&AssertionError{
			Type: a.Type, Ref: a.Ref,
			Expected: "state " + a.State,
			Actual:   "state " + string(version.State),
		}).Error())
	}

	if len(a.Attrs) > 0 {
		expected, err := model.ToAttrs(a.Attrs)
		if err != nil {
			return fmt.Errorf("expected attrs: %w", err)
		}
		if err := matchAttrs(version.Attrs, expected); err != nil {
			result.AddError((&AssertionError{
				Type: a.Type, Ref: a.Ref,
				Expected: fmt.Sprintf("attrs matching %v", a.Attrs),
				Actual:   err.Error(),
			}).Error())
		}
	}
	return nil
}

func evalLinks(ctx context.Context, resolver *engine.Resolver, a Assertion, result *Result) error {
	got, err := resolver.ResolveLinks(ctx, a.Class, a.ref(result), a.at())
	if err != nil {
		return err
	}

	expected := make([]string, len(a.Linked))
	for i, ref := range a.Linked {
		if id, ok := result.Handles[ref]; ok {
			expected[i] = id
		} else {
			expected[i] = ref
		}
	}

	if !sameIDSet(got, expected) {
		result.AddError((&AssertionError{
			Type: a.Type, Ref: a.Ref,
			Expected: "linked to {" + strings.Join(expected, ", ") + "}",
			Actual:   "linked to {" + strings.Join(got, ", ") + "}",
		}).Error())
	}
	return nil
}

func evalTraverse(ctx context.Context, resolver *engine.Resolver, a Assertion, result *Result) error {
	snapshot, err := resolver.Traverse(ctx, a.ref(result), a.at())
	if err != nil {
		if engine.IsNotFound(err) && a.Missing {
			return nil
		}
		if engine.IsNotFound(err) {
			result.AddError((&AssertionError{
				Type: a.Type, Ref: a.Ref,
				Expected: "a traversable root",
				Actual:   err.Error(),
			}).Error())
			return nil
		}
		return err
	}

	got := make([]string, 0, len(snapshot.Entities))
	for id := range snapshot.Entities {
		got = append(got, id)
	}
	expected := make([]string, len(a.Entities))
	for i, ref := range a.Entities {
		if id, ok := result.Handles[ref]; ok {
			expected[i] = id
		} else {
			expected[i] = ref
		}
	}

	if !sameIDSet(got, expected) {
		result.AddError((&AssertionError{
			Type: a.Type, Ref: a.Ref,
			Expected: "snapshot entities {" + strings.Join(expected, ", ") + "}",
			Actual:   "snapshot entities {" + strings.Join(got, ", ") + "}",
		}).Error())
	}
	return nil
}

// matchAttrs checks subset semantics: every expected attribute must be
// present with a canonically equal value.
func matchAttrs(actual, expected model.Attrs) error {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("attribute %q missing", key)
		}
		wantJSON, err := model.MarshalCanonical(want)
		if err != nil {
			return err
		}
		gotJSON, err := model.MarshalCanonical(got)
		if err != nil {
			return err
		}
		if !bytes.Equal(wantJSON, gotJSON) {
			return fmt.Errorf("attribute %q = %s, want %s", key, gotJSON, wantJSON)
		}
	}
	return nil
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
