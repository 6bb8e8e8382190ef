package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one versioning test scenario: a sequence of revisions
// to commit and assertions over the resulting history.
type Scenario struct {
	// Name uniquely identifies this scenario. Doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Classes holds inline CUE class definitions (optional). Without
	// them every class is admitted unmoderated.
	Classes string `yaml:"classes,omitempty"`

	// Revisions are committed in order, each as one atomic changeset.
	Revisions []RevisionStep `yaml:"revisions"`

	// Assertions validate resolution against the committed history.
	Assertions []Assertion `yaml:"assertions"`
}

// RevisionStep is one session: its ops are staged together and committed
// as one revision.
type RevisionStep struct {
	// Author of the revision. Defaults to "tester".
	Author string `yaml:"author,omitempty"`

	// Message is the optional revision log message.
	Message string `yaml:"message,omitempty"`

	// Ops are the staged operations.
	Ops []Op `yaml:"ops"`
}

// Op is a single staged operation inside a revision.
type Op struct {
	// Op selects the operation: stage, delete, undelete, approve,
	// reject, link, unlink, purge.
	Op string `yaml:"op"`

	// Ref is the scenario-local handle of the continuity (stage,
	// delete, undelete, approve, reject, purge). The first stage with
	// an unknown ref allocates a new continuity.
	Ref string `yaml:"ref,omitempty"`

	// Class names the entity class (stage of a new continuity) or the
	// association class (link/unlink).
	Class string `yaml:"class,omitempty"`

	// Attrs is the staged attribute snapshot (stage only).
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// Left and Right are the endpoint refs (link/unlink).
	Left  string `yaml:"left,omitempty"`
	Right string `yaml:"right,omitempty"`
}

// Operation name constants.
const (
	OpStage    = "stage"
	OpDelete   = "delete"
	OpUndelete = "undelete"
	OpApprove  = "approve"
	OpReject   = "reject"
	OpLink     = "link"
	OpUnlink   = "unlink"
	OpPurge    = "purge"
)

// Assertion validates resolution against the committed history.
type Assertion struct {
	// Type selects the assertion: resolve, links, traverse.
	Type string `yaml:"type"`

	// Ref is the handle of the continuity to resolve (or the traversal
	// root).
	Ref string `yaml:"ref"`

	// At is the sequence number to resolve at; 0 means latest.
	At int64 `yaml:"at,omitempty"`

	// IncludeDeleted resolves with the auditing variant.
	IncludeDeleted bool `yaml:"include_deleted,omitempty"`

	// Missing expects the resolution to report not found.
	Missing bool `yaml:"missing,omitempty"`

	// State is the expected state of the resolved version (resolve).
	State string `yaml:"state,omitempty"`

	// Attrs are the expected attribute values, subset match (resolve).
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// Class filters links by association class (links); empty matches
	// every class.
	Class string `yaml:"class,omitempty"`

	// Linked lists the expected linked refs (links), order-insensitive.
	Linked []string `yaml:"linked,omitempty"`

	// Entities lists the refs expected in a traversal snapshot
	// (traverse), order-insensitive.
	Entities []string `yaml:"entities,omitempty"`
}

// Assertion type constants.
const (
	AssertResolve  = "resolve"
	AssertLinks    = "links"
	AssertTraverse = "traverse"
)

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios loads every *.yaml scenario in a directory, sorted by
// file name for deterministic test order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Validate checks structural scenario invariants before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Revisions) == 0 {
		return fmt.Errorf("at least one revision is required")
	}
	for i, step := range s.Revisions {
		if len(step.Ops) == 0 {
			return fmt.Errorf("revision %d has no ops", i+1)
		}
		for j, op := range step.Ops {
			if err := validateOp(op); err != nil {
				return fmt.Errorf("revision %d op %d: %w", i+1, j+1, err)
			}
		}
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertResolve, AssertLinks, AssertTraverse:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i+1, a.Type)
		}
		if a.Ref == "" {
			return fmt.Errorf("assertion %d: ref is required", i+1)
		}
	}
	return nil
}

func validateOp(op Op) error {
	switch op.Op {
	case OpStage:
		if op.Ref == "" {
			return fmt.Errorf("stage requires ref")
		}
	case OpDelete, OpUndelete, OpApprove, OpReject, OpPurge:
		if op.Ref == "" {
			return fmt.Errorf("%s requires ref", op.Op)
		}
	case OpLink, OpUnlink:
		if op.Class == "" || op.Left == "" || op.Right == "" {
			return fmt.Errorf("%s requires class, left, and right", op.Op)
		}
	default:
		return fmt.Errorf("unknown op %q", op.Op)
	}
	return nil
}
