package harness

import "github.com/revgraph/revgraph/internal/model"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: every revision committed
	// and every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass.
	Errors []string `json:"errors,omitempty"`

	// Handles maps scenario refs to the continuity ids they bound.
	Handles map[string]string `json:"handles"`

	// Revisions are the committed revisions in sequence order.
	Revisions []model.Revision `json:"revisions"`

	// History pairs each revision with the versions it committed, in
	// staging order. Captured before the scenario store closes so golden
	// comparisons can serialize the full history afterwards.
	History []HistoryEntry `json:"history"`
}

// HistoryEntry is one revision and the versions it wrote.
type HistoryEntry struct {
	Revision model.Revision  `json:"revision"`
	Versions []model.Version `json:"versions"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Handles: make(map[string]string),
	}
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
