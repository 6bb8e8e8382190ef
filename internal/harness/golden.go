package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/revgraph/revgraph/internal/model"
)

// HistorySnapshot captures the committed history of a scenario run for
// golden comparison. Serialized with canonical JSON so byte equality is
// meaningful.
type HistorySnapshot struct {
	ScenarioName string
	History      []HistoryEntry
}

// toCanonicalMap converts the snapshot to plain maps and slices, the
// shapes model.MarshalCanonical accepts via ToValue.
func (s *HistorySnapshot) toCanonicalMap() map[string]any {
	entries := make([]any, len(s.History))
	for i, entry := range s.History {
		versions := make([]any, len(entry.Versions))
		for j, v := range entry.Versions {
			versions[j] = map[string]any{
				"continuity_id":    v.ContinuityID,
				"class":            v.Class,
				"sequence":         v.Sequence,
				"state":            string(v.State),
				"attrs":            v.Attrs,
				"expired_sequence": v.ExpiredSequence,
			}
		}
		entries[i] = map[string]any{
			"revision": map[string]any{
				"id":           entry.Revision.ID,
				"sequence":     entry.Revision.Sequence,
				"author":       entry.Revision.Author,
				"message":      entry.Revision.Message,
				"committed_at": entry.Revision.Timestamp.UTC().Format(time.RFC3339Nano),
			},
			"versions": versions,
		}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"history":       entries,
	}
}

// marshal serializes the snapshot as canonical JSON.
func (s *HistorySnapshot) marshal() ([]byte, error) {
	value, err := model.ToValue(s.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	return model.MarshalCanonical(value)
}

// RunWithGolden executes a scenario and compares its committed history
// against testdata/golden/{scenario.Name}.golden. Regenerate golden
// files with:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution itself fails; history drift is
// reported as a test failure through goldie.
func (h *Harness) RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := h.Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-obtained result's history against the
// golden file named scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := HistorySnapshot{
		ScenarioName: scenarioName,
		History:      result.History,
	}
	historyJSON, err := snapshot.marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, historyJSON)
	return nil
}
