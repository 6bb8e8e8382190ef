// Package harness provides a scenario testing framework for the
// revisioning engine.
//
// Scenarios are YAML files describing a sequence of revisions (each a
// list of staged operations committed as one unit) followed by
// assertions over as-of resolution, link resolution, and graph
// traversal. Each scenario runs against a fresh temp-file database with
// a deterministic clock and sequential id generator, so the same
// scenario always produces a byte-identical history; RunWithGolden
// serializes that history to canonical JSON and compares it against a
// golden file.
//
// Scenario references ("refs") are local handles: the first stage op
// using a ref allocates a continuity and binds the handle; later ops and
// assertions address the continuity through it.
package harness
