package store

import (
	"fmt"
	"time"

	"github.com/revgraph/revgraph/internal/model"
)

// marshalAttrs converts an attribute snapshot to canonical JSON TEXT for
// storage. Canonical serialization makes equal snapshots byte-equal, so a
// delete/undelete round trip stores identical attrs text.
func marshalAttrs(attrs model.Attrs) (string, error) {
	if attrs == nil {
		attrs = model.Attrs{}
	}
	data, err := model.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

// unmarshalAttrs decodes stored snapshot TEXT.
func unmarshalAttrs(text string) (model.Attrs, error) {
	attrs, err := model.ParseAttrs([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	return attrs, nil
}

// Timestamps are stored as RFC 3339, always UTC, with a fixed-width
// nine-digit fraction so that lexical comparison in SQL matches
// chronological comparison. RFC3339Nano would trim trailing zeros and
// break the ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal timestamp %q: %w", s, err)
	}
	return t, nil
}
