package store

import (
	"testing"
	"time"

	"github.com/revgraph/revgraph/internal/model"
)

func TestMarshalAttrs_Nil(t *testing.T) {
	text, err := marshalAttrs(nil)
	if err != nil {
		t.Fatalf("marshalAttrs(nil) failed: %v", err)
	}
	if text != "{}" {
		t.Errorf("marshalAttrs(nil) = %q, want %q", text, "{}")
	}
}

func TestMarshalAttrs_RoundTrip(t *testing.T) {
	attrs := model.Attrs{
		"name":   model.String("Rincewind"),
		"age":    model.Int(33),
		"wizard": model.Bool(true),
		"spells": model.List{model.String("run away")},
		"hat":    model.Null{},
	}

	text, err := marshalAttrs(attrs)
	if err != nil {
		t.Fatalf("marshalAttrs() failed: %v", err)
	}

	decoded, err := unmarshalAttrs(text)
	if err != nil {
		t.Fatalf("unmarshalAttrs() failed: %v", err)
	}

	again, err := marshalAttrs(decoded)
	if err != nil {
		t.Fatalf("second marshalAttrs() failed: %v", err)
	}
	if text != again {
		t.Errorf("round trip changed bytes: %q vs %q", text, again)
	}
}

func TestUnmarshalAttrs_Invalid(t *testing.T) {
	if _, err := unmarshalAttrs("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := unmarshalAttrs(`{"pi": 3.14}`); err == nil {
		t.Error("expected error for non-integer number")
	}
}

func TestMarshalTime_UTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	local := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)

	text := marshalTime(local)

	parsed, err := unmarshalTime(text)
	if err != nil {
		t.Fatalf("unmarshalTime() failed: %v", err)
	}
	if !parsed.Equal(local) {
		t.Errorf("round trip = %v, want instant %v", parsed, local)
	}
	if parsed.Location() != time.UTC {
		t.Errorf("stored location = %v, want UTC", parsed.Location())
	}
}

func TestMarshalTime_LexicalOrder(t *testing.T) {
	// Lexical order on the stored text must match chronological order,
	// since SequenceAtTime compares strings in SQL.
	times := []time.Time{
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 1, time.UTC),
		time.Date(2024, 10, 2, 3, 4, 5, 0, time.UTC),
	}
	for i := 1; i < len(times); i++ {
		a, b := marshalTime(times[i-1]), marshalTime(times[i])
		if !(a < b) {
			t.Errorf("lexical order broken: %q >= %q", a, b)
		}
	}
}

func TestUnmarshalTime_Invalid(t *testing.T) {
	if _, err := unmarshalTime("yesterday"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}
