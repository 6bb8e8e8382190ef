package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"null", Null{}, "null"},
		{"empty list", List{}, "[]"},
		{"empty attrs", Attrs{}, "{}"},
		{"list of ints", List{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple attrs", Attrs{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	attrs := Attrs{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
	}

	result, err := MarshalCanonical(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	attrs := Attrs{
		"z": Attrs{
			"b": Int(1),
			"a": Int(2),
		},
		"a": Int(3),
	}

	result, err := MarshalCanonical(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8 byte order.
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00, which sorts
	// before 0xE000 in UTF-16 but after it in UTF-8.
	attrs := Attrs{
		"":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(attrs)
	require.NoError(t, err)

	expected := `{"` + "\U00010000" + `":2,"` + "" + `":1}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	attrs := Attrs{"html": String(`<a href="x">&</a>`)}

	result, err := MarshalCanonical(attrs)
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<a href=\"x\">&</a>"}`, string(result))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// U+2028 and U+2029 stay literal per RFC 8785.
	result, err := MarshalCanonical(String("a b c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a b c\"", string(result))

	// A literal backslash followed by the text "u2028" must stay escaped.
	result, err = MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent normalizes to the precomposed form.
	decomposed := String("é")
	precomposed := String("é")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(precomposed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalNilValue(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	attrs := Attrs{
		"name": String("Rincewind"),
		"luck": Int(-1),
		"tags": List{String("wizard"), Bool(false), Null{}},
		"meta": Attrs{"hat": String("pointy"), "age": Int(33)},
	}

	first, err := MarshalCanonical(attrs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(attrs)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	original := Attrs{
		"name":    String("Twoflower"),
		"luggage": Bool(true),
		"gold":    Int(1000),
		"eyes":    Null{},
		"path":    List{String("a"), List{Int(1)}, Attrs{"x": Int(2)}},
	}

	data, err := MarshalCanonical(original)
	require.NoError(t, err)
	decoded, err := ParseAttrs(data)
	require.NoError(t, err)
	again, err := MarshalCanonical(decoded)
	require.NoError(t, err)

	assert.Equal(t, string(data), string(again))
}
