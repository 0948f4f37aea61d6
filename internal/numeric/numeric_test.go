package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Numeric
	}{
		{"100/100", Numeric{100, 100}},
		{"-2550/100", Numeric{-2550, 100}},
		{"0/1", Numeric{0, 1}},
		{"7/-2", Numeric{-7, 2}}, // sign normalizes onto the numerator
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, "Parse(%q)", tt.in)
		assert.Equal(t, tt.want, got, "Parse(%q)", tt.in)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "100", "100/", "/100", "1.5/100", "100/1e2", "a/b"} {
		_, err := Parse(in)
		var malformed *MalformedAmountError
		require.ErrorAs(t, err, &malformed, "Parse(%q)", in)
		assert.Equal(t, in, malformed.Input)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		num, denom int64
		want       string
	}{
		{1250, 100, "125/10"}, // trailing zero pair stripped, no full reduction
		{2550, 100, "255/10"},
		{100, 100, "1/1"},
		{25, 100, "25/100"}, // not divisible by 10, left alone
		{0, 5, "0/1"},
		{5, 0, "1/0"},
		{-1250, 100, "-125/10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.num, tt.denom).String(), "String(%d/%d)", tt.num, tt.denom)
	}
}

func TestAdd(t *testing.T) {
	sum := New(150, 100).Add(New(-150, 100))
	assert.True(t, sum.IsZero())

	// Mixed denominators rescale exactly.
	sum = New(1, 2).Add(New(1, 3))
	assert.True(t, sum.Equal(New(5, 6)))

	// Long sums keep denominators small enough to stay in int64 range.
	total := Zero
	for i := 0; i < 10000; i++ {
		total = total.Add(New(333, 100))
	}
	assert.True(t, total.Equal(New(3330000, 100)))
}

func TestEqualAcrossRepresentations(t *testing.T) {
	assert.True(t, New(1, 2).Equal(New(50, 100)))
	assert.False(t, New(1, 2).Equal(New(51, 100)))
}

func TestDecimal(t *testing.T) {
	d := New(-2550, 100).Decimal()
	assert.Equal(t, "-25.5", d.String())
}
