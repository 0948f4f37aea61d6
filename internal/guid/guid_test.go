package guid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	a := New()
	b := New()
	assert.Len(t, a, Length)
	assert.True(t, Valid(a))
	assert.NotEqual(t, a, b)
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"64512cbbbf3549adbb9b10b1b9e04e4a", true},
		{"64512CBBBF3549ADBB9B10B1B9E04E4A", true},
		{"64512cbbbf3549adbb9b10b1b9e04e4", false},  // too short
		{"64512cbbbf3549adbb9b10b1b9e04e4az", false}, // too long
		{"64512cbbbf3549adbb9b10b1b9e04e4g", false},  // non-hex
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Valid(tt.in), "Valid(%q)", tt.in)
	}
}
