package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestNormalizeText(t *testing.T) {
	decomposed := norm.NFD.String("Phòng Ngủ")

	assert.Equal(t, "phòng ngủ", NormalizeText(decomposed))
	assert.Equal(t, "a b c", NormalizeText("  A \t b\n\nC "))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestFoldAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"phòng ngủ", "phong ngu"},
		{"Đà Nẵng", "Da Nang"},
		{"việt nam", "viet nam"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FoldAccents(tt.in))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50", 50},
		{"1,5", 1.5},
		{"1.5", 1.5},
		{"1,500", 1500},
		{"1.200.000", 1200000},
		{"2,25", 2.25},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDecimal_Malformed(t *testing.T) {
	for _, in := range []string{"", "1,2,3", ",5", "5.", "1..2", "abc"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDecimal(in)
			assert.ErrorIs(t, err, ErrMalformedNumber)
		})
	}
}
