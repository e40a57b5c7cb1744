package pdftext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf to lf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs collapse", "a\t\tb", "a b"},
		{"space runs collapse", "R:    40.00", "R: 40.00"},
		{"blank lines collapse", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing spaces trimmed", "a   \nb", "a\nb"},
		{"digits untouched", "pay 0123.45 O5", "pay 0123.45 O5"},
		{"outer whitespace trimmed", "  x  ", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestHeuristicQuality(t *testing.T) {
	low := heuristicQuality("garbled")
	high := heuristicQuality("JOHN A SMITH ***-**-1234 Week Ending: 6/07/2003 " +
		"R: 40.00 O: 5.00 25.00 1100.00 150.00 900.00 some more page content to cross the length bar")

	assert.Less(t, low, high)
	assert.LessOrEqual(t, high, float32(1.0))
}
