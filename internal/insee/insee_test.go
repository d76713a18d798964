package insee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"75056", "75056"},
		{" 75056 ", "75056"},
		{"1001", "01001"},
		{"1001.0", "01001"},
		{"2a004", "2A004"},
		{"97411", "97411"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCode(tt.in), "input %q", tt.in)
	}
}

func TestDepartmentFromCode(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"75056", "75"},
		{"01001", "01"},
		{"2A004", "2A"},
		{"2B033", "2B"},
		{"97411", "974"},
		{"97209", "972"},
		{"69", "69"},
		{"7", "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DepartmentFromCode(tt.code), "code %q", tt.code)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		def  float64
		want float64
	}{
		{"123", 0, 123},
		{"123.45", 0, 123.45},
		{"123,45", 0, 123.45},
		{"1 234,5", 0, 1234.5},
		{"1 234", 0, 1234},
		{"", 42, 42},
		{"n/a", 42, 42},
		{"  close enough ", 7, 7},
		{"-3,2", 0, -3.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseNumber(tt.in, tt.def), 1e-9, "input %q", tt.in)
	}
}
