package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(130, 0, 100))
	assert.Equal(t, 42.5, Clamp(42.5, 0, 100))
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"delhi", 28.6139, 77.2090, true},
		{"null island", 0, 0, false},
		{"zero latitude", 0, 12.5, false},
		{"zero longitude", 51.47, 0, false},
		{"lat out of range", 91, 10, false},
		{"lon out of range", 10, -181, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCoordinates(tt.lat, tt.lon))
		})
	}
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 5, RuneLen("  hello "))
	assert.Equal(t, 4, RuneLen("café"))
}
