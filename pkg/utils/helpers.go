package utils

import (
	"strings"
	"unicode/utf8"
)

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ValidCoordinates reports whether lat/lon are inside WGS84 bounds. A zero in
// either axis is what an unset map picker sends, so it is rejected.
func ValidCoordinates(lat, lon float64) bool {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return lat != 0 && lon != 0
}

// RuneLen returns the character length of s after trimming surrounding space
func RuneLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
