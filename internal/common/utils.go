package common

import (
	"math"
	"strconv"
	"strings"
)

// ParseLatLon reports whether s is a "lat,lon" pair and returns the parsed values.
// Whitespace around either component is ignored.
func ParseLatLon(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false
	}
	return lat, lon, true
}

// RoundHalfUp rounds to the nearest integer, moving exact halves toward +Inf
// (-2.5 becomes -2, 2.5 becomes 3).
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// RoundTo rounds v to the given number of decimal places using RoundHalfUp.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return RoundHalfUp(v*p) / p
}
