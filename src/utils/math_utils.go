package utils

import (
	"math"
	"strconv"
	"strings"
)

// MinFloat returns the smaller of two float64 values.
func MinFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// AbsFloat returns the absolute value of a float64.
func AbsFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ParseDecimal parses a numeric string, tolerating a comma decimal separator
// and surrounding whitespace ("1.234,56" is not supported; "1234,56" is).
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
