package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseHours parses a non-negative decimal with at most three integer digits
// and two fractional digits, matching a numeric(5,2) column.
func ParseHours(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("hours procrastinated is required")
	}

	h, err := strconv.ParseFloat(s, 64)
	if err != nil || strings.ContainsAny(s, "xX") || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, fmt.Errorf("hours procrastinated must be a number")
	}
	if h < 0 {
		return 0, fmt.Errorf("hours procrastinated cannot be negative")
	}

	intPart, fracPart, _ := strings.Cut(strings.TrimLeft(s, "+"), ".")
	if strings.ContainsAny(s, "eE") {
		// Exponent forms are normalized before counting digits.
		intPart, fracPart, _ = strings.Cut(strconv.FormatFloat(h, 'f', -1, 64), ".")
	}
	if len(strings.TrimLeft(intPart, "0")) > 3 {
		return 0, fmt.Errorf("hours procrastinated must not exceed 999.99")
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("hours procrastinated must have at most 2 decimal places")
	}

	return h, nil
}
