package analytics

import (
	"fmt"
	"math"
	"time"
)

// clamp restricts a value to a range
func clamp(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// round rounds to specified decimal places
func round(value float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(value*mult) / mult
}

// percentOf returns part/whole*100, or 0 when whole is not positive
func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// safeDiv returns a/b, or 0 when b is zero
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// quarterOf returns the calendar quarter (1-4) of t
func quarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// monthKey formats t as YYYY-MM
func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// quarterKey formats t as YYYY-Qn
func quarterKey(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), quarterOf(t))
}

// quarterLabel formats t as "YYYY Qn"
func quarterLabel(t time.Time) string {
	return fmt.Sprintf("%d Q%d", t.Year(), quarterOf(t))
}
