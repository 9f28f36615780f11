package exporter

import (
	"strconv"
)

// formatAmount formats money with exactly 2 decimal places
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatMean formats a cluster mean with 4 decimal places
func formatMean(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatShare formats a fraction as a percentage with one decimal
func formatShare(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 1, 64) + "%"
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
