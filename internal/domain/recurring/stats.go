package recurring

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// medianFloat is the standard median: the middle value, or the mean of the
// two middle values for even-length input. NaN for empty input.
func medianFloat(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// medianDecimal is the exact-arithmetic median over decimals. Zero for
// empty input.
func medianDecimal(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Decimal{}
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].LessThan(sorted[b])
	})

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(two)
}
