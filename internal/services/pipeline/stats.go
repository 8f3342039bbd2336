package pipeline

import "sort"

// quantile returns the q-th quantile of xs using linear interpolation
// between order statistics (the numpy default used by the research code).
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	lo := int(pos)
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	frac := pos - float64(lo)
	return s[lo] + frac*(s[lo+1]-s[lo])
}

// iqr returns the interquartile range Q3 - Q1.
func iqr(xs []float64) float64 {
	return quantile(xs, 0.75) - quantile(xs, 0.25)
}
