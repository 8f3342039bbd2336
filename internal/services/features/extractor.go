package features

import (
	"math"

	"CryptoPrep/internal/domain/models"
)

// Undefined marks a feature value whose lag window is incomplete. Rows
// carrying it are dropped by the assembler, never imputed.
var Undefined = math.NaN()

// IsDefined reports whether v carries a real feature value.
func IsDefined(v float64) bool { return !math.IsNaN(v) }

// fourLn2 is the Parkinson estimator normalization constant.
var fourLn2 = 4 * math.Ln2

// ParkinsonSigma computes the lag-k Parkinson volatility estimate for every
// bar: the scaled squared log high/low ranges of the k prior days, averaged
// over the window and square-rooted.
//
//	sigma_k(t) = sqrt( (1/(4*ln2*k)) * sum_{j=1..k} ln(high_{t-j}/low_{t-j})^2 )
//
// The first k entries are Undefined: a partial window is statistically biased
// and must not silently enter the dataset.
func ParkinsonSigma(bars []models.Bar, k int) []float64 {
	out := make([]float64, len(bars))
	for t := range bars {
		if t < k {
			out[t] = Undefined
			continue
		}
		sum := 0.0
		for j := 1; j <= k; j++ {
			r := math.Log(bars[t-j].High / bars[t-j].Low)
			sum += r * r
		}
		out[t] = math.Sqrt(sum / (fourLn2 * float64(k)))
	}
	return out
}

// RelativeRange computes RR_t = (high_{t-lag} - low_{t-lag}) / close_{t-lag},
// the prior day's range normalized by its close (default lag 1). Undefined for
// the first lag days.
func RelativeRange(bars []models.Bar, lag int) []float64 {
	out := make([]float64, len(bars))
	for t := range bars {
		if t < lag {
			out[t] = Undefined
			continue
		}
		p := bars[t-lag]
		out[t] = (p.High - p.Low) / p.Close
	}
	return out
}

// PctChange computes close_t/close_{t-1} - 1. Undefined for the first bar.
func PctChange(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for t := range bars {
		if t == 0 {
			out[t] = Undefined
			continue
		}
		out[t] = bars[t].Close/bars[t-1].Close - 1
	}
	return out
}

// LogReturnLag computes ln(close_t) - ln(close_{t-k}). Undefined for the
// first k bars.
func LogReturnLag(bars []models.Bar, k int) []float64 {
	out := make([]float64, len(bars))
	for t := range bars {
		if t < k {
			out[t] = Undefined
			continue
		}
		out[t] = math.Log(bars[t].Close) - math.Log(bars[t-k].Close)
	}
	return out
}

// Vector holds every engineered feature for one series, indexed like the
// input bars. Undefined entries mark incomplete lag windows.
type Vector struct {
	Sigma     [][]float64 // [lag-1][t]
	RR        []float64
	PctChg    []float64
	LogRetLag [][]float64 // [lag-1][t]
	DayName   []string
}

// Compute runs the feature engine over a cleaned series. lagDepth is the
// deepest sigma/log-return lag (default 7); rrLag the single RR lag
// (default 1). Pure function: the input series is never mutated.
func Compute(s models.Series, lagDepth, rrLag int) Vector {
	v := Vector{
		Sigma:     make([][]float64, lagDepth),
		LogRetLag: make([][]float64, lagDepth),
		RR:        RelativeRange(s.Bars, rrLag),
		PctChg:    PctChange(s.Bars),
		DayName:   make([]string, len(s.Bars)),
	}
	for k := 1; k <= lagDepth; k++ {
		v.Sigma[k-1] = ParkinsonSigma(s.Bars, k)
		v.LogRetLag[k-1] = LogReturnLag(s.Bars, k)
	}
	for t, b := range s.Bars {
		v.DayName[t] = b.Date.Weekday().String()
	}
	return v
}

// DefinedAt reports whether every feature at index t is defined.
func (v Vector) DefinedAt(t int) bool {
	if !IsDefined(v.RR[t]) || !IsDefined(v.PctChg[t]) {
		return false
	}
	for k := range v.Sigma {
		if !IsDefined(v.Sigma[k][t]) || !IsDefined(v.LogRetLag[k][t]) {
			return false
		}
	}
	return true
}
