package labels

import (
	"math"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/services/features"
)

// Vector holds the forward-looking targets for one series, indexed like the
// input bars. The last entry of each field is Undefined: no future bar exists.
type Vector struct {
	FwdLogRet        []float64
	FwdRet           []float64
	FwdPctChg        []float64
	FwdClosePositive []bool
}

// Compute derives every forward label from adjacent closes:
//
//	fwd_log_ret(t)        = ln(close_{t+1}/close_t)
//	fwd_ret(t)            = close_{t+1} - close_t
//	fwd_pct_chg(t)        = close_{t+1}/close_t - 1
//	fwd_close_positive(t) = close_{t+1} > close_t
//
// It must run on a cleaned series only, so corrected values feed both
// current-day features and next-day labels, and it joins strictly on the
// exact next bar in the series, never any other date.
func Compute(s models.Series) Vector {
	n := len(s.Bars)
	v := Vector{
		FwdLogRet:        make([]float64, n),
		FwdRet:           make([]float64, n),
		FwdPctChg:        make([]float64, n),
		FwdClosePositive: make([]bool, n),
	}
	for t := range s.Bars {
		if t == n-1 {
			v.FwdLogRet[t] = features.Undefined
			v.FwdRet[t] = features.Undefined
			v.FwdPctChg[t] = features.Undefined
			continue
		}
		cur := s.Bars[t].Close
		next := s.Bars[t+1].Close
		v.FwdLogRet[t] = math.Log(next / cur)
		v.FwdRet[t] = next - cur
		v.FwdPctChg[t] = next/cur - 1
		v.FwdClosePositive[t] = next > cur
	}
	return v
}

// DefinedAt reports whether the forward labels at index t are defined.
func (v Vector) DefinedAt(t int) bool {
	return features.IsDefined(v.FwdLogRet[t])
}
