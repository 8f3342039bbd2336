package labels

import (
	"math"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/services/features"
)

func mkSeries(closes ...float64) models.Series {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1,
		}
	}
	return models.Series{Currency: "BTC-USD", Bars: bars}
}

func TestComputeForwardLabels(t *testing.T) {
	v := Compute(mkSeries(100, 105, 103))

	if math.Abs(v.FwdLogRet[0]-math.Log(1.05)) > 1e-12 {
		t.Fatalf("FwdLogRet[0] = %v, want ln(1.05)", v.FwdLogRet[0])
	}
	if v.FwdRet[0] != 5 {
		t.Fatalf("FwdRet[0] = %v, want 5", v.FwdRet[0])
	}
	if math.Abs(v.FwdPctChg[0]-0.05) > 1e-12 {
		t.Fatalf("FwdPctChg[0] = %v, want 0.05", v.FwdPctChg[0])
	}
	if !v.FwdClosePositive[0] {
		t.Fatalf("FwdClosePositive[0] should be true")
	}

	if math.Abs(v.FwdLogRet[1]-math.Log(103.0/105.0)) > 1e-12 {
		t.Fatalf("FwdLogRet[1] = %v", v.FwdLogRet[1])
	}
	if v.FwdClosePositive[1] {
		t.Fatalf("FwdClosePositive[1] should be false")
	}
}

func TestComputeLastBarUndefined(t *testing.T) {
	v := Compute(mkSeries(100, 105, 103))
	if features.IsDefined(v.FwdLogRet[2]) || features.IsDefined(v.FwdRet[2]) || features.IsDefined(v.FwdPctChg[2]) {
		t.Fatalf("last bar labels should be undefined")
	}
	if v.DefinedAt(2) {
		t.Fatalf("DefinedAt(last) should be false")
	}
	if !v.DefinedAt(0) {
		t.Fatalf("DefinedAt(0) should be true")
	}
}

func TestComputeFlatCloseNotPositive(t *testing.T) {
	v := Compute(mkSeries(100, 100))
	if v.FwdClosePositive[0] {
		t.Fatalf("flat close must not label positive")
	}
	if v.FwdLogRet[0] != 0 {
		t.Fatalf("flat close log return = %v, want 0", v.FwdLogRet[0])
	}
}
