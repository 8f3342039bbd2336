package models

import (
	"fmt"
	"time"
)

// FeatureRow is the assembled, fully-defined modeling unit for one
// (currency, date). Rows exist only when every feature and label is defined;
// boundary rows are dropped by the assembler, never imputed.
type FeatureRow struct {
	Date     time.Time `json:"date" parquet:"date"`
	Currency string    `json:"currency" parquet:"currency"`

	// Parkinson range-based volatility estimates for lags 1..lagDepth.
	Sigma []float64 `json:"sigma" parquet:"sigma,list"`
	// Prior day's (high-low)/close.
	RR float64 `json:"rr" parquet:"rr"`

	PctChg    float64   `json:"pct_chg" parquet:"pct_chg"`
	LogRetLag []float64 `json:"log_ret_lag" parquet:"log_ret_lag,list"`
	DayName   string    `json:"day_name" parquet:"day_name"`

	FwdLogRet        float64 `json:"fwd_log_ret" parquet:"fwd_log_ret"`
	FwdRet           float64 `json:"fwd_ret" parquet:"fwd_ret"`
	FwdPctChg        float64 `json:"fwd_pct_chg" parquet:"fwd_pct_chg"`
	FwdClosePositive bool    `json:"fwd_close_positive" parquet:"fwd_close_positive"`
}

// Dataset is the assembled Feature Row table, sorted by (currency, date).
type Dataset struct {
	LagDepth    int
	Rows        []FeatureRow
	Corrections []Correction
}

// ColumnNames returns the tabular export schema for the given lag depth.
func ColumnNames(lagDepth int) []string {
	cols := []string{"date", "currency"}
	for k := 1; k <= lagDepth; k++ {
		cols = append(cols, fmt.Sprintf("sigma_%d", k))
	}
	cols = append(cols, "rr", "pct_chg")
	for k := 1; k <= lagDepth; k++ {
		cols = append(cols, fmt.Sprintf("log_ret_lag_%d", k))
	}
	cols = append(cols, "day_name", "fwd_log_ret", "fwd_ret", "fwd_pct_chg", "fwd_close_positive")
	return cols
}

// SplitSet holds one chronological partition of the dataset per currency.
type SplitSet struct {
	Train    []FeatureRow
	Validate []FeatureRow
	Test     []FeatureRow
}
