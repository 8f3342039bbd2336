package dataset

import (
	"sort"
	"time"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/services/features"
	"CryptoPrep/internal/services/labels"
)

// Config carries the lag constants for assembly.
type Config struct {
	LagDepth int // deepest sigma/log-return lag, default 7
	RRLag    int // relative range lag, default 1
}

// DefaultConfig returns the research defaults.
func DefaultConfig() Config { return Config{LagDepth: 7, RRLag: 1} }

// BuildRows runs the feature and label engines over one cleaned series and
// returns its fully-defined feature rows in date order. Rows whose lag
// windows or forward label are incomplete are dropped, so a series of length
// L yields at most L - max(lagDepth, 1) - 1 rows. A series too short to seed
// a single row fails with *models.InsufficientHistoryError.
func BuildRows(s models.Series, cfg Config) ([]models.FeatureRow, error) {
	need := cfg.LagDepth + 2
	if len(s.Bars) < need {
		return nil, &models.InsufficientHistoryError{
			Currency: s.Currency, Have: len(s.Bars), Need: need,
		}
	}

	fv := features.Compute(s, cfg.LagDepth, cfg.RRLag)
	lv := labels.Compute(s)

	rows := make([]models.FeatureRow, 0, len(s.Bars)-cfg.LagDepth-1)
	for t := range s.Bars {
		if !fv.DefinedAt(t) || !lv.DefinedAt(t) {
			continue
		}
		sigma := make([]float64, cfg.LagDepth)
		lrl := make([]float64, cfg.LagDepth)
		for k := 0; k < cfg.LagDepth; k++ {
			sigma[k] = fv.Sigma[k][t]
			lrl[k] = fv.LogRetLag[k][t]
		}
		rows = append(rows, models.FeatureRow{
			Date:             s.Bars[t].Date,
			Currency:         s.Currency,
			Sigma:            sigma,
			RR:               fv.RR[t],
			PctChg:           fv.PctChg[t],
			LogRetLag:        lrl,
			DayName:          fv.DayName[t],
			FwdLogRet:        lv.FwdLogRet[t],
			FwdRet:           lv.FwdRet[t],
			FwdPctChg:        lv.FwdPctChg[t],
			FwdClosePositive: lv.FwdClosePositive[t],
		})
	}
	return rows, nil
}

// Assemble joins the per-currency feature rows into one table sorted by
// (currency, date). When more than one currency is requested, every currency
// is restricted to the intersection of the individually-valid date ranges so
// all currencies are compared over an identical window; an empty intersection
// fails with *models.AlignmentError.
func Assemble(series []models.Series, cfg Config) (*models.Dataset, error) {
	perCurrency := make([][]models.FeatureRow, 0, len(series))
	currencies := make([]string, 0, len(series))
	var from, to time.Time
	for i, s := range series {
		rows, err := BuildRows(s, cfg)
		if err != nil {
			return nil, err
		}
		first := rows[0].Date
		last := rows[len(rows)-1].Date
		if i == 0 || first.After(from) {
			from = first
		}
		if i == 0 || last.Before(to) {
			to = last
		}
		perCurrency = append(perCurrency, rows)
		currencies = append(currencies, s.Currency)
	}

	if len(series) > 1 && from.After(to) {
		return nil, &models.AlignmentError{
			Currencies: currencies, Reason: "valid date ranges do not overlap",
		}
	}

	var out []models.FeatureRow
	for _, rows := range perCurrency {
		for _, r := range rows {
			if len(series) > 1 && (r.Date.Before(from) || r.Date.After(to)) {
				continue
			}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Currency != out[j].Currency {
			return out[i].Currency < out[j].Currency
		}
		return out[i].Date.Before(out[j].Date)
	})

	return &models.Dataset{LagDepth: cfg.LagDepth, Rows: out}, nil
}

// Split partitions each currency's rows chronologically into train, validate
// and test sets by fraction of its row count.
func Split(ds *models.Dataset, trainFrac, validateFrac float64) map[string]models.SplitSet {
	byCurrency := make(map[string][]models.FeatureRow)
	for _, r := range ds.Rows {
		byCurrency[r.Currency] = append(byCurrency[r.Currency], r)
	}
	out := make(map[string]models.SplitSet, len(byCurrency))
	for cur, rows := range byCurrency {
		trainEnd := int(float64(len(rows)) * trainFrac)
		valEnd := trainEnd + int(float64(len(rows))*validateFrac)
		if valEnd > len(rows) {
			valEnd = len(rows)
		}
		out[cur] = models.SplitSet{
			Train:    rows[:trainEnd],
			Validate: rows[trainEnd:valEnd],
			Test:     rows[valEnd:],
		}
	}
	return out
}
