package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPrep/internal/domain/models"
	domrepo "CryptoPrep/internal/domain/repository"
)

// DatasetQuery provides read access to the assembled dataset for the API.
// It serves from the in-memory result of the latest run and falls back to
// the feature store when one is configured.
type DatasetQuery struct {
	store domrepo.FeatureStore
	last  *models.Dataset
}

func NewDatasetQuery(store domrepo.FeatureStore) *DatasetQuery {
	return &DatasetQuery{store: store}
}

// SetLatest publishes the most recent pipeline result for serving.
func (uc *DatasetQuery) SetLatest(ds *models.Dataset) { uc.last = ds }

// Latest returns the most recent pipeline result, nil if none.
func (uc *DatasetQuery) Latest() *models.Dataset { return uc.last }

type GetRowsParams struct {
	Currency string    `json:"currency"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Limit    int       `json:"limit"`
}

type GetRowsResult struct {
	Currency string              `json:"currency"`
	From     time.Time           `json:"from"`
	To       time.Time           `json:"to"`
	Count    int                 `json:"count"`
	Rows     []models.FeatureRow `json:"rows"`
}

func (uc *DatasetQuery) GetRows(ctx context.Context, p GetRowsParams) (*GetRowsResult, error) {
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 100000 {
		p.Limit = 100000
	}

	rows, err := uc.rows(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}
	if len(rows) > p.Limit {
		rows = rows[:p.Limit]
	}

	return &GetRowsResult{
		Currency: p.Currency,
		From:     p.From,
		To:       p.To,
		Count:    len(rows),
		Rows:     rows,
	}, nil
}

func (uc *DatasetQuery) rows(ctx context.Context, p GetRowsParams) ([]models.FeatureRow, error) {
	if uc.last != nil {
		out := make([]models.FeatureRow, 0, len(uc.last.Rows))
		for _, r := range uc.last.Rows {
			if p.Currency != "" && r.Currency != p.Currency {
				continue
			}
			if !p.From.IsZero() && r.Date.Before(p.From) {
				continue
			}
			if !p.To.IsZero() && r.Date.After(p.To) {
				continue
			}
			out = append(out, r)
		}
		return out, nil
	}
	if uc.store == nil {
		return nil, fmt.Errorf("no dataset available")
	}
	from, to := p.From, p.To
	if from.IsZero() {
		from = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return uc.store.GetRows(ctx, p.Currency, from, to, p.Limit)
}

// Corrections returns the cleaning audit log from the latest run, optionally
// filtered by currency.
func (uc *DatasetQuery) Corrections(currency string) []models.Correction {
	if uc.last == nil {
		return nil
	}
	out := make([]models.Correction, 0, len(uc.last.Corrections))
	for _, c := range uc.last.Corrections {
		if currency != "" && c.Currency != currency {
			continue
		}
		out = append(out, c)
	}
	return out
}
