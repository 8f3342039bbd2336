package repository

import (
	"context"
	"time"

	"CryptoPrep/internal/domain/models"
)

// FeatureStore provides persistent access to assembled feature rows.
type FeatureStore interface {
	WriteRows(ctx context.Context, rows []models.FeatureRow) error
	GetRows(ctx context.Context, currency string, from, to time.Time, limit int) ([]models.FeatureRow, error)
}
