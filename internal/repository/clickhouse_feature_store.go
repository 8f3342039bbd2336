package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CryptoPrep/internal/domain/models"
	domrepo "CryptoPrep/internal/domain/repository"
	pkgch "CryptoPrep/pkg/clickhouse"
	applogger "CryptoPrep/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse. It doubles as
// an export backend: Export batch-writes the assembled dataset.
type CHFeatureStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, table string) *CHFeatureStore {
	return &CHFeatureStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

// Schema returns the idempotent DDL for the feature row table.
func Schema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			date Date,
			currency String,
			sigma Array(Float64),
			rr Float64,
			pct_chg Float64,
			log_ret_lag Array(Float64),
			day_name String,
			fwd_log_ret Float64,
			fwd_ret Float64,
			fwd_pct_chg Float64,
			fwd_close_positive UInt8
		) ENGINE=ReplacingMergeTree ORDER BY (currency, date)`, table),
	}
}

func (s *CHFeatureStore) WriteRows(ctx context.Context, rows []models.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	// Multi-row VALUES insert, chunked to bound statement size.
	const chunkSize = 2000
	for lo := 0; lo < len(rows); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*11)
		for _, r := range rows[lo:hi] {
			positive := uint8(0)
			if r.FwdClosePositive {
				positive = 1
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Date, r.Currency, r.Sigma, r.RR, r.PctChg, r.LogRetLag,
				r.DayName, r.FwdLogRet, r.FwdRet, r.FwdPctChg, positive,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (date, currency, sigma, rr, pct_chg, log_ret_lag, day_name, fwd_log_ret, fwd_ret, fwd_pct_chg, fwd_close_positive) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse write_rows insert error",
					applogger.String("table", s.table),
					applogger.Int("rows", hi-lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("write rows: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("clickhouse write_rows ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHFeatureStore) GetRows(ctx context.Context, currency string, from, to time.Time, limit int) ([]models.FeatureRow, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, currency, sigma, rr, pct_chg, log_ret_lag, day_name,
               fwd_log_ret, fwd_ret, fwd_pct_chg, fwd_close_positive
        FROM %s
        WHERE (? = '' OR currency = ?) AND date >= ? AND date <= ?
        ORDER BY currency ASC, date ASC
        LIMIT ?
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, currency, currency, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_rows query error",
				applogger.String("table", s.table),
				applogger.String("currency", currency),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get rows: %w", err)
	}
	defer rows.Close()

	out := make([]models.FeatureRow, 0, 1024)
	for rows.Next() {
		var r models.FeatureRow
		var positive uint8
		if err := rows.Scan(&r.Date, &r.Currency, &r.Sigma, &r.RR, &r.PctChg, &r.LogRetLag,
			&r.DayName, &r.FwdLogRet, &r.FwdRet, &r.FwdPctChg, &positive); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_rows scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.FwdClosePositive = positive == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_rows ok",
			applogger.String("table", s.table),
			applogger.String("currency", currency),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Export implements the Exporter backend for ClickHouse.
func (s *CHFeatureStore) Export(ctx context.Context, ds *models.Dataset) error {
	return s.WriteRows(ctx, ds.Rows)
}

func (s *CHFeatureStore) Name() string { return "clickhouse" }

var (
	_ domrepo.FeatureStore = (*CHFeatureStore)(nil)
	_ domrepo.Exporter     = (*CHFeatureStore)(nil)
)
