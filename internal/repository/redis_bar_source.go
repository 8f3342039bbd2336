package repository

import (
	"context"
	"errors"
	"time"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/domain/repository"
	"CryptoPrep/pkg/cache"
	applogger "CryptoPrep/pkg/logger"
)

// RedisBarSource caches exchange responses keyed by currency and window,
// typically behind a layered memory+Redis cache. Cache errors other than a
// miss are logged and the fetch falls through to the upstream source.
type RedisBarSource struct {
	svc      cache.Service
	upstream repository.BarSource
	ttl      time.Duration
	l        *applogger.Logger
}

func NewRedisBarSource(svc cache.Service, upstream repository.BarSource, ttl time.Duration) *RedisBarSource {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &RedisBarSource{svc: svc, upstream: upstream, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *RedisBarSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *RedisBarSource) key(currency string, start, end time.Time) string {
	return cache.GenerateKeyWithParams("bars", currency,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func (s *RedisBarSource) GetDailyBars(ctx context.Context, currency string, start, end time.Time) ([]models.Bar, error) {
	key := s.key(currency, start, end)
	var bars []models.Bar
	err := s.svc.Get(ctx, key, &bars)
	if err == nil {
		if s.l != nil {
			s.l.Debug("redis bar cache hit", applogger.String("key", key))
		}
		return bars, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) && s.l != nil {
		s.l.Warn("redis bar cache get error", applogger.Error(err))
	}

	bars, err = s.upstream.GetDailyBars(ctx, currency, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Set(ctx, key, bars, s.ttl); err != nil && s.l != nil {
		s.l.Warn("redis bar cache set error", applogger.Error(err))
	}
	return bars, nil
}

var _ repository.BarSource = (*RedisBarSource)(nil)
