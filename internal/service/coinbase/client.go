package coinbase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"CryptoPrep/internal/domain/models"
	drepo "CryptoPrep/internal/domain/repository"
	"CryptoPrep/internal/service/ratelimit"
	xhttp "CryptoPrep/pkg/http"
	"CryptoPrep/pkg/util"
)

// pageDays is the largest daily-candle window the exchange returns per
// request (300 candles).
const pageDays = 300

// Client fetches daily OHLCV candles from a Coinbase-style exchange REST API.
// It implements repository.BarSource. The fetch is one-shot per window: no
// internal retries, per the pipeline's fail-closed contract.
type Client struct {
	baseURL     string
	granularity int
	client      *xhttp.Client
	rl          *ratelimit.Limiter
	rlCapacity  float64
	rlRefill    float64
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client = xhttp.NewClient(xhttp.WithTimeout(d))
	}
}

// WithRateLimit caps request rate against the exchange (tokens, refill/sec).
func WithRateLimit(capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.rlCapacity = capacity
		c.rlRefill = refillPerSec
	}
}

// New creates an exchange candles client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		granularity: 86400,
		client:      xhttp.NewClient(xhttp.WithTimeout(15 * time.Second)),
		rl:          ratelimit.New(),
		rlCapacity:  3,
		rlRefill:    3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candle is the exchange wire format: [ time, low, high, open, close, volume ].
type candle [6]float64

// GetDailyBars fetches daily bars for a product over [start, end] inclusive,
// paging through the exchange's 300-candle response limit and returning bars
// sorted ascending by date.
func (c *Client) GetDailyBars(ctx context.Context, currency string, start, end time.Time) ([]models.Bar, error) {
	product := string(drepo.NormalizeProduct(currency))
	bars := make([]models.Bar, 0, util.DaysBetween(start, end)+1)

	for from := start; !from.After(end); from = from.AddDate(0, 0, pageDays) {
		to := from.AddDate(0, 0, pageDays-1)
		if to.After(end) {
			to = end
		}
		page, err := c.fetchPage(ctx, product, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s..%s: %w",
				product, from.Format("2006-01-02"), to.Format("2006-01-02"), err)
		}
		bars = append(bars, page...)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (c *Client) fetchPage(ctx context.Context, product string, from, to time.Time) ([]models.Bar, error) {
	for !c.rl.Allow("candles", c.rlCapacity, c.rlRefill) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	var candles []candle
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/products/%s/candles", c.baseURL, product),
		QueryParams: map[string][]string{
			"start":       {from.Format(time.RFC3339)},
			"end":         {to.Format(time.RFC3339)},
			"granularity": {fmt.Sprintf("%d", c.granularity)},
		},
	}, &candles)
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(candles))
	for _, k := range candles {
		bars = append(bars, models.Bar{
			Date:   time.Unix(int64(k[0]), 0).UTC().Truncate(24 * time.Hour),
			Low:    k[1],
			High:   k[2],
			Open:   k[3],
			Close:  k[4],
			Volume: k[5],
		})
	}
	return bars, nil
}

var _ drepo.BarSource = (*Client)(nil)
