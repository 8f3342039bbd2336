package api

import (
	"encoding/json"
	"strconv"
	"time"

	models "CryptoPrep/internal/domain/models"
	domrepo "CryptoPrep/internal/domain/repository"
	icache "CryptoPrep/internal/service/cache"
	"CryptoPrep/internal/service/metrics"
	"CryptoPrep/internal/service/ratelimit"
	"CryptoPrep/internal/usecase"
	xhttp "CryptoPrep/pkg/http"
	xlogger "CryptoPrep/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DatasetHandler serves the assembled dataset over HTTP.
type DatasetHandler struct {
	query *usecase.DatasetQuery
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *xlogger.Logger
}

func NewDatasetHandler(query *usecase.DatasetQuery) *DatasetHandler {
	metrics.Register()
	return &DatasetHandler{query: query, rl: ratelimit.New()}
}

func (h *DatasetHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *DatasetHandler) SetLogger(l *xlogger.Logger) { h.l = l }

func (h *DatasetHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dataset", h.Dataset)
	g.GET("/corrections", h.Corrections)
	g.GET("/summary", h.Summary)
}

func (h *DatasetHandler) Dataset(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("dataset").Observe(time.Since(start).Seconds()) }()

	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("dataset").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	currency := string(domrepo.NormalizeProduct(req.Currency))
	if !h.rl.Allow(c.RealIP()+":dataset", 10, 5) {
		return xhttp.TooManyRequestsResponse(c)
	}

	cacheKey := "dataset:" + currency + ":" + req.From + ":" + req.To + ":" + strconv.Itoa(req.Limit)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(200, b)
	}

	params := usecase.GetRowsParams{Currency: currency, Limit: req.Limit}
	var err error
	if params.From, params.To, err = parseWindow(req.From, req.To); err != nil {
		metrics.APIErrors.WithLabelValues("dataset").Inc()
		return xhttp.BadRequestResponse(c, err)
	}

	res, err := h.query.GetRows(c.Request().Context(), params)
	if err != nil {
		metrics.APIErrors.WithLabelValues("dataset").Inc()
		if h.l != nil {
			h.l.Error("dataset query error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	// Cache the exact bytes written to the client so hits and misses
	// share one response shape.
	body, err := json.Marshal(xhttp.APIResponse{Status: 200, Message: "OK", Data: res})
	if err != nil {
		metrics.APIErrors.WithLabelValues("dataset").Inc()
		return xhttp.InternalServerErrorResponse(c)
	}
	h.store(cacheKey, body)
	return c.JSONBlob(200, body)
}

func (h *DatasetHandler) Corrections(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("corrections").Observe(time.Since(start).Seconds()) }()

	req := &models.CorrectionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.APIErrors.WithLabelValues("corrections").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	currency := string(domrepo.NormalizeProduct(req.Currency))
	return xhttp.SuccessResponse(c, h.query.Corrections(currency))
}

func (h *DatasetHandler) Summary(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("summary").Observe(time.Since(start).Seconds()) }()

	ds := h.query.Latest()
	if ds == nil {
		return xhttp.NotFoundResponse(c, "no dataset assembled yet")
	}

	perCurrency := make(map[string]int)
	for _, r := range ds.Rows {
		perCurrency[r.Currency]++
	}
	summary := map[string]any{
		"lag_depth":   ds.LagDepth,
		"columns":     models.ColumnNames(ds.LagDepth),
		"rows":        len(ds.Rows),
		"corrections": len(ds.Corrections),
		"currencies":  perCurrency,
	}
	if len(ds.Rows) > 0 {
		summary["from"] = ds.Rows[0].Date.Format("2006-01-02")
		summary["to"] = ds.Rows[len(ds.Rows)-1].Date.Format("2006-01-02")
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *DatasetHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn("dataset cache_get_error", xlogger.Error(err))
		}
		return nil, false
	}
	if ok && h.l != nil {
		h.l.Debug("dataset cache_hit", xlogger.String("key", key))
	}
	return b, ok
}

func (h *DatasetHandler) store(key string, b []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetBytes(key, b, 30*time.Second); err != nil && h.l != nil {
		h.l.Warn("dataset cache_set_error", xlogger.Error(err))
	}
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	var f, t time.Time
	var err error
	if from != "" {
		if f, err = time.Parse("2006-01-02", from); err != nil {
			return f, t, err
		}
	}
	if to != "" {
		if t, err = time.Parse("2006-01-02", to); err != nil {
			return f, t, err
		}
	}
	return f, t, nil
}
