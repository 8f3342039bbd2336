package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
	icache "CryptoPrep/internal/service/cache"
	"CryptoPrep/internal/usecase"

	"github.com/labstack/echo/v4"
)

func testDataset(n int) *models.Dataset {
	ds := &models.Dataset{LagDepth: 2}
	d := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		day := d.AddDate(0, 0, i)
		ds.Rows = append(ds.Rows, models.FeatureRow{
			Date:      day,
			Currency:  "BTC-USD",
			Sigma:     []float64{0.1, 0.2},
			RR:        0.05,
			LogRetLag: []float64{0.01, 0.02},
			DayName:   day.Weekday().String(),
		})
	}
	return ds
}

func newTestHandler(n int) *DatasetHandler {
	q := usecase.NewDatasetQuery(nil)
	q.SetLatest(testDataset(n))
	h := NewDatasetHandler(q)
	h.SetCache(icache.NewTTLCache())
	return h
}

func callDataset(t *testing.T, h *DatasetHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h.Dataset(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	return rec
}

type datasetEnvelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Currency string              `json:"currency"`
		Count    int                 `json:"count"`
		Rows     []models.FeatureRow `json:"rows"`
	} `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) datasetEnvelope {
	t.Helper()
	var env datasetEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return env
}

func TestDatasetCacheHitKeepsResponseShape(t *testing.T) {
	h := newTestHandler(5)

	miss := callDataset(t, h, "/api/dataset?currency=BTC-USD")
	hit := callDataset(t, h, "/api/dataset?currency=BTC-USD")
	if miss.Code != http.StatusOK || hit.Code != http.StatusOK {
		t.Fatalf("status = %d, %d, want 200 for both", miss.Code, hit.Code)
	}
	if !bytes.Equal(miss.Body.Bytes(), hit.Body.Bytes()) {
		t.Fatalf("cache hit body differs from miss:\n%s\n%s", miss.Body.String(), hit.Body.String())
	}

	env := decodeEnvelope(t, hit)
	if env.Status != http.StatusOK || env.Message != "OK" {
		t.Fatalf("envelope = %d %q, want 200 OK", env.Status, env.Message)
	}
	if env.Data.Count != 5 || len(env.Data.Rows) != 5 {
		t.Fatalf("count = %d, rows = %d, want 5", env.Data.Count, len(env.Data.Rows))
	}
	if env.Data.Currency != "BTC-USD" {
		t.Fatalf("currency = %q, want BTC-USD", env.Data.Currency)
	}
}

func TestDatasetCacheKeyIncludesLimit(t *testing.T) {
	h := newTestHandler(6)

	full := decodeEnvelope(t, callDataset(t, h, "/api/dataset?currency=BTC-USD"))
	if full.Data.Count != 6 {
		t.Fatalf("unlimited count = %d, want 6", full.Data.Count)
	}

	limited := decodeEnvelope(t, callDataset(t, h, "/api/dataset?currency=BTC-USD&limit=2"))
	if limited.Data.Count != 2 || len(limited.Data.Rows) != 2 {
		t.Fatalf("limit=2 returned count %d with %d rows", limited.Data.Count, len(limited.Data.Rows))
	}
}

func TestDatasetNormalizesCurrency(t *testing.T) {
	h := newTestHandler(3)

	env := decodeEnvelope(t, callDataset(t, h, "/api/dataset?currency=btc"))
	if env.Data.Currency != "BTC-USD" || env.Data.Count != 3 {
		t.Fatalf("got currency %q count %d, want BTC-USD 3", env.Data.Currency, env.Data.Count)
	}
}
