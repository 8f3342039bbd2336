package publisher

import (
	"context"
	"fmt"
	"time"

	"CryptoPrep/internal/domain/models"
	drepo "CryptoPrep/internal/domain/repository"
	xhttp "CryptoPrep/pkg/http"
)

// ModelingPublisher pushes the assembled dataset to a downstream modeling
// service over HTTP. It centralizes client construction and JSON POST
// request handling.
type ModelingPublisher struct {
	baseURL string
	client  *xhttp.Client
	retries int
}

// New builds an HTTP publisher with the given base URL and timeout.
func New(baseURL string, timeout time.Duration) *ModelingPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModelingPublisher{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		retries: 3,
	}
}

type publishPayload struct {
	LagDepth int                 `json:"lag_depth"`
	Columns  []string            `json:"columns"`
	Rows     []models.FeatureRow `json:"rows"`
}

type publishAck struct {
	Accepted int `json:"accepted"`
}

// Export posts the dataset to /v1/datasets, retrying transient failures.
func (p *ModelingPublisher) Export(ctx context.Context, ds *models.Dataset) error {
	payload := publishPayload{
		LagDepth: ds.LagDepth,
		Columns:  models.ColumnNames(ds.LagDepth),
		Rows:     ds.Rows,
	}
	var ack publishAck
	if err := p.postJSONWithRetry(ctx, "/v1/datasets", payload, &ack, p.retries); err != nil {
		return err
	}
	if ack.Accepted != len(ds.Rows) {
		return fmt.Errorf("publish dataset: accepted %d of %d rows", ack.Accepted, len(ds.Rows))
	}
	return nil
}

func (p *ModelingPublisher) Name() string { return "modeling" }

func (p *ModelingPublisher) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if p.client == nil || p.baseURL == "" {
		return fmt.Errorf("publisher http client not initialized")
	}
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    p.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

func (p *ModelingPublisher) postJSONWithRetry(ctx context.Context, path string, payload interface{}, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return p.postJSON(ctx, path, payload, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = p.postJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

var _ drepo.Exporter = (*ModelingPublisher)(nil)
