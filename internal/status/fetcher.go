package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/pkg/circuitbreaker"
)

var ErrMalformedStatus = errors.New("status response missing player counts")

type Fetcher interface {
	Fetch(ctx context.Context) (domain.ServerStatus, error)
}

// HTTPFetcher reads the FiveM single-server endpoint.
type HTTPFetcher struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[domain.ServerStatus]
}

func NewHTTPFetcher(url string, log *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: circuitbreaker.New[domain.ServerStatus](circuitbreaker.Options{
			Name:                "server-status",
			ConsecutiveFailures: 3,
			OpenTimeout:         2 * time.Minute,
			Logger:              log,
		}),
	}
}

type statusResponse struct {
	Data *struct {
		Clients    *int `json:"clients"`
		MaxClients *int `json:"sv_maxclients"`
	} `json:"Data"`
}

func (f *HTTPFetcher) Fetch(ctx context.Context) (domain.ServerStatus, error) {
	return f.breaker.Execute(func() (domain.ServerStatus, error) {
		return f.fetch(ctx)
	})
}

func (f *HTTPFetcher) fetch(ctx context.Context) (domain.ServerStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.ServerStatus{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.ServerStatus{}, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ServerStatus{}, fmt.Errorf("fetch status: unexpected status %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return domain.ServerStatus{}, fmt.Errorf("decode status: %w", err)
	}
	if body.Data == nil || body.Data.Clients == nil || body.Data.MaxClients == nil {
		return domain.ServerStatus{}, ErrMalformedStatus
	}
	return domain.ServerStatus{Clients: *body.Data.Clients, MaxClients: *body.Data.MaxClients}, nil
}
