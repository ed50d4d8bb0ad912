package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/expdynts/expwatch/internal/queue"
)

const defaultFetchTimeout = 30 * time.Second

// Gateway retrieves the current record set for a case from its source.
type Gateway interface {
	Fetch(ctx context.Context, sourceURL string) ([]domain.CaseEntry, error)
}

// GatewayConfig holds the outbound fetch configuration. The source is
// reached through an authenticated forward proxy.
type GatewayConfig struct {
	ProxyURL      string
	ProxyUser     string
	ProxyPassword string
	Timeout       time.Duration
}

// HTTPGateway implements Gateway over HTTP through a forward proxy.
type HTTPGateway struct {
	client *http.Client
}

// NewHTTPGateway creates a gateway. An empty proxy URL disables the
// proxy and fetches directly.
func NewHTTPGateway(config GatewayConfig) (*HTTPGateway, error) {
	if config.Timeout == 0 {
		config.Timeout = defaultFetchTimeout
	}

	transport := &http.Transport{}
	if config.ProxyURL != "" {
		proxyURL, err := url.Parse(config.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		if config.ProxyUser != "" {
			proxyURL.User = url.UserPassword(config.ProxyUser, config.ProxyPassword)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	slog.Info("fetch gateway configured",
		"proxy_enabled", config.ProxyURL != "",
		"timeout", config.Timeout,
	)

	return &HTTPGateway{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}, nil
}

// Fetch retrieves and decodes the record set. Transport errors and
// non-2xx responses are retryable; a malformed body is a data-integrity
// error, which follows the same retry policy but is logged differently.
func (g *HTTPGateway) Fetch(ctx context.Context, sourceURL string) ([]domain.CaseEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, queue.NewNonRetryableError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, queue.NewRetryableError(fmt.Errorf("fetch record set: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, queue.NewRetryableError(fmt.Errorf("unexpected status %d from source", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, queue.NewRetryableError(fmt.Errorf("read response: %w", err))
	}

	var entries []domain.CaseEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &DataIntegrityError{Err: fmt.Errorf("decode record set: %w", err)}
	}

	return entries, nil
}

// DataIntegrityError marks a fetched record set that could not be
// interpreted. It follows the same retry policy as transient failures
// but carries its own log classification.
type DataIntegrityError struct {
	Err error
}

func (e *DataIntegrityError) Error() string {
	return e.Err.Error()
}

func (e *DataIntegrityError) Unwrap() error {
	return e.Err
}

// IsRetryable keeps data-integrity failures on the normal retry path.
func (e *DataIntegrityError) IsRetryable() bool { return true }

// classify returns the log classification for a pipeline error.
func classify(err error) string {
	var integrity *DataIntegrityError
	if errors.As(err, &integrity) {
		return "data_integrity"
	}
	return "transient_io"
}
