// Package whatsapp delivers notification messages through an external
// WhatsApp messaging gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second

	// The gateway throttles aggressively; stay under one message per
	// second with a small burst allowance.
	defaultRateLimit = rate.Limit(1)
	defaultBurst     = 3
)

// Config holds the messaging gateway configuration. APIURL and APIKey
// are required; validation happens at startup, not per send.
type Config struct {
	APIURL        string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
}

// Sender posts messages to the WhatsApp gateway.
type Sender struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a gateway sender.
func NewSender(config Config) *Sender {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	limit := defaultRateLimit
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}

	return &Sender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, defaultBurst),
	}
}

type messagePayload struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// Send delivers one message. An empty phone is passed through to the
// gateway unchanged; whether empty recipients reach this point is the
// processor's decision.
func (s *Sender) Send(ctx context.Context, phone, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &RetryableError{Message: fmt.Sprintf("rate limiter: %v", err)}
	}

	body, err := json.Marshal(messagePayload{Phone: phone, Text: text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	return s.handleResponse(resp, phone)
}

func (s *Sender) handleResponse(resp *http.Response, phone string) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		slog.Debug("whatsapp message sent", "phone", maskPhone(phone))
		return nil

	case resp.StatusCode == http.StatusBadRequest:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("bad request: %s", string(body)),
		}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &PermanentError{
			Code:    resp.StatusCode,
			Message: "invalid or expired API key",
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return &RetryableError{
			Code:    resp.StatusCode,
			Message: "rate limited by gateway",
		}

	case resp.StatusCode >= 500:
		return &RetryableError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("gateway error: %s", string(body)),
		}

	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// maskPhone hides the middle digits for logging.
func maskPhone(phone string) string {
	if len(phone) > 6 {
		return phone[:4] + "****" + phone[len(phone)-2:]
	}
	return "****"
}

// PermanentError indicates a delivery failure that retrying will not
// fix.
type PermanentError struct {
	Code    int
	Message string
}

func (e *PermanentError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("whatsapp error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("whatsapp error: %s", e.Message)
}

// IsRetryable returns false as permanent errors should not be retried.
func (e *PermanentError) IsRetryable() bool { return false }

// RetryableError indicates a temporary delivery failure.
type RetryableError struct {
	Code    int
	Message string
}

func (e *RetryableError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("whatsapp error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("whatsapp error: %s", e.Message)
}

// IsRetryable returns true as these errors are temporary.
func (e *RetryableError) IsRetryable() bool { return true }
