package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender_Defaults(t *testing.T) {
	sender := NewSender(Config{})

	assert.Equal(t, defaultTimeout, sender.config.Timeout)
	assert.NotNil(t, sender.httpClient)
	assert.NotNil(t, sender.limiter)
}

func TestSender_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload messagePayload
		err := json.NewDecoder(r.Body).Decode(&payload)
		require.NoError(t, err)
		assert.Equal(t, "+5215512345678", payload.Phone)
		assert.Equal(t, "Cambios detectados", payload.Text)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{APIURL: server.URL, APIKey: "test-key"})
	err := sender.Send(context.Background(), "+5215512345678", "Cambios detectados")

	assert.NoError(t, err)
}

func TestSender_Send_EmptyPhonePassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload messagePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Empty(t, payload.Phone)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{APIURL: server.URL})
	assert.NoError(t, sender.Send(context.Background(), "", "texto"))
}

func TestSender_Send_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"bad request is permanent", http.StatusBadRequest, false},
		{"unauthorized is permanent", http.StatusUnauthorized, false},
		{"forbidden is permanent", http.StatusForbidden, false},
		{"too many requests is retryable", http.StatusTooManyRequests, true},
		{"server error is retryable", http.StatusInternalServerError, true},
		{"bad gateway is retryable", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			sender := NewSender(Config{APIURL: server.URL})
			err := sender.Send(context.Background(), "+521", "texto")
			require.Error(t, err)

			if tt.retryable {
				var retryable *RetryableError
				require.True(t, errors.As(err, &retryable))
				assert.True(t, retryable.IsRetryable())
			} else {
				var permanent *PermanentError
				require.True(t, errors.As(err, &permanent))
				assert.False(t, permanent.IsRetryable())
			}
		})
	}
}

func TestSender_Send_TransportErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	sender := NewSender(Config{APIURL: server.URL})
	err := sender.Send(context.Background(), "+521", "texto")
	require.Error(t, err)

	var retryable *RetryableError
	require.True(t, errors.As(err, &retryable))
}

func TestSender_Send_CancelledContextSurfacesAsRetryable(t *testing.T) {
	sender := NewSender(Config{APIURL: "http://unused.invalid", RatePerSecond: 0.001})

	// Burn the burst allowance so the limiter has to wait.
	for i := 0; i < defaultBurst; i++ {
		sender.limiter.Allow()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := sender.Send(ctx, "+521", "texto")
	require.Error(t, err)

	var retryable *RetryableError
	require.True(t, errors.As(err, &retryable))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+521****78", maskPhone("+5215512345678"))
	assert.Equal(t, "****", maskPhone("12345"))
}
