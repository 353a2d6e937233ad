package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/marcelsud/webhook-gateway/access"
	"github.com/marcelsud/webhook-gateway/ratelimit"
	"github.com/marcelsud/webhook-gateway/webhook"
	"github.com/marcelsud/webhook-gateway/webhook/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

func testHandlers(ctx context.Context, svc webhook.UseCase, opts Options) http.Handler {
	logger := zerolog.Nop()
	opts.Logger = &logger
	return WebhookHandlers(ctx, svc, opts)
}

func do(t *testing.T, h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(access.HeaderAPIKey, key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestPostWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("success - delivered", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		status, body := 200, "ok"
		s.On("Receive", mock.Anything, testKey, "192.0.2.1", []byte(`{"x":1}`)).Return(webhook.Receipt{
			Record:   webhook.Record{ID: "abc"},
			Outcome:  webhook.Outcome{Delivered: true, DownstreamStatus: &status, DownstreamBody: &body},
			Decision: ratelimit.Decision{Allowed: true, Limit: 10, Remaining: 9, ResetAt: time.Now().Add(time.Minute)},
		}, nil).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", testKey, `{"x":1}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "10", w.Header().Get("RateLimit-Limit"))
		assert.Equal(t, "9", w.Header().Get("RateLimit-Remaining"))
		assert.Empty(t, w.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"id":"abc","status":"ok","delivered":true,"downstreamStatus":200,"downstreamResponse":"ok"}`, w.Body.String())
	})

	t.Run("success - relay failure is accepted", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		s.On("Receive", mock.Anything, testKey, mock.Anything, mock.Anything).Return(webhook.Receipt{
			Record:  webhook.Record{ID: "abc"},
			Outcome: webhook.Outcome{FailureReason: "connection refused"},
		}, nil).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", testKey, `{}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"abc","status":"accepted","delivered":false,"downstreamStatus":null,"downstreamResponse":null,"failureReason":"connection refused"}`, w.Body.String())
	})

	t.Run("success - truncated downstream body is flagged", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		status, body := 200, "partial"
		s.On("Receive", mock.Anything, testKey, mock.Anything, mock.Anything).Return(webhook.Receipt{
			Record:  webhook.Record{ID: "abc"},
			Outcome: webhook.Outcome{Delivered: true, DownstreamStatus: &status, DownstreamBody: &body, Truncated: true},
		}, nil).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", testKey, `{}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"abc","status":"ok","delivered":true,"downstreamStatus":200,"downstreamResponse":"partial","downstreamTruncated":true}`, w.Body.String())
	})

	t.Run("error - rate limited sets retry after", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		rateErr := goerrors.New("Too many requests", goerrors.CategoryRateLimit).
			WithCode(http.StatusTooManyRequests).
			WithTextCode(webhook.TextCodeRateLimited)
		s.On("Receive", mock.Anything, testKey, mock.Anything, mock.Anything).Return(webhook.Receipt{
			Decision: ratelimit.Decision{Limit: 10, Remaining: 0, ResetAt: time.Now().Add(30 * time.Second)},
		}, rateErr).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", testKey, `{}`)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "Too many requests", decodeError(t, w))
		assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("error - unauthorized", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, "").Return(access.ErrUnauthorized).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", "", `{}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeError(t, w))
		assert.Empty(t, w.Header().Get("RateLimit-Limit"))
		s.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - missing key with oversized body is unauthorized", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, "").Return(access.ErrUnauthorized).Once()

		body := `{"event":"order.created","data":{"id":"0123456789","total":"1000.00"}}`
		w := do(t, testHandlers(ctx, s, Options{MaxBodyBytes: 16}), http.MethodPost, "/webhook", "", body)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeError(t, w))
		s.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - unknown error hides details", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		s.On("Receive", mock.Anything, testKey, mock.Anything, mock.Anything).Return(webhook.Receipt{}, errors.New("redis: connection pool exhausted")).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodPost, "/webhook", testKey, `{}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w))
	})

	t.Run("error - body too large", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()

		w := do(t, testHandlers(ctx, s, Options{MaxBodyBytes: 8}), http.MethodPost, "/webhook", testKey, `{"x":"0123456789"}`)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "Payload too large", decodeError(t, w))
		s.AssertNotCalled(t, "Receive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success - identity comes from key func", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("Authorize", mock.Anything, testKey).Return(nil).Once()
		s.On("Receive", mock.Anything, testKey, "tenant-7", mock.Anything).Return(webhook.Receipt{}, nil).Once()

		h := testHandlers(ctx, s, Options{KeyFunc: ClientKeyFunc("X-Client-Id", false)})
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
		req.Header.Set(access.HeaderAPIKey, testKey)
		req.Header.Set("X-Client-Id", "tenant-7")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetWebhooks(t *testing.T) {
	ctx := context.Background()

	t.Run("success - lists records", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		s.On("History", mock.Anything, testKey).Return([]webhook.Record{
			{ID: "a", ReceivedAt: at, Payload: map[string]any{"x": json.Number("1")}},
			{ID: "b", ReceivedAt: at.Add(time.Second), Payload: []any{}},
		}, nil).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodGet, "/webhooks", testKey, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"webhooks":[
			{"id":"a","receivedAt":"2024-01-01T12:00:00Z","payload":{"x":1}},
			{"id":"b","receivedAt":"2024-01-01T12:00:01Z","payload":[]}
		]}`, w.Body.String())
	})

	t.Run("success - empty history", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("History", mock.Anything, testKey).Return(nil, nil).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodGet, "/webhooks", testKey, "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"webhooks":[]}`, w.Body.String())
	})

	t.Run("error - unauthorized", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("History", mock.Anything, "bad").Return(nil, access.ErrUnauthorized).Once()

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodGet, "/webhooks", "bad", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		h := testHandlers(ctx, mocks.NewUseCase(t), Options{StartedAt: time.Now().Add(-5 * time.Second)})

		w := do(t, h, http.MethodGet, "/health", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp healthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.GreaterOrEqual(t, resp.Uptime, 5.0)
	})

	t.Run("not found", func(t *testing.T) {
		w := do(t, testHandlers(ctx, mocks.NewUseCase(t), Options{}), http.MethodGet, "/nope", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Not found", decodeError(t, w))
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := do(t, testHandlers(ctx, mocks.NewUseCase(t), Options{}), http.MethodDelete, "/webhook", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "Method not allowed", decodeError(t, w))
	})

	t.Run("metrics only when configured", func(t *testing.T) {
		w := do(t, testHandlers(ctx, mocks.NewUseCase(t), Options{}), http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("webhook_rejected 0")) })
		w = do(t, testHandlers(ctx, mocks.NewUseCase(t), Options{Metrics: metrics}), http.MethodGet, "/metrics", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "webhook_rejected")
	})

	t.Run("panic becomes internal error", func(t *testing.T) {
		s := mocks.NewUseCase(t)
		s.On("History", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil, nil)

		w := do(t, testHandlers(ctx, s, Options{}), http.MethodGet, "/webhooks", testKey, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeError(t, w))
	})

	t.Run("cors preflight", func(t *testing.T) {
		h := testHandlers(ctx, mocks.NewUseCase(t), Options{AllowedOrigins: []string{"https://app.example"}})
		req := httptest.NewRequest(http.MethodOptions, "/webhook", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", access.HeaderAPIKey)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientKeyFunc(t *testing.T) {
	tests := []struct {
		name       string
		keyHeader  string
		trustXFF   bool
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"remote addr host", "", false, nil, "10.0.0.1:5555", "10.0.0.1"},
		{"xff ignored when untrusted", "", false, map[string]string{"X-Forwarded-For": "1.1.1.1"}, "10.0.0.1:5555", "10.0.0.1"},
		{"first xff hop when trusted", "", true, map[string]string{"X-Forwarded-For": " 1.1.1.1 , 2.2.2.2"}, "10.0.0.1:5555", "1.1.1.1"},
		{"key header wins", "X-Client-Id", true, map[string]string{"X-Client-Id": "c1", "X-Forwarded-For": "1.1.1.1"}, "10.0.0.1:5555", "c1"},
		{"empty key header falls back", "X-Client-Id", false, nil, "10.0.0.1:5555", "10.0.0.1"},
		{"remote addr without port", "", false, nil, "10.0.0.1", "10.0.0.1"},
		{"no address", "", false, nil, "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientKeyFunc(tt.keyHeader, tt.trustXFF)(req))
		})
	}
}
