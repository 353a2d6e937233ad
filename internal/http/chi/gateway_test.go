package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcelsud/webhook-gateway/access"
	"github.com/marcelsud/webhook-gateway/forward"
	"github.com/marcelsud/webhook-gateway/history"
	"github.com/marcelsud/webhook-gateway/ratelimit"
	"github.com/marcelsud/webhook-gateway/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateway struct {
	handler http.Handler
	ring    *history.Ring[webhook.Record]
}

func newGateway(t *testing.T, target string) gateway {
	t.Helper()
	ring := history.NewRing[webhook.Record](100)
	svc := webhook.NewService(
		access.NewGuard(testKey),
		ratelimit.NewMemory(10, time.Minute),
		ring,
		forward.New(target, forward.WithTimeout(2*time.Second)),
	)
	return gateway{handler: testHandlers(context.Background(), svc, Options{}), ring: ring}
}

func TestGatewayEndToEnd(t *testing.T) {
	var hits atomic.Int32
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer downstream.Close()

	t.Run("success - relayed and listed", func(t *testing.T) {
		gw := newGateway(t, downstream.URL)

		w := do(t, gw.handler, http.MethodPost, "/webhook", testKey, `{"x":1}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp webhookResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.True(t, resp.Delivered)
		assert.Equal(t, 200, *resp.DownstreamStatus)
		assert.Equal(t, "ok", *resp.DownstreamResponse)

		w = do(t, gw.handler, http.MethodGet, "/webhooks", testKey, "")
		require.Equal(t, http.StatusOK, w.Code)
		var list struct {
			Webhooks []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"webhooks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list.Webhooks, 1)
		assert.Equal(t, resp.ID, list.Webhooks[0].ID)
		assert.Equal(t, 1.0, list.Webhooks[0].Payload["x"])
	})

	t.Run("success - unreachable downstream still stored", func(t *testing.T) {
		dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		target := dead.URL
		dead.Close()
		gw := newGateway(t, target)

		w := do(t, gw.handler, http.MethodPost, "/webhook", testKey, `{"x":1}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp webhookResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "accepted", resp.Status)
		assert.False(t, resp.Delivered)
		assert.Nil(t, resp.DownstreamStatus)
		assert.Equal(t, forward.ReasonConnectionRefused, resp.FailureReason)
		assert.Equal(t, 1, gw.ring.Len())
	})

	t.Run("error - missing key is neither stored nor forwarded", func(t *testing.T) {
		gw := newGateway(t, downstream.URL)
		before := hits.Load()

		w := do(t, gw.handler, http.MethodPost, "/webhook", "", `{"x":1}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeError(t, w))
		assert.Equal(t, 0, gw.ring.Len())
		assert.Equal(t, before, hits.Load())
	})

	t.Run("error - missing key is checked before the body size", func(t *testing.T) {
		ring := history.NewRing[webhook.Record](100)
		svc := webhook.NewService(access.NewGuard(testKey), ratelimit.NewMemory(10, time.Minute), ring,
			forward.New(downstream.URL))
		h := testHandlers(context.Background(), svc, Options{MaxBodyBytes: 16})

		w := do(t, h, http.MethodPost, "/webhook", "", `{"event":"order.created","data":{"id":"0123456789"}}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = do(t, h, http.MethodPost, "/webhook", testKey, `{"event":"order.created","data":{"id":"0123456789"}}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, 0, ring.Len())
	})

	t.Run("error - malformed body", func(t *testing.T) {
		gw := newGateway(t, downstream.URL)

		w := do(t, gw.handler, http.MethodPost, "/webhook", testKey, `{"x":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid JSON payload", decodeError(t, w))
		assert.Equal(t, 0, gw.ring.Len())
	})

	t.Run("error - eleventh request in a minute", func(t *testing.T) {
		gw := newGateway(t, downstream.URL)
		for i := 0; i < 10; i++ {
			w := do(t, gw.handler, http.MethodPost, "/webhook", testKey, `{}`)
			require.Equal(t, http.StatusOK, w.Code)
		}
		before := hits.Load()

		w := do(t, gw.handler, http.MethodPost, "/webhook", testKey, `{}`)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "Too many requests", decodeError(t, w))
		assert.Equal(t, "10", w.Header().Get("RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, 10, gw.ring.Len())
		assert.Equal(t, before, hits.Load())
	})
}
