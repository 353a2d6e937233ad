package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/webhook-gateway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("success - timeouts follow config", func(t *testing.T) {
		cfg := &config.Config{Port: "8080", RequestTimeout: 30 * time.Second, ForwardTimeout: 10 * time.Second}

		srv := newServer(cfg, http.NotFoundHandler())

		assert.Equal(t, ":8080", srv.Addr)
		assert.Equal(t, 30*time.Second, srv.ReadTimeout)
		assert.Equal(t, 45*time.Second, srv.WriteTimeout)
	})

	t.Run("success - reply after a slow forward still reaches the caller", func(t *testing.T) {
		cfg := &config.Config{RequestTimeout: 200 * time.Millisecond, ForwardTimeout: time.Second}
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
			w.Write([]byte(`{"status":"ok"}`))
		})

		ts := httptest.NewUnstartedServer(slow)
		srv := newServer(cfg, slow)
		ts.Config.ReadTimeout = srv.ReadTimeout
		ts.Config.WriteTimeout = srv.WriteTimeout
		ts.Start()
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(`{}`))

		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
