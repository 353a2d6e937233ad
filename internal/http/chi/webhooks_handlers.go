package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-gateway/access"
	"github.com/marcelsud/webhook-gateway/webhook"
	"github.com/rs/zerolog"
)

const (
	defaultMaxBodyBytes   = 1 << 20
	defaultRequestTimeout = 30 * time.Second
)

// Options tunes the router. Zero values fall back to defaults
type Options struct {
	Logger         *zerolog.Logger
	Metrics        http.Handler
	KeyFunc        KeyFunc
	MaxBodyBytes   int64
	AllowedOrigins []string
	RequestTimeout time.Duration
	StartedAt      time.Time
}

// WebhookHandlers sets up the gateway API routes
func WebhookHandlers(ctx context.Context, svc webhook.UseCase, opts Options) *chi.Mux {
	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = httplog.NewLogger("webhook-gateway", httplog.Options{
			JSON: true,
		})
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = ClientKeyFunc("", false)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", access.HeaderAPIKey},
		ExposedHeaders: []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Method(http.MethodGet, "/health", getHealth(opts.StartedAt))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	r.Method(http.MethodPost, "/webhook", postWebhook(svc, opts.KeyFunc, opts.MaxBodyBytes))
	r.Method(http.MethodGet, "/webhooks", getWebhooks(svc))

	return r
}
