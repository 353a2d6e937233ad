package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-gateway/access"
	"github.com/marcelsud/webhook-gateway/config"
	"github.com/marcelsud/webhook-gateway/forward"
	"github.com/marcelsud/webhook-gateway/history"
	"github.com/marcelsud/webhook-gateway/internal/http/chi"
	"github.com/marcelsud/webhook-gateway/metrics"
	"github.com/marcelsud/webhook-gateway/ratelimit"
	ratelimitredis "github.com/marcelsud/webhook-gateway/ratelimit/redis"
	"github.com/marcelsud/webhook-gateway/webhook"
	"github.com/marcelsud/webhook-gateway/webhook/payload"
	"github.com/marcelsud/webhook-gateway/webhook/signature"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/*
 * main wires every package of the gateway. Imports only go downwards:
 * the application imports the business layer, which imports storage and transport
 */

func main() {
	startedAt := time.Now()
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := newLogger(cfg)

	var limiter webhook.Limiter
	var activeClients func() int
	switch cfg.RateLimitBackend {
	case config.BackendRedis:
		client, err := ratelimitredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fmt.Println(err)
			return
		}
		rl := ratelimitredis.NewLimiter(client, cfg.RedisPrefix, cfg.RateLimitMax, cfg.RateLimitWindow)
		defer rl.Close(ctx)
		limiter = rl
	default:
		mem := ratelimit.NewMemory(cfg.RateLimitMax, cfg.RateLimitWindow,
			ratelimit.WithCleanupEvery(cfg.RateLimitCleanupEvery))
		mem.StartJanitor(ctx)
		limiter = mem
		activeClients = mem.Len
	}

	forwarder, err := newForwarder(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	ring := history.NewRing[webhook.Record](cfg.HistoryCapacity)

	collectorOpts := []metrics.CollectorOption{metrics.WithHistorySize(ring.Len)}
	if activeClients != nil {
		collectorOpts = append(collectorOpts, metrics.WithActiveClients(activeClients))
	}
	collector := metrics.NewGatewayCollector(collectorOpts...)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer exporter.Shutdown(context.Background())

	s := webhook.NewService(access.NewGuard(cfg.APIKey), limiter, ring, forwarder,
		webhook.WithDisconnectPolicy(webhook.NewDisconnectPolicy(cfg.ForwardOnDisconnect)),
		webhook.WithObserver(collector),
		webhook.WithLogger(logger),
	)
	r := chi.WebhookHandlers(ctx, s, chi.Options{
		Logger:         &logger,
		Metrics:        exporter.ServeHTTP(),
		KeyFunc:        chi.ClientKeyFunc(cfg.RateLimitKeyHeader, cfg.TrustForwardedFor),
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: cfg.RequestTimeout,
		StartedAt:      startedAt,
	})
	srv := newServer(cfg, r)

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().
		Str("port", cfg.Port).
		Str("target", cfg.TargetURL).
		Str("rate_limit_backend", cfg.RateLimitBackend).
		Msg("webhook gateway listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	err = <-errShutdown
	if err != nil {
		fmt.Println(err)
		return
	}
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.WriteTimeout(),
		Addr:         ":" + cfg.Port,
		Handler:      h,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := httplog.NewLogger("webhook-gateway", httplog.Options{
		JSON: cfg.LogJSON,
	})
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return logger.Level(level)
}

func newForwarder(cfg *config.Config) (*forward.Forwarder, error) {
	codec, err := payload.NewCodec(cfg.ForwardEncoding)
	if err != nil {
		return nil, err
	}
	opts := []forward.Option{
		forward.WithCodec(codec),
		forward.WithTimeout(cfg.ForwardTimeout),
		forward.WithRate(cfg.ForwardRPS),
	}
	if cfg.ForwardSigningSecret != "" {
		secret, err := signature.ParseSecret(cfg.ForwardSigningSecret)
		if err != nil {
			return nil, fmt.Errorf("parsing signing secret: %w", err)
		}
		opts = append(opts, forward.WithSigningSecret(secret))
	}
	return forward.New(cfg.TargetURL, opts...), nil
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("Forcing closing the server")
	}
}
