package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/marcelsud/webhook-gateway/webhook"
)

// Metrics represents the current state of the gateway.
type Metrics struct {
	// Rejected maps text code (UNAUTHORIZED, RATE_LIMITED, ...) to rejected request count
	Rejected map[string]int64 `json:"rejected"`

	// Forwarded maps "delivered" and "failed" to relay attempt count
	Forwarded map[string]int64 `json:"forwarded"`

	// FailureReasons maps a relay failure reason to its count
	FailureReasons map[string]int64 `json:"failure_reasons"`

	// HistorySize is the number of records currently retained
	HistorySize int64 `json:"history_size"`

	// ActiveClients is the number of identities tracked by the rate limiter
	ActiveClients int64 `json:"active_clients"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the gateway.
type Collector interface {
	Collect(ctx context.Context) (Metrics, error)
	GetRejected(ctx context.Context) (map[string]int64, error)
	GetForwarded(ctx context.Context) (map[string]int64, error)
	GetFailureReasons(ctx context.Context) (map[string]int64, error)
	GetHistorySize(ctx context.Context) (int64, error)
	GetActiveClients(ctx context.Context) (int64, error)
}

/* GatewayCollector keeps in-process counters fed by the gateway service
 * It implements webhook.Observer
 */
type GatewayCollector struct {
	mu             sync.Mutex
	rejected       map[string]int64
	forwarded      map[string]int64
	failureReasons map[string]int64

	historySize   func() int
	activeClients func() int
}

type CollectorOption func(*GatewayCollector)

// WithHistorySize reports the retained record count through fn
func WithHistorySize(fn func() int) CollectorOption {
	return func(c *GatewayCollector) { c.historySize = fn }
}

// WithActiveClients reports the tracked identity count through fn
func WithActiveClients(fn func() int) CollectorOption {
	return func(c *GatewayCollector) { c.activeClients = fn }
}

// NewGatewayCollector creates a new in-process collector
func NewGatewayCollector(opts ...CollectorOption) *GatewayCollector {
	c := &GatewayCollector{
		rejected:       make(map[string]int64),
		forwarded:      make(map[string]int64),
		failureReasons: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GatewayCollector) ObserveRejected(textCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected[textCode]++
}

func (c *GatewayCollector) ObserveCompleted(o webhook.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Delivered {
		c.forwarded["delivered"]++
		return
	}
	c.forwarded["failed"]++
	c.failureReasons[o.FailureReason]++
}

// Collect gathers all metrics
func (c *GatewayCollector) Collect(ctx context.Context) (Metrics, error) {
	rejected, _ := c.GetRejected(ctx)
	forwarded, _ := c.GetForwarded(ctx)
	reasons, _ := c.GetFailureReasons(ctx)
	historySize, _ := c.GetHistorySize(ctx)
	activeClients, _ := c.GetActiveClients(ctx)

	return Metrics{
		Rejected:       rejected,
		Forwarded:      forwarded,
		FailureReasons: reasons,
		HistorySize:    historySize,
		ActiveClients:  activeClients,
		Timestamp:      time.Now(),
	}, nil
}

func (c *GatewayCollector) GetRejected(ctx context.Context) (map[string]int64, error) {
	return c.copyOf(c.rejected), nil
}

func (c *GatewayCollector) GetForwarded(ctx context.Context) (map[string]int64, error) {
	return c.copyOf(c.forwarded), nil
}

func (c *GatewayCollector) GetFailureReasons(ctx context.Context) (map[string]int64, error) {
	return c.copyOf(c.failureReasons), nil
}

func (c *GatewayCollector) GetHistorySize(ctx context.Context) (int64, error) {
	if c.historySize == nil {
		return 0, nil
	}
	return int64(c.historySize()), nil
}

func (c *GatewayCollector) GetActiveClients(ctx context.Context) (int64, error) {
	if c.activeClients == nil {
		return 0, nil
	}
	return int64(c.activeClients()), nil
}

func (c *GatewayCollector) copyOf(m map[string]int64) map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
