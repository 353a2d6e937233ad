package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-gateway/webhook"
	"github.com/marcelsud/webhook-gateway/webhook/payload"
	"github.com/marcelsud/webhook-gateway/webhook/signature"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 10 * time.Second
	UserAgent        = "Webhook-Handler/1.0"
	HeaderWebhookID  = "X-Webhook-Id"
	maxResponseBytes = 1 << 20 // 1 MiB

	ReasonRateWait = "rate wait exceeded"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

/* Forwarder performs one POST per record to a single target
 * It never retries: a transport failure becomes an undelivered Outcome
 * Only local defects, such as a payload that cannot be encoded, are returned as errors
 */
type Forwarder struct {
	target  string
	client  HTTPDoer
	codec   payload.Codec
	timeout time.Duration
	pacer   *rate.Limiter
	secret  *signature.Secret
	now     func() time.Time
}

type Option func(*Forwarder)

func WithClient(c HTTPDoer) Option {
	return func(f *Forwarder) { f.client = c }
}

func WithCodec(c payload.Codec) Option {
	return func(f *Forwarder) { f.codec = c }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) { f.timeout = d }
}

// WithRate paces outbound requests to rps with a burst of one. Zero disables pacing
func WithRate(rps float64) Option {
	return func(f *Forwarder) {
		if rps > 0 {
			f.pacer = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithSigningSecret adds Standard Webhooks signature headers to every request
func WithSigningSecret(s signature.Secret) Option {
	return func(f *Forwarder) { f.secret = &s }
}

// New creates a forwarder for target
func New(target string, opts ...Option) *Forwarder {
	f := &Forwarder{
		target:  target,
		client:  &http.Client{},
		codec:   payload.JSON{},
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forward relays r and waits for the response or failure, bounded by the forwarder timeout
func (f *Forwarder) Forward(ctx context.Context, r webhook.Record) (webhook.Outcome, error) {
	body, err := f.codec.Encode(r.Payload)
	if err != nil {
		return webhook.Outcome{}, fmt.Errorf("encoding payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	failed := func(reason string) webhook.Outcome {
		return webhook.Outcome{Delivered: false, FailureReason: reason, Duration: time.Since(start)}
	}

	if f.pacer != nil {
		if err := f.pacer.Wait(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return failed(ReasonCanceled), nil
			}
			return failed(ReasonRateWait), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.target, bytes.NewReader(body))
	if err != nil {
		return webhook.Outcome{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", f.codec.ContentType())
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderWebhookID, r.ID)
	if f.secret != nil {
		if err := signature.Apply(req.Header, *f.secret, r.ID, f.now(), body); err != nil {
			return webhook.Outcome{}, fmt.Errorf("signing request: %w", err)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return failed(Classify(err)), nil
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	truncated := len(data) > maxResponseBytes
	if truncated {
		data = data[:maxResponseBytes]
	}
	if err == nil {
		_, err = io.Copy(io.Discard, resp.Body)
	}
	if err != nil {
		o := failed(Classify(err))
		o.DownstreamStatus = &status
		return o, nil
	}

	text := string(data)
	return webhook.Outcome{
		Delivered:        true,
		DownstreamStatus: &status,
		DownstreamBody:   &text,
		Truncated:        truncated,
		Duration:         time.Since(start),
	}, nil
}
