package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-gateway/webhook/payload"
	"github.com/rs/zerolog"
)

/* Service is the gateway: it runs every inbound webhook through
 * authorization, decoding, rate limiting, storage and forwarding
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the gateway operations exposed to the transport layer
type UseCase interface {
	Authorize(ctx context.Context, credential string) error
	Receive(ctx context.Context, credential, identity string, body []byte) (Receipt, error)
	History(ctx context.Context, credential string) ([]Record, error)
}

type Service struct {
	guard     Authorizer
	limiter   Limiter
	history   History
	forwarder Forwarder

	policy   DisconnectPolicy
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithDisconnectPolicy(p DisconnectPolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new gateway service with dependency injection
func NewService(guard Authorizer, limiter Limiter, history History, forwarder Forwarder, opts ...Option) *Service {
	s := &Service{
		guard:     guard,
		limiter:   limiter,
		history:   history,
		forwarder: forwarder,
		policy:    Detach,
		observer:  nopObserver{},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receive accepts one inbound webhook from identity.
// A rate limited call returns the Decision in the Receipt along with the error.
func (s *Service) Receive(ctx context.Context, credential, identity string, body []byte) (Receipt, error) {
	log := s.logger.With().Str("client", identity).Logger()
	log.Debug().Stringer("stage", Received).Msg("webhook received")

	if err := s.guard.Authorize(credential); err != nil {
		return Receipt{}, s.reject(log, Received, unauthorized(err))
	}
	log.Debug().Stringer("stage", Authorized).Msg("credential accepted")

	decoded, err := payload.Decode(body)
	if err != nil {
		return Receipt{}, s.reject(log, Authorized, badPayload(err))
	}

	now := s.now()
	decision, err := s.limiter.Admit(ctx, identity, now)
	if err != nil {
		log.Error().Err(err).Stringer("stage", Authorized).Msg("rate limiter failed")
		s.observer.ObserveRejected(TextCodeInternal)
		return Receipt{}, defect(err, "admitting request")
	}
	if !decision.Allowed {
		return Receipt{Decision: decision}, s.reject(log, Denied, rateLimited())
	}
	log.Debug().Stringer("stage", Admitted).Int("remaining", decision.Remaining).Msg("request admitted")

	record := Record{
		ID:         uuid.NewString(),
		ReceivedAt: now,
		Payload:    decoded,
	}
	s.history.Append(record)
	log = log.With().Str("webhook_id", record.ID).Logger()
	log.Debug().Stringer("stage", Stored).Msg("webhook stored")

	fctx := ctx
	if s.policy == Detach {
		fctx = context.WithoutCancel(ctx)
	}
	log.Debug().Stringer("stage", Forwarding).Msg("forwarding webhook")
	outcome, err := s.forwarder.Forward(fctx, record)
	if err != nil {
		log.Error().Err(err).Stringer("stage", Forwarding).Msg("forwarding failed")
		s.observer.ObserveRejected(TextCodeInternal)
		return Receipt{Record: record, Decision: decision}, defect(err, "forwarding webhook")
	}

	event := log.Info()
	if !outcome.Delivered {
		event = log.Warn().Str("failure_reason", outcome.FailureReason)
	}
	if outcome.DownstreamStatus != nil {
		event = event.Int("downstream_status", *outcome.DownstreamStatus)
	}
	event.Stringer("stage", Completed).
		Bool("delivered", outcome.Delivered).
		Dur("duration", outcome.Duration).
		Msg("webhook relayed")
	s.observer.ObserveCompleted(outcome)

	return Receipt{Record: record, Outcome: outcome, Decision: decision}, nil
}

// Authorize checks credential alone so the transport can reject a caller before reading its body
func (s *Service) Authorize(ctx context.Context, credential string) error {
	if err := s.guard.Authorize(credential); err != nil {
		return s.reject(s.logger, Received, unauthorized(err))
	}
	return nil
}

// History returns the retained records, oldest first
func (s *Service) History(ctx context.Context, credential string) ([]Record, error) {
	if err := s.Authorize(ctx, credential); err != nil {
		return nil, err
	}
	return s.history.Snapshot(), nil
}

func (s *Service) reject(log zerolog.Logger, stage Stage, err error) error {
	code := TextCode(err)
	log.Debug().Stringer("stage", stage).Str("reason", code).Msg("request rejected")
	s.observer.ObserveRejected(code)
	return err
}
