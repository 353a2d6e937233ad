package webhook

import (
	"context"
	"time"

	"github.com/marcelsud/webhook-gateway/ratelimit"
)

/* Small, focused interfaces for the collaborators of the Service
 * Each one is owned by the Service and injected, so tests build isolated instances
 */

// Authorizer validates the presented credential
type Authorizer interface {
	Authorize(presented string) error
}

// Limiter admits or rejects a client identity at an instant
type Limiter interface {
	Admit(ctx context.Context, identity string, now time.Time) (ratelimit.Decision, error)
}

// History keeps the most recent accepted records
type History interface {
	Append(r Record)
	Snapshot() []Record
}

// Forwarder relays a record downstream exactly once.
// Transport failures are reported in the Outcome, the error is reserved for defects
type Forwarder interface {
	Forward(ctx context.Context, r Record) (Outcome, error)
}

// Observer is told how each request left the pipeline
type Observer interface {
	ObserveRejected(textCode string)
	ObserveCompleted(o Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveRejected(string)   {}
func (nopObserver) ObserveCompleted(Outcome) {}
