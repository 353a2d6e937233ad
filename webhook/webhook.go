package webhook

import (
	"time"

	"github.com/marcelsud/webhook-gateway/ratelimit"
)

/* Record is an accepted webhook as kept in history
 * Uses value semantics and is never modified once stored
 */
type Record struct {
	ID         string
	ReceivedAt time.Time
	Payload    any
}

/* Outcome describes the single relay attempt for a record
 * DownstreamStatus and DownstreamBody are set only when a response was received
 * Truncated reports that DownstreamBody holds only a prefix of the downstream body
 */
type Outcome struct {
	Delivered        bool
	DownstreamStatus *int
	DownstreamBody   *string
	Truncated        bool
	FailureReason    string
	Duration         time.Duration
}

// Receipt is what the gateway hands back to the transport layer
type Receipt struct {
	Record   Record
	Outcome  Outcome
	Decision ratelimit.Decision
}
