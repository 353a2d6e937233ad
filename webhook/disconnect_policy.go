package webhook

import "fmt"

/* DisconnectPolicy decides what happens to an in-flight forward when the caller goes away
 * Detach keeps forwarding until the forward timeout so the outcome is always computed
 * Cancel propagates the caller's cancellation to the downstream request
 */
type DisconnectPolicy int

const (
	Detach DisconnectPolicy = iota + 1
	Cancel
)

// String returns the string representation of the policy
func (p DisconnectPolicy) String() string {
	switch p {
	case Detach:
		return "detach"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// NewDisconnectPolicy creates a DisconnectPolicy from a string
func NewDisconnectPolicy(s string) DisconnectPolicy {
	switch s {
	case "cancel":
		return Cancel
	default:
		return Detach
	}
}

// Validate checks if the policy is valid
func (p DisconnectPolicy) Validate() error {
	if p != Detach && p != Cancel {
		return fmt.Errorf("invalid disconnect policy: %d", p)
	}
	return nil
}
