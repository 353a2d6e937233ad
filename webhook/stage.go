package webhook

import "fmt"

/* Stage is a step of the request pipeline
 * Received -> Authorized -> Admitted/Denied -> Stored -> Forwarding -> Completed
 */
type Stage int

const (
	Received Stage = iota + 1
	Authorized
	Admitted
	Denied
	Stored
	Forwarding
	Completed
)

// String returns the string representation of the stage
func (s Stage) String() string {
	switch s {
	case Received:
		return "received"
	case Authorized:
		return "authorized"
	case Admitted:
		return "admitted"
	case Denied:
		return "denied"
	case Stored:
		return "stored"
	case Forwarding:
		return "forwarding"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Validate checks if the stage is valid
func (s Stage) Validate() error {
	if s < Received || s > Completed {
		return fmt.Errorf("invalid stage: %d", s)
	}
	return nil
}

// IsFinal returns true when no further transition follows
func (s Stage) IsFinal() bool {
	return s == Denied || s == Completed
}
