package access

import (
	"crypto/subtle"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// HeaderAPIKey carries the shared credential on every protected request
const HeaderAPIKey = "X-API-Key"

const TextCodeUnauthorized = "UNAUTHORIZED"

// ErrUnauthorized is returned for a missing or mismatching credential
var ErrUnauthorized = goerrors.New("Unauthorized", goerrors.CategoryAuth).
	WithCode(http.StatusUnauthorized).
	WithTextCode(TextCodeUnauthorized)

/* Guard authenticates callers against a single static secret
 * It holds no state besides the secret and is safe for concurrent use
 */
type Guard struct {
	secret []byte
}

// NewGuard creates a guard for secret. An empty secret denies everything
func NewGuard(secret string) *Guard {
	return &Guard{secret: []byte(secret)}
}

// Authorize accepts presented only when it equals the configured secret
func (g *Guard) Authorize(presented string) error {
	if len(g.secret) == 0 || presented == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), g.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}
