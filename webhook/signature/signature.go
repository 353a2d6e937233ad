package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

/* Outbound signing following Standard Webhooks
 * The signed content is {msgID}.{unix timestamp}.{body}
 */

const (
	// SecretPrefix is the prefix for Standard Webhooks symmetric secrets
	SecretPrefix = "whsec_"

	// Version is the version identifier for symmetric signatures
	Version = "v1"

	MinSecretBytes = 24
	MaxSecretBytes = 64

	HeaderID        = "webhook-id"
	HeaderTimestamp = "webhook-timestamp"
	HeaderSignature = "webhook-signature"
)

type Secret struct {
	raw     []byte
	encoded string
}

// GenerateSecret creates a random secret between MinSecretBytes and MaxSecretBytes long
func GenerateSecret(size int) (Secret, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return Secret{}, fmt.Errorf("generating random bytes: %w", err)
	}
	return Secret{raw: b, encoded: SecretPrefix + base64.StdEncoding.EncodeToString(b)}, nil
}

// ParseSecret parses a base64 secret carrying the whsec_ prefix
func ParseSecret(encoded string) (Secret, error) {
	if !strings.HasPrefix(encoded, SecretPrefix) {
		return Secret{}, fmt.Errorf("secret must start with %s prefix", SecretPrefix)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, SecretPrefix))
	if err != nil {
		return Secret{}, fmt.Errorf("decoding base64 secret: %w", err)
	}
	if len(raw) < MinSecretBytes || len(raw) > MaxSecretBytes {
		return Secret{}, fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}
	return Secret{raw: raw, encoded: encoded}, nil
}

func (s Secret) String() string { return s.encoded }
func (s Secret) Bytes() []byte  { return s.raw }

// Sign returns the header value v1,<base64 HMAC-SHA256>
func Sign(secret Secret, msgID string, timestamp time.Time, body []byte) (string, error) {
	if strings.Contains(msgID, ".") {
		return "", fmt.Errorf("message ID must not contain '.'")
	}

	mac := hmac.New(sha256.New, secret.Bytes())
	mac.Write([]byte(msgID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	mac.Write([]byte{'.'})
	mac.Write(body)

	return Version + "," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Apply sets the three signing headers on h
func Apply(h http.Header, secret Secret, msgID string, timestamp time.Time, body []byte) error {
	sig, err := Sign(secret, msgID, timestamp, body)
	if err != nil {
		return fmt.Errorf("signing payload: %w", err)
	}
	h.Set(HeaderID, msgID)
	h.Set(HeaderTimestamp, strconv.FormatInt(timestamp.Unix(), 10))
	h.Set(HeaderSignature, sig)
	return nil
}
