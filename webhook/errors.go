package webhook

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/marcelsud/webhook-gateway/access"
)

const (
	TextCodeUnauthorized = access.TextCodeUnauthorized
	TextCodeBadPayload   = "BAD_PAYLOAD"
	TextCodeRateLimited  = "RATE_LIMITED"
	TextCodeInternal     = "INTERNAL"
)

func unauthorized(err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryAuth {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryAuth, "Unauthorized").
		WithCode(http.StatusUnauthorized).
		WithTextCode(TextCodeUnauthorized)
}

func badPayload(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid JSON payload").
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeBadPayload)
}

func rateLimited() error {
	return goerrors.New("Too many requests", goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(TextCodeRateLimited)
}

func defect(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeInternal)
}

// TextCode returns the text code carried by err, or INTERNAL when there is none
func TextCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode != "" {
		return rich.TextCode
	}
	return TextCodeInternal
}
