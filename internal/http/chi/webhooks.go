package chi

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-gateway/access"
	"github.com/marcelsud/webhook-gateway/ratelimit"
	"github.com/marcelsud/webhook-gateway/webhook"
)

/* HTTP layer DTOs for the gateway API
 * Separate from domain entities to avoid leaking internal structure
 */

// downstreamTruncated is set when downstreamResponse holds only the first 1 MiB of the downstream body
type webhookResponse struct {
	ID                  string  `json:"id"`
	Status              string  `json:"status"`
	Delivered           bool    `json:"delivered"`
	DownstreamStatus    *int    `json:"downstreamStatus"`
	DownstreamResponse  *string `json:"downstreamResponse"`
	DownstreamTruncated bool    `json:"downstreamTruncated,omitempty"`
	FailureReason       string  `json:"failureReason,omitempty"`
}

type recordResponse struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"receivedAt"`
	Payload    any       `json:"payload"`
}

type historyResponse struct {
	Webhooks []recordResponse `json:"webhooks"`
}

type healthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

// postWebhook handles POST /webhook
func postWebhook(svc webhook.UseCase, keyFn KeyFunc, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := r.Header.Get(access.HeaderAPIKey)
		if err := svc.Authorize(r.Context(), credential); err != nil {
			writeError(w, r, err)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeMessage(w, r, http.StatusRequestEntityTooLarge, "Payload too large")
				return
			}
			writeMessage(w, r, http.StatusBadRequest, "failed to read request body")
			return
		}
		defer r.Body.Close()

		receipt, err := svc.Receive(r.Context(), credential, keyFn(r), body)
		setRateLimitHeaders(w, receipt.Decision, time.Now())
		if err != nil {
			writeError(w, r, err)
			return
		}

		status := "ok"
		if !receipt.Outcome.Delivered {
			status = "accepted"
		}
		writeJSON(w, r, http.StatusOK, webhookResponse{
			ID:                  receipt.Record.ID,
			Status:              status,
			Delivered:           receipt.Outcome.Delivered,
			DownstreamStatus:    receipt.Outcome.DownstreamStatus,
			DownstreamResponse:  receipt.Outcome.DownstreamBody,
			DownstreamTruncated: receipt.Outcome.Truncated,
			FailureReason:       receipt.Outcome.FailureReason,
		})
	})
}

// getWebhooks handles GET /webhooks
func getWebhooks(svc webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		records, err := svc.History(r.Context(), r.Header.Get(access.HeaderAPIKey))
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := historyResponse{Webhooks: make([]recordResponse, 0, len(records))}
		for _, rec := range records {
			resp.Webhooks = append(resp.Webhooks, recordResponse{
				ID:         rec.ID,
				ReceivedAt: rec.ReceivedAt,
				Payload:    rec.Payload,
			})
		}
		writeJSON(w, r, http.StatusOK, resp)
	})
}

// getHealth handles GET /health
func getHealth(startedAt time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, healthResponse{
			Status: "ok",
			Uptime: time.Since(startedAt).Seconds(),
		})
	})
}

// setRateLimitHeaders writes RateLimit-* for every rate checked request and Retry-After when denied
func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision, now time.Time) {
	if d.Limit == 0 {
		return
	}
	reset := int64(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if reset < 0 {
		reset = 0
	}
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))
	if !d.Allowed {
		h.Set("Retry-After", strconv.FormatInt(int64(d.RetryAfter(now)/time.Second), 10))
	}
}
