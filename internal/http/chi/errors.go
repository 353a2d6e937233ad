package chi

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/httplog"
	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"
)

const msgInternal = "Internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := httplog.LogEntry(r.Context())
		log.Error().Err(err).Int("status", status).Msg("writing response")
	}
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

// writeError maps a gateway error to its status and message. Anything unknown is a 500
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Code == 0 || rich.Code >= http.StatusInternalServerError {
		log := httplog.LogEntry(r.Context())
		log.Error().Err(err).Msg("request failed")
		writeMessage(w, r, http.StatusInternalServerError, msgInternal)
		return
	}
	writeMessage(w, r, rich.Code, rich.Message)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// recoverer turns a panic into the JSON 500 envelope
func recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger.Error().
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("recovered from panic")
				writeMessage(w, r, http.StatusInternalServerError, msgInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
