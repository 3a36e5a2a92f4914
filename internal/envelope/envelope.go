// Package envelope implements the {status, data, message} JSON envelope used
// on every Promorang API response, both the ones this service emits and the
// ones it consumes from the advertiser service.
//
// Decoding validates the envelope exactly once at the boundary and returns a
// typed payload, so callers never re-check status strings downstream.
package envelope

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the raw wire shape.
type Envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// RemoteError is a business-rule rejection or transport failure reported by
// an upstream service. Its message is safe to surface to users verbatim.
type RemoteError struct {
	Op         string // operation the caller attempted, e.g. "load plans"
	StatusCode int    // HTTP status, 0 when the envelope itself rejected
	Message    string // server-provided message, may be empty
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to %s (status %d)", e.Op, e.StatusCode)
	}
	return "failed to " + e.Op
}

// Decode parses an upstream response body against the envelope contract.
//
//   - A body that is not valid JSON is logged and treated as an absent
//     payload, not an error by itself — callers apply defaults.
//   - A non-2xx HTTP status yields a RemoteError carrying the server message
//     when one was parseable.
//   - status != "success" yields a RemoteError even on HTTP 200.
//   - The data payload is decoded into T; an absent or malformed payload
//     leaves T at its zero value for the caller's normalizer to fill in.
func Decode[T any](op string, httpStatus int, body []byte) (T, error) {
	var payload T

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		slog.Debug("unparseable response envelope", "op", op, "err", err)
		env = Envelope{}
	}

	if httpStatus < 200 || httpStatus > 299 {
		return payload, &RemoteError{Op: op, StatusCode: httpStatus, Message: env.Message}
	}
	if env.Status != StatusSuccess {
		return payload, &RemoteError{Op: op, Message: env.Message}
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			slog.Debug("malformed envelope payload", "op", op, "err", err)
			var zero T
			return zero, nil
		}
	}
	return payload, nil
}

// Write emits a success envelope with the given payload.
func Write(w http.ResponseWriter, code int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		WriteError(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Envelope{Status: StatusSuccess, Data: raw})
}

// WriteError emits an error envelope.
func WriteError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(Envelope{Status: StatusError, Message: message})
}
