package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diewo77/go-policy/gate"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// AuthError maps an authorization error to its HTTP answer: 403 for a
// deny, 500 for a fault. It reports whether err was handled.
func AuthError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gate.ErrUnauthorized):
		JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, gate.ErrAuthorizationFault):
		JSONError(w, http.StatusInternalServerError, "authorization_fault", nil)
	default:
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
	return true
}
