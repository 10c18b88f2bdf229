package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/go-policy/gate"
)

func TestAuthError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		handled bool
		status  int
	}{
		{"nil", nil, false, http.StatusOK},
		{"deny", &gate.UnauthorizedError{}, true, http.StatusForbidden},
		{"wrapped deny", fmt.Errorf("show: %w", gate.ErrUnauthorized), true, http.StatusForbidden},
		{"fault", &gate.AuthorizationFault{Err: errors.New("x")}, true, http.StatusInternalServerError},
		{"other", errors.New("x"), true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			if got := AuthError(rr, tt.err); got != tt.handled {
				t.Fatalf("AuthError() = %v, want %v", got, tt.handled)
			}
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}
