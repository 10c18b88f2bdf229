package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/httpx"
	"github.com/diewo77/go-policy/internal/models"
	"github.com/diewo77/go-policy/internal/policy"
)

// SessionHandler logs users in and out and describes the current user.
type SessionHandler struct {
	db     *gorm.DB
	auth   *auth.Authenticator
	gate   *policy.AuthGate
	logger *zap.Logger
}

func NewSessionHandler(db *gorm.DB, a *auth.Authenticator, ag *policy.AuthGate, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{db: db, auth: a, gate: ag, logger: logger.Named("session")}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials, sets the session cookie and returns a
// bearer token for API clients.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	email := models.NormalizeEmail(req.Email)

	var user models.User
	err := h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("load user", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	if err != nil || !user.CheckPassword(req.Password) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	h.auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// Logout clears the session cookie. Bearer tokens expire on their own.
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user with its profile.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).Preload("Profile").First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// Abilities returns, per resource type, the actions the user's profile
// grants. Ownership is not considered: it depends on the row.
func (h *SessionHandler) Abilities(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"data": h.gate.Abilities(r.Context())})
}

// UserExists is an auth.UserVerifier backed by the users table.
func UserExists(db *gorm.DB) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	}
}
