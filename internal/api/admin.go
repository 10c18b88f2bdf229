package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/httpx"
	"github.com/diewo77/go-policy/internal/models"
)

// Invalidator drops cached profiles, on every instance when it can.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID uint) error
	InvalidateAll(ctx context.Context) error
}

// AuditLog lists recorded decisions.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// AdminHandler manages user profiles and the profile cache.
type AdminHandler struct {
	db     *gorm.DB
	cache  Invalidator
	audit  AuditLog
	logger *zap.Logger
}

func NewAdminHandler(db *gorm.DB, cache Invalidator, audit AuditLog, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{db: db, cache: cache, audit: audit, logger: logger.Named("admin")}
}

// Routes mounts the admin endpoints. Callers guard them.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}/profile", h.AssignProfile)
	r.Get("/profiles", h.ListProfiles)
	r.Post("/cache/flush", h.FlushCache)
	r.Get("/audit", h.Audit)
}

// ListUsers returns every user with its profile.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.db.WithContext(r.Context()).Preload("Profile").Order("id").Find(&users).Error; err != nil {
		h.dbError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": users})
}

// ListProfiles returns every profile with its permissions.
func (h *AdminHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	var profiles []models.Profile
	if err := h.db.WithContext(r.Context()).Preload("Permissions").Order("name").Find(&profiles).Error; err != nil {
		h.dbError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": profiles})
}

type assignProfileRequest struct {
	ProfileID *uint `json:"profile_id"`
}

// AssignProfile sets (or clears, with a null profile_id) a user's profile
// and drops the user's cached profile everywhere.
func (h *AdminHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}
	var req assignProfileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	if req.ProfileID != nil {
		var profile models.Profile
		if err := h.db.WithContext(ctx).First(&profile, *req.ProfileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
				return
			}
			h.dbError(w, err)
			return
		}
	}

	res := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("profile_id", req.ProfileID)
	if res.Error != nil {
		h.dbError(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
		return
	}

	if err := h.cache.InvalidateUser(ctx, uint(userID)); err != nil {
		// The local cache is already clean; other instances catch up on TTL.
		h.logger.Warn("broadcast invalidation", zap.Uint64("user_id", userID), zap.Error(err))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "profile_id": req.ProfileID})
}

// FlushCache drops every cached profile on every instance.
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.InvalidateAll(r.Context()); err != nil {
		h.logger.Warn("broadcast flush", zap.Error(err))
		httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "flushed_locally"})
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "flushed"})
}

// Audit returns the latest authorization decisions.
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		httpx.JSONError(w, http.StatusNotFound, "audit_disabled", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.dbError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (h *AdminHandler) dbError(w http.ResponseWriter, err error) {
	h.logger.Error("database error", zap.Error(err))
	httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
}
