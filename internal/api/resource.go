// Package api exposes the JSON API: a generic policy-guarded resource
// controller plus session and admin endpoints.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/httpx"
	"github.com/diewo77/go-policy/internal/policy"
	"github.com/diewo77/go-policy/validation"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxPage        = 1_000_000
	maxBodyBytes   = 1 << 20
)

// Rules validates a payload. partial is set for updates, where only the
// fields present are checked.
type Rules func(data gate.Payload, partial bool) validation.Violations

// ResourceConfig describes how a model is served.
type ResourceConfig struct {
	// Fillable lists the payload keys a client may set. Anything else is
	// dropped before the policy hooks run.
	Fillable []string
	// Searchable columns are matched by the "q" query parameter.
	Searchable []string
	// Order is the listing order, "id" when empty.
	Order string
	Rules Rules
}

// Resource is a CRUD controller for model T. Every action is authorized
// through the gate and every query and payload passes through the policy
// qualification hooks of T's resource type.
type Resource[T any] struct {
	db        *gorm.DB
	gate      *policy.AuthGate
	qualifier *gate.Qualifier[uint]
	cfg       ResourceConfig
	logger    *zap.Logger
}

// NewResource returns the controller for T.
func NewResource[T any](db *gorm.DB, ag *policy.AuthGate, cfg ResourceConfig, logger *zap.Logger) *Resource[T] {
	if cfg.Order == "" {
		cfg.Order = "id"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := (*T)(nil)
	return &Resource[T]{
		db:        db,
		gate:      ag,
		qualifier: ag.Qualifier(model),
		cfg:       cfg,
		logger:    logger.Named("api").With(zap.String("resource", gate.TypeOf(model))),
	}
}

// Routes mounts index, store, show, update and destroy.
func (h *Resource[T]) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/", h.Store)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Put("/", h.Update)
		r.Delete("/", h.Destroy)
	})
}

func (h *Resource[T]) descriptor() *T { return nil }

// Index lists the rows the policy lets the user see.
func (h *Resource[T]) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	// A policy that says nothing about listing does not block it.
	if httpx.AuthError(w, h.gate.Authorize(ctx, gate.ActionList, h.descriptor(), true)) {
		return
	}

	page, perPage := pagination(r)
	tx := h.qualifier.QualifyCollectionQuery(ctx, userID, h.db.WithContext(ctx).Model(new(T)))
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" && len(h.cfg.Searchable) > 0 {
		tx = tx.Where(search(h.db, h.cfg.Searchable, q))
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		h.dbError(w, "count", err)
		return
	}
	items := []T{}
	if err := tx.Order(h.cfg.Order).Limit(perPage).Offset((page - 1) * perPage).Find(&items).Error; err != nil {
		h.dbError(w, "list", err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{"page": page, "per_page": perPage, "total": total},
	})
}

// Show returns one row.
func (h *Resource[T]) Show(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.AuthError(w, h.gate.Authorize(r.Context(), gate.ActionView, item, false)) {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Store creates a row from the JSON body.
func (h *Resource[T]) Store(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	if httpx.AuthError(w, h.gate.Authorize(ctx, gate.ActionCreate, h.descriptor(), false)) {
		return
	}
	data, ok := h.payload(w, r, false)
	if !ok {
		return
	}
	data = h.qualifier.QualifyStoreData(ctx, userID, data)

	item := new(T)
	if err := decode(data, item); err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
		return
	}
	if err := h.db.WithContext(ctx).Create(item).Error; err != nil {
		h.writeError(w, "create", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Update applies the JSON body to one row.
func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	item, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.AuthError(w, h.gate.Authorize(ctx, gate.ActionUpdate, item, false)) {
		return
	}
	data, ok := h.payload(w, r, true)
	if !ok {
		return
	}
	data = h.qualifier.QualifyUpdateData(ctx, userID, data)

	if len(data) > 0 {
		if err := h.db.WithContext(ctx).Model(item).Updates(map[string]any(data)).Error; err != nil {
			h.writeError(w, "update", err)
			return
		}
	}
	if err := h.db.WithContext(ctx).First(item).Error; err != nil {
		h.dbError(w, "reload", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Destroy deletes one row.
func (h *Resource[T]) Destroy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	if httpx.AuthError(w, h.gate.Authorize(ctx, gate.ActionDelete, item, false)) {
		return
	}
	if err := h.db.WithContext(ctx).Delete(item).Error; err != nil {
		h.dbError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the {id} row through the item qualification hook, so rows
// the policy hides answer 404.
func (h *Resource[T]) load(w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	userID, _ := auth.UserIDFromContext(ctx)

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}

	item := new(T)
	tx := h.qualifier.QualifyItemQuery(ctx, userID, h.db.WithContext(ctx).Model(new(T)))
	if err := tx.First(item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return nil, false
		}
		h.dbError(w, "load", err)
		return nil, false
	}
	return item, true
}

// payload decodes the body, keeps the fillable keys and validates them.
func (h *Resource[T]) payload(w http.ResponseWriter, r *http.Request, partial bool) (gate.Payload, bool) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return nil, false
	}

	data := make(gate.Payload, len(h.cfg.Fillable))
	for _, key := range h.cfg.Fillable {
		if v, ok := raw[key]; ok {
			data[key] = v
		}
	}
	if h.cfg.Rules != nil {
		if v := h.cfg.Rules(data, partial); !v.Empty() {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
			return nil, false
		}
	}
	return data, true
}

func (h *Resource[T]) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
		return
	}
	h.dbError(w, op, err)
}

func (h *Resource[T]) dbError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("database error", zap.String("op", op), zap.Error(err))
	httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
}

// decode copies a payload into a model through its JSON tags.
func decode(data gate.Payload, into any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, into)
}

// pagination reads page and per_page, clamped to sane values.
func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// search ORs a case-insensitive substring match over columns.
func search(db *gorm.DB, columns []string, q string) *gorm.DB {
	pattern := "%" + strings.ToLower(q) + "%"
	cond := db.Session(&gorm.Session{NewDB: true})
	for i, col := range columns {
		if i == 0 {
			cond = cond.Where("LOWER("+col+") LIKE ?", pattern)
			continue
		}
		cond = cond.Or("LOWER("+col+") LIKE ?", pattern)
	}
	return cond
}
