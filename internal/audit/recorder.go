// Package audit persists authorization decisions.
package audit

import (
	"context"
	"reflect"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-policy/auth"
	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/internal/models"
)

// Recorder writes one AuditEntry per decision. Decisions taken because
// nothing was configured are skipped unless Defaults is set.
type Recorder struct {
	db       *gorm.DB
	logger   *zap.Logger
	Defaults bool
}

// NewRecorder returns a recorder writing to db.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger.Named("audit")}
}

// Observe implements gate.Observer. Write failures are logged, never
// returned: auditing must not change the decision.
func (r *Recorder) Observe(ctx context.Context, d gate.Decision, err error) {
	if d.Defaulted() && !r.Defaults && err == nil {
		return
	}
	userID, _ := auth.UserIDFromContext(ctx)
	entry := models.AuditEntry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Ability:      string(d.Ability),
		ResourceType: d.ResourceType,
		ResourceID:   resourceID(d.Resource),
		Allowed:      d.Allowed && err == nil,
		Reason:       string(d.Reason),
	}
	if err != nil {
		entry.Fault = truncate(err.Error(), 500)
	}
	if werr := r.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; werr != nil {
		r.logger.Warn("write audit entry", zap.Error(werr))
	}
}

// Recent returns the newest entries first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditEntry
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// resourceID reads the uint ID field of a loaded model.
func resourceID(resource any) *uint {
	if gate.IsType(resource) {
		return nil
	}
	v := reflect.Indirect(reflect.ValueOf(resource))
	if v.Kind() != reflect.Struct {
		return nil
	}
	f := v.FieldByName("ID")
	if !f.IsValid() || f.Kind() != reflect.Uint || f.Uint() == 0 {
		return nil
	}
	id := uint(f.Uint())
	return &id
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
