package models

import "time"

// AuditEntry records one authorization decision.
type AuditEntry struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UserID       uint      `gorm:"index" json:"user_id"`
	Ability      string    `gorm:"size:50;not null" json:"ability"`
	ResourceType string    `gorm:"size:50;index" json:"resource_type"`
	ResourceID   *uint     `json:"resource_id,omitempty"`
	Allowed      bool      `json:"allowed"`
	Reason       string    `gorm:"size:30" json:"reason"`
	Fault        string    `gorm:"size:500" json:"fault,omitempty"`
}
