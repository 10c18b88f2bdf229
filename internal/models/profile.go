package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-policy/gate"
)

// Profile is a named set of permissions. Users hold at most one.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"`

	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
}

// Grants returns the gate permissions of the preloaded Permissions.
func (p *Profile) Grants() []gate.Permission {
	out := make([]gate.Permission, len(p.Permissions))
	for i, perm := range p.Permissions {
		out[i] = perm.Code()
	}
	return out
}

// Permission is one resource:action row. Either part may be the "*"
// wildcard.
type Permission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ResourceType string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource_type"`
	Action       string    `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
	Description  string    `gorm:"size:200" json:"description,omitempty"`
}

// PermissionFor is the row for perm.
func PermissionFor(perm gate.Permission, description string) Permission {
	resource, action := perm.Parse()
	return Permission{ResourceType: resource, Action: string(action), Description: description}
}

// Code is the gate permission the row stands for.
func (p Permission) Code() gate.Permission {
	return gate.NewPermission(p.ResourceType, gate.Action(p.Action))
}
