package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalogue entry owned by one user.
// Implements the policy.Ownable interface for ownership-based authorization.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is the owner of this product (for multi-tenant isolation)
	UserID uint `gorm:"not null;index;uniqueIndex:idx_product_user_code" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Code        string  `gorm:"size:50;not null;uniqueIndex:idx_product_user_code" json:"code"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	UnitPrice   float64 `gorm:"type:decimal(10,2);not null" json:"unit_price"`

	// VAT rate stored as decimal (0.20 = 20%)
	VATRate  float64 `gorm:"type:decimal(5,4);default:0.20" json:"vat_rate"`
	IsActive bool    `gorm:"default:true" json:"is_active"`
}

// GetUserID implements the Ownable interface for authorization.
func (p *Product) GetUserID() uint {
	return p.UserID
}
