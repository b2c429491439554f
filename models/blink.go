package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Blink represents a published, shareable contact endpoint combining a
// payout address, an asking fee, and contact metadata.
// UniqueBlinkID is the public action slug and never changes after creation.
// AnalyticsID is a secondary public slug for the analytics dashboard; it is
// nullable because legacy rows predate it.
type Blink struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UniqueBlinkID string  `gorm:"size:64;not null;uniqueIndex:uk_blinks_unique_blink_id" json:"unique_blink_id"`
	AnalyticsID   *string `gorm:"size:64;uniqueIndex:uk_blinks_analytics_id" json:"analytics_id,omitempty"`
	Codename      string  `gorm:"size:100;not null" json:"codename"`
	Email         string  `gorm:"size:255;not null" json:"email"`
	SolanaKey     string  `gorm:"size:64;not null" json:"solana_key"`
	AskingFee     float64 `gorm:"type:numeric(12,4);not null;default:0" json:"asking_fee"`
	Description   *string `gorm:"type:text" json:"description,omitempty"`
	ImageURL      *string `gorm:"type:text" json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_blinks_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relationships
	Analytics *Analytics `gorm:"foreignKey:BlinkID;constraint:OnDelete:CASCADE" json:"analytics,omitempty"`
	Mails     []Mail     `gorm:"foreignKey:BlinkID;constraint:OnDelete:CASCADE" json:"mails,omitempty"`
}

// TableName returns the table name for Blink
func (Blink) TableName() string { return "blinks" }

// BeforeCreate normalizes the delivery address
func (b *Blink) BeforeCreate(tx *gorm.DB) error {
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
	return nil
}

// BlinkFilter provides filter fields for repository queries
type BlinkFilter struct {
	ID            *uint
	UniqueBlinkID *string
	AnalyticsID   *string
	Email         *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
