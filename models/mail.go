package models

import "time"

// Mail represents one delivered message instance, created only as the
// terminal step of a successful action handshake. MessageBody stores the
// formatted canonical body, not the visitor's raw text. CreatorEmail is
// denormalized from the owning Blink at write time.
type Mail struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BlinkID      uint      `gorm:"not null;index:idx_mails_blink_id" json:"blink_id"`
	SenderEmail  string    `gorm:"size:255;not null" json:"sender_email"`
	SenderName   string    `gorm:"size:100;not null" json:"sender_name"`
	MessageBody  string    `gorm:"type:text;not null" json:"message_body"`
	CreatorEmail string    `gorm:"size:255;not null" json:"creator_email"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_mails_created_at" json:"created_at"`
}

// TableName returns the table name for Mail
func (Mail) TableName() string { return "mails" }

// MailFilter provides filter fields for repository queries
type MailFilter struct {
	ID            *uint
	BlinkID       *uint
	SenderEmail   *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
