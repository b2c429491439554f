package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LocationCounts maps a location key to a visit count, stored as jsonb
type LocationCounts map[string]int64

// Value implements driver.Valuer
func (l LocationCounts) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *LocationCounts) Scan(src any) error {
	if src == nil {
		*l = LocationCounts{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for LocationCounts: %T", src)
	}
}

// Timestamps is an ordered sequence of event times, stored as a jsonb array.
// Appends happen in SQL (`mail_timestamps || ...`) so concurrent writers
// never overwrite each other; this type only covers scan/serialize.
type Timestamps []time.Time

// Value implements driver.Valuer
func (t Timestamps) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *Timestamps) Scan(src any) error {
	if src == nil {
		*t = Timestamps{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported type for Timestamps: %T", src)
	}
}

// Analytics holds the aggregate counters owned by exactly one Blink.
// TotalMails and Earnings are a cache over the mails table: they are
// incremented on mail events and recomputed from the authoritative Mail
// count on every read, so transient drift always converges.
type Analytics struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	BlinkID     uint           `gorm:"not null;uniqueIndex:uk_analytics_blink_id" json:"blink_id"`
	TotalVisits int64          `gorm:"not null;default:0" json:"total_visits"`
	TotalMails  int64          `gorm:"not null;default:0" json:"total_mails"`
	Earnings    float64        `gorm:"type:numeric(14,4);not null;default:0" json:"earnings"`
	LastVisited time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_visited"`

	VisitorLocations LocationCounts `gorm:"type:jsonb;not null;default:'{}'" json:"visitor_locations"`
	MailTimestamps   Timestamps     `gorm:"type:jsonb;not null;default:'[]'" json:"mail_timestamps"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName returns the table name for Analytics
func (Analytics) TableName() string { return "analytics" }

// AnalyticsFilter provides filter fields for repository queries
type AnalyticsFilter struct {
	ID      *uint
	BlinkID *uint
}
