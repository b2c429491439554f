package dto

// AnalyticsSnapshotDTO is the aggregate view returned to the dashboard.
// RecentMailTimestamps holds at most the five newest mail timestamps.
type AnalyticsSnapshotDTO struct {
	AnalyticsID          string           `json:"analytics_id"`
	BlinkCreator         string           `json:"blink_creator"`
	TotalVisits          int64            `json:"total_visits"`
	TotalMails           int64            `json:"total_mails"`
	Earnings             float64          `json:"earnings"`
	LastVisited          *string          `json:"last_visited,omitempty"`
	RecentMailTimestamps []string         `json:"recent_mail_timestamps"`
	VisitorLocations     map[string]int64 `json:"visitor_locations,omitempty"`
}
