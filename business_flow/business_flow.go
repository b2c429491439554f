// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/xmailer/xmailer/app/dto"
	"github.com/xmailer/xmailer/models"
	"github.com/xmailer/xmailer/repository"
)

// ClientMetadata holds client-related information for logging and visitor
// location tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Country   string `json:"country,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetCountry sets the visitor country resolved from request headers
func (cm *ClientMetadata) SetCountry(country string) {
	cm.Country = country
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

func isValidEmail(address string) bool {
	_, err := mail.ParseAddress(address)
	return err == nil
}

// lookupBlink resolves a blink by its slug with the standard read retry and
// maps a missing row to ErrBlinkNotFound.
func lookupBlink(ctx context.Context, repo repository.BlinkRepository, uniqueBlinkID string) (*models.Blink, error) {
	var blink *models.Blink
	err := repository.WithRetry(ctx, repository.DefaultRetryAttempts, repository.DefaultRetryBackoff, func() error {
		var lookupErr error
		blink, lookupErr = repo.ByUniqueBlinkID(ctx, uniqueBlinkID)
		return lookupErr
	})
	if err != nil {
		return nil, NewBusinessError("BLINK_LOOKUP_FAILED", "Failed to lookup blink", err)
	}
	if blink == nil {
		return nil, fmt.Errorf("%w: %s", ErrBlinkNotFound, uniqueBlinkID)
	}
	return blink, nil
}

// ToBlinkDTO converts a blink model to its public representation
func ToBlinkDTO(blink models.Blink) dto.BlinkDTO {
	return dto.BlinkDTO{
		ID:            blink.ID,
		UniqueBlinkID: blink.UniqueBlinkID,
		AnalyticsID:   blink.AnalyticsID,
		Codename:      blink.Codename,
		Email:         blink.Email,
		SolanaKey:     blink.SolanaKey,
		AskingFee:     blink.AskingFee,
		Description:   blink.Description,
		ImageURL:      blink.ImageURL,
		CreatedAt:     blink.CreatedAt.Format(time.RFC3339),
	}
}

// ToAnalyticsSnapshotDTO converts an analytics row to the dashboard snapshot.
// recentTimestamps must already be trimmed to the newest entries.
func ToAnalyticsSnapshotDTO(analyticsID, blinkCreator string, analytics models.Analytics, recentTimestamps models.Timestamps) dto.AnalyticsSnapshotDTO {
	snapshot := dto.AnalyticsSnapshotDTO{
		AnalyticsID:          analyticsID,
		BlinkCreator:         blinkCreator,
		TotalVisits:          analytics.TotalVisits,
		TotalMails:           analytics.TotalMails,
		Earnings:             analytics.Earnings,
		RecentMailTimestamps: make([]string, 0, len(recentTimestamps)),
		VisitorLocations:     map[string]int64(analytics.VisitorLocations),
	}
	if !analytics.LastVisited.IsZero() {
		lastVisited := analytics.LastVisited.UTC().Format(time.RFC3339)
		snapshot.LastVisited = &lastVisited
	}
	for _, ts := range recentTimestamps {
		snapshot.RecentMailTimestamps = append(snapshot.RecentMailTimestamps, ts.UTC().Format(time.RFC3339))
	}
	return snapshot
}
