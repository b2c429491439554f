package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/xmailer/xmailer/models"
	"github.com/xmailer/xmailer/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestBlink creates a blink with a fresh slug and analytics ID
func (tf *TestFixtures) CreateTestBlink(askingFee float64) (*models.Blink, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	blink := &models.Blink{
		UniqueBlinkID: uuid.NewString(),
		AnalyticsID:   utils.ToPtr(uuid.NewString()),
		Codename:      fmt.Sprintf("creator-%s", randomDigits),
		Email:         fmt.Sprintf("creator.%s@example.com", randomDigits),
		SolanaKey:     "11111111111111111111111111111111",
		AskingFee:     askingFee,
		Description:   utils.ToPtr("Send me a paid mail"),
	}

	if err := tf.DB.DB.Create(blink).Error; err != nil {
		return nil, fmt.Errorf("failed to create test blink: %w", err)
	}

	return blink, nil
}

// CreateLegacyTestBlink creates a blink without an analytics ID, matching
// rows published before analytics existed
func (tf *TestFixtures) CreateLegacyTestBlink() (*models.Blink, error) {
	blink, err := tf.CreateTestBlink(0)
	if err != nil {
		return nil, err
	}
	if err := tf.DB.DB.Model(blink).Update("analytics_id", nil).Error; err != nil {
		return nil, fmt.Errorf("failed to clear analytics id: %w", err)
	}
	blink.AnalyticsID = nil
	return blink, nil
}

// CreateTestMail creates a mail row for the given blink
func (tf *TestFixtures) CreateTestMail(blink *models.Blink, createdAt time.Time) (*models.Mail, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	mail := &models.Mail{
		BlinkID:      blink.ID,
		SenderEmail:  fmt.Sprintf("sender.%s@example.com", randomDigits),
		SenderName:   fmt.Sprintf("sender-%s", randomDigits),
		MessageBody:  fmt.Sprintf("Dear %s,\n\nhello there\n\nBest regards,\nsender-%s", blink.Codename, randomDigits),
		CreatorEmail: blink.Email,
		CreatedAt:    createdAt,
	}

	if err := tf.DB.DB.Create(mail).Error; err != nil {
		return nil, fmt.Errorf("failed to create test mail: %w", err)
	}

	return mail, nil
}

// CreateTestAnalytics creates an aggregate row for the given blink
func (tf *TestFixtures) CreateTestAnalytics(blink *models.Blink, visits, mails int64, earnings float64) (*models.Analytics, error) {
	row := &models.Analytics{
		BlinkID:          blink.ID,
		TotalVisits:      visits,
		TotalMails:       mails,
		Earnings:         earnings,
		LastVisited:      time.Now().UTC(),
		VisitorLocations: models.LocationCounts{},
		MailTimestamps:   models.Timestamps{},
	}

	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test analytics: %w", err)
	}

	return row, nil
}
