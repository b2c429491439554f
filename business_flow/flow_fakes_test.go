package businessflow

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/xmailer/xmailer/models"
	"gorm.io/gorm"
)

// In-memory repository and service fakes for flow tests.

type fakeBlinkRepo struct {
	blinks  []*models.Blink
	nextID  uint
	saveErr error
}

func newFakeBlinkRepo(blinks ...*models.Blink) *fakeBlinkRepo {
	repo := &fakeBlinkRepo{nextID: 1}
	for _, b := range blinks {
		b.ID = repo.nextID
		repo.nextID++
		repo.blinks = append(repo.blinks, b)
	}
	return repo
}

func (r *fakeBlinkRepo) ByID(ctx context.Context, id uint) (*models.Blink, error) {
	for _, b := range r.blinks {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBlinkRepo) ByFilter(ctx context.Context, filter models.BlinkFilter, orderBy string, limit, offset int) ([]*models.Blink, error) {
	return r.blinks, nil
}

func (r *fakeBlinkRepo) Save(ctx context.Context, entity *models.Blink) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, b := range r.blinks {
		if b.UniqueBlinkID == entity.UniqueBlinkID {
			return gorm.ErrDuplicatedKey
		}
	}
	entity.ID = r.nextID
	entity.CreatedAt = time.Now().UTC()
	r.nextID++
	r.blinks = append(r.blinks, entity)
	return nil
}

func (r *fakeBlinkRepo) SaveBatch(ctx context.Context, entities []*models.Blink) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeBlinkRepo) Count(ctx context.Context, filter models.BlinkFilter) (int64, error) {
	return int64(len(r.blinks)), nil
}

func (r *fakeBlinkRepo) Exists(ctx context.Context, filter models.BlinkFilter) (bool, error) {
	return len(r.blinks) > 0, nil
}

func (r *fakeBlinkRepo) ByUniqueBlinkID(ctx context.Context, uniqueBlinkID string) (*models.Blink, error) {
	for _, b := range r.blinks {
		if b.UniqueBlinkID == uniqueBlinkID {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBlinkRepo) ByAnalyticsID(ctx context.Context, analyticsID string) (*models.Blink, error) {
	for _, b := range r.blinks {
		if b.AnalyticsID != nil && *b.AnalyticsID == analyticsID {
			return b, nil
		}
	}
	return nil, nil
}

type fakeMailRepo struct {
	mails   []*models.Mail
	nextID  uint
	saveErr error
}

func (r *fakeMailRepo) ByID(ctx context.Context, id uint) (*models.Mail, error) {
	for _, m := range r.mails {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *fakeMailRepo) ByFilter(ctx context.Context, filter models.MailFilter, orderBy string, limit, offset int) ([]*models.Mail, error) {
	return r.mails, nil
}

func (r *fakeMailRepo) Save(ctx context.Context, entity *models.Mail) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	entity.ID = r.nextID
	r.mails = append(r.mails, entity)
	return nil
}

func (r *fakeMailRepo) SaveBatch(ctx context.Context, entities []*models.Mail) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeMailRepo) Count(ctx context.Context, filter models.MailFilter) (int64, error) {
	return int64(len(r.mails)), nil
}

func (r *fakeMailRepo) Exists(ctx context.Context, filter models.MailFilter) (bool, error) {
	return len(r.mails) > 0, nil
}

func (r *fakeMailRepo) CountByBlink(ctx context.Context, blinkID uint) (int64, error) {
	var count int64
	for _, m := range r.mails {
		if m.BlinkID == blinkID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMailRepo) RecentByBlink(ctx context.Context, blinkID uint, limit int) ([]*models.Mail, error) {
	var matched []*models.Mail
	for _, m := range r.mails {
		if m.BlinkID == blinkID {
			matched = append(matched, m)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

type fakeAnalyticsRepo struct {
	rows       map[uint]*models.Analytics
	nextID     uint
	upsertErr  error
	refreshErr error

	// loseCreateRace makes the next Save behave as if a concurrent
	// visit inserted the row an instant earlier.
	loseCreateRace bool
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{rows: map[uint]*models.Analytics{}}
}

func (r *fakeAnalyticsRepo) ByID(ctx context.Context, id uint) (*models.Analytics, error) {
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, nil
}

func (r *fakeAnalyticsRepo) ByFilter(ctx context.Context, filter models.AnalyticsFilter, orderBy string, limit, offset int) ([]*models.Analytics, error) {
	var rows []*models.Analytics
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *fakeAnalyticsRepo) Save(ctx context.Context, entity *models.Analytics) error {
	if r.loseCreateRace {
		r.loseCreateRace = false
		r.nextID++
		r.rows[entity.BlinkID] = &models.Analytics{
			ID:               r.nextID,
			BlinkID:          entity.BlinkID,
			TotalVisits:      1,
			LastVisited:      entity.LastVisited,
			VisitorLocations: models.LocationCounts{},
			MailTimestamps:   models.Timestamps{},
		}
		return gorm.ErrDuplicatedKey
	}
	if _, ok := r.rows[entity.BlinkID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	entity.ID = r.nextID
	r.rows[entity.BlinkID] = entity
	return nil
}

func (r *fakeAnalyticsRepo) SaveBatch(ctx context.Context, entities []*models.Analytics) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAnalyticsRepo) Count(ctx context.Context, filter models.AnalyticsFilter) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *fakeAnalyticsRepo) Exists(ctx context.Context, filter models.AnalyticsFilter) (bool, error) {
	return len(r.rows) > 0, nil
}

func (r *fakeAnalyticsRepo) ByBlinkID(ctx context.Context, blinkID uint) (*models.Analytics, error) {
	row, ok := r.rows[blinkID]
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (r *fakeAnalyticsRepo) RecordMailEvent(ctx context.Context, blinkID uint, fee float64, ts time.Time) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	row, ok := r.rows[blinkID]
	if !ok {
		r.nextID++
		r.rows[blinkID] = &models.Analytics{
			ID:               r.nextID,
			BlinkID:          blinkID,
			TotalMails:       1,
			Earnings:         fee,
			LastVisited:      ts,
			VisitorLocations: models.LocationCounts{},
			MailTimestamps:   models.Timestamps{ts},
		}
		return nil
	}
	row.TotalMails++
	row.Earnings += fee
	row.MailTimestamps = append(row.MailTimestamps, ts)
	return nil
}

func (r *fakeAnalyticsRepo) IncrementVisit(ctx context.Context, blinkID uint, now time.Time) (int64, error) {
	row, ok := r.rows[blinkID]
	if !ok {
		return 0, nil
	}
	row.TotalVisits++
	row.LastVisited = now
	return 1, nil
}

func (r *fakeAnalyticsRepo) BumpVisitorLocation(ctx context.Context, blinkID uint, country string) error {
	row, ok := r.rows[blinkID]
	if !ok {
		return nil
	}
	if row.VisitorLocations == nil {
		row.VisitorLocations = models.LocationCounts{}
	}
	row.VisitorLocations[country]++
	return nil
}

func (r *fakeAnalyticsRepo) RefreshMailCache(ctx context.Context, blinkID uint, totalMails int64, earnings float64, timestamps models.Timestamps) error {
	if r.refreshErr != nil {
		return r.refreshErr
	}
	row, ok := r.rows[blinkID]
	if !ok {
		return nil
	}
	row.TotalMails = totalMails
	row.Earnings = earnings
	row.MailTimestamps = timestamps
	return nil
}

type fakeLedger struct {
	err      error
	calls    int
	lastFrom string
	lastTo   string
	lastAmt  uint64
}

func (l *fakeLedger) BuildTransferTransaction(ctx context.Context, from, to string, lamports uint64) (string, error) {
	l.calls++
	l.lastFrom = from
	l.lastTo = to
	l.lastAmt = lamports
	if l.err != nil {
		return "", l.err
	}
	raw := fmt.Sprintf("transfer %s -> %s (%d)", from, to, lamports)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	sent    []sentEmail
	failFor map[string]error
}

func (n *fakeNotifier) SendEmail(email, subject, htmlBody string) error {
	if err, ok := n.failFor[email]; ok {
		return err
	}
	n.sent = append(n.sent, sentEmail{To: email, Subject: subject, Body: htmlBody})
	return nil
}
