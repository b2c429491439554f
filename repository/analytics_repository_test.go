package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmailer/xmailer/models"
	testingutil "github.com/xmailer/xmailer/testing"
)

func TestAnalyticsRepository(t *testing.T) {
	if !testingutil.ShouldRunDBTests() {
		t.Skip("set RUN_DB_TESTS=1 to run postgres-backed tests")
	}

	err := testingutil.TestWithDB(func(db *testingutil.TestDB) error {
		repo := NewAnalyticsRepository(db.DB)
		fixtures := testingutil.NewTestFixtures(db)
		ctx := context.Background()

		t.Run("RecordMailEventCreatesRow", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)

			now := time.Now().UTC().Truncate(time.Second)
			require.NoError(t, repo.RecordMailEvent(ctx, blink.ID, 0.5, now))

			row, err := repo.ByBlinkID(ctx, blink.ID)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(1), row.TotalMails)
			assert.InDelta(t, 0.5, row.Earnings, 1e-9)
			require.Len(t, row.MailTimestamps, 1)
			assert.WithinDuration(t, now, row.MailTimestamps[0], time.Second)
		})

		t.Run("RecordMailEventConcurrent", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)

			const writers = 16
			var wg sync.WaitGroup
			errs := make(chan error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repo.RecordMailEvent(ctx, blink.ID, 0.5, time.Now().UTC())
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			row, err := repo.ByBlinkID(ctx, blink.ID)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(writers), row.TotalMails)
			assert.InDelta(t, 0.5*writers, row.Earnings, 1e-6)
			assert.Len(t, row.MailTimestamps, writers)
		})

		t.Run("IncrementVisit", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)

			affected, err := repo.IncrementVisit(ctx, blink.ID, time.Now().UTC())
			require.NoError(t, err)
			assert.Zero(t, affected)

			_, err = fixtures.CreateTestAnalytics(blink, 5, 0, 0)
			require.NoError(t, err)

			visitedAt := time.Now().UTC().Truncate(time.Second)
			affected, err = repo.IncrementVisit(ctx, blink.ID, visitedAt)
			require.NoError(t, err)
			assert.Equal(t, int64(1), affected)

			row, err := repo.ByBlinkID(ctx, blink.ID)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(6), row.TotalVisits)
			assert.WithinDuration(t, visitedAt, row.LastVisited, time.Second)
		})

		t.Run("BumpVisitorLocation", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAnalytics(blink, 0, 0, 0)
			require.NoError(t, err)

			require.NoError(t, repo.BumpVisitorLocation(ctx, blink.ID, "US"))
			require.NoError(t, repo.BumpVisitorLocation(ctx, blink.ID, "US"))
			require.NoError(t, repo.BumpVisitorLocation(ctx, blink.ID, "DE"))
			// Empty country is ignored
			require.NoError(t, repo.BumpVisitorLocation(ctx, blink.ID, ""))

			row, err := repo.ByBlinkID(ctx, blink.ID)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(2), row.VisitorLocations["US"])
			assert.Equal(t, int64(1), row.VisitorLocations["DE"])
		})

		t.Run("RefreshMailCache", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAnalytics(blink, 7, 99, 123)
			require.NoError(t, err)

			ts := models.Timestamps{time.Now().UTC().Truncate(time.Second)}
			require.NoError(t, repo.RefreshMailCache(ctx, blink.ID, 3, 1.5, ts))

			row, err := repo.ByBlinkID(ctx, blink.ID)
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, int64(3), row.TotalMails)
			assert.InDelta(t, 1.5, row.Earnings, 1e-9)
			require.Len(t, row.MailTimestamps, 1)
			// Visit counters are not part of the mail cache
			assert.Equal(t, int64(7), row.TotalVisits)
		})

		t.Run("OneRowPerBlink", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAnalytics(blink, 0, 0, 0)
			require.NoError(t, err)

			dup := &models.Analytics{BlinkID: blink.ID}
			err = repo.Save(ctx, dup)
			require.Error(t, err)
			assert.True(t, IsDuplicateKey(err))
		})

		return nil
	})
	require.NoError(t, err)
}
