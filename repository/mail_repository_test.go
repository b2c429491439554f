package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingutil "github.com/xmailer/xmailer/testing"
)

func TestMailRepository(t *testing.T) {
	if !testingutil.ShouldRunDBTests() {
		t.Skip("set RUN_DB_TESTS=1 to run postgres-backed tests")
	}

	err := testingutil.TestWithDB(func(db *testingutil.TestDB) error {
		repo := NewMailRepository(db.DB)
		fixtures := testingutil.NewTestFixtures(db)
		ctx := context.Background()

		t.Run("CountByBlink", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)
			other, err := fixtures.CreateTestBlink(1)
			require.NoError(t, err)

			now := time.Now().UTC()
			for i := 0; i < 3; i++ {
				_, err := fixtures.CreateTestMail(blink, now.Add(-time.Duration(i)*time.Minute))
				require.NoError(t, err)
			}
			_, err = fixtures.CreateTestMail(other, now)
			require.NoError(t, err)

			count, err := repo.CountByBlink(ctx, blink.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			count, err = repo.CountByBlink(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("RecentByBlinkNewestFirst", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)

			now := time.Now().UTC().Truncate(time.Second)
			for i := 0; i < 8; i++ {
				_, err := fixtures.CreateTestMail(blink, now.Add(-time.Duration(i)*time.Hour))
				require.NoError(t, err)
			}

			recent, err := repo.RecentByBlink(ctx, blink.ID, 5)
			require.NoError(t, err)
			require.Len(t, recent, 5)

			for i := 0; i < len(recent)-1; i++ {
				assert.True(t, recent[i].CreatedAt.After(recent[i+1].CreatedAt))
			}
			assert.WithinDuration(t, now, recent[0].CreatedAt, time.Second)
		})

		t.Run("EmptyBlink", func(t *testing.T) {
			require.NoError(t, db.ClearAllTables())

			blink, err := fixtures.CreateTestBlink(0.5)
			require.NoError(t, err)

			count, err := repo.CountByBlink(ctx, blink.ID)
			require.NoError(t, err)
			assert.Zero(t, count)

			recent, err := repo.RecentByBlink(ctx, blink.ID, 5)
			require.NoError(t, err)
			assert.Empty(t, recent)
		})

		return nil
	})
	require.NoError(t, err)
}
