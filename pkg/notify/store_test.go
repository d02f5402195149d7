package notify

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func TestEnqueueCreatesQueuedRecord(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Enqueue(Notification{
		UserID:      "user-1",
		Title:       "NDA approved",
		Type:        TypeNDAApproved,
		ReferenceID: "nda-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, StateQueued, rec.State)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, "nda-1", rec.ReferenceID)
}

func TestClaimReturnsOldestQueued(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Enqueue(Notification{UserID: "user-1", Title: "first", Type: TypeNDAApproved})
	require.NoError(t, err)
	// sqlite stores timestamps at millisecond resolution; separate the rows.
	time.Sleep(5 * time.Millisecond)
	_, err = store.Enqueue(Notification{UserID: "user-1", Title: "second", Type: TypeNDARejected})
	require.NoError(t, err)

	claimed, err := store.Claim()
	require.NoError(t, err)
	require.NotNil(t, claimed)

	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, StateSending, claimed.State)
	assert.Equal(t, 1, claimed.Attempts)
}

func TestClaimEmptyQueue(t *testing.T) {
	store := newTestStore(t)

	claimed, err := store.Claim()
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestClaimedRecordNotClaimedAgain(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Enqueue(Notification{UserID: "user-1", Title: "only", Type: TypeNDAApproved})
	require.NoError(t, err)

	claimed, err := store.Claim()
	require.NoError(t, err)
	require.NotNil(t, claimed)

	again, err := store.Claim()
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestMarkSent(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Enqueue(Notification{UserID: "user-1", Title: "hello", Type: TypeNDAApproved})
	require.NoError(t, err)
	_, err = store.Claim()
	require.NoError(t, err)

	require.NoError(t, store.MarkSent(rec.ID))

	var got NotificationRecord
	require.NoError(t, store.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, StateSent, got.State)
	assert.NotNil(t, got.SentAt)
}

func TestMarkFailedRequeuesUntilMaxAttempts(t *testing.T) {
	store := newTestStore(t)

	rec, err := store.Enqueue(Notification{UserID: "user-1", Title: "flaky", Type: TypeNDAApproved})
	require.NoError(t, err)

	// First two attempts go back to the queue.
	for i := 0; i < 2; i++ {
		claimed, err := store.Claim()
		require.NoError(t, err)
		require.NotNil(t, claimed)
		require.NoError(t, store.MarkFailed(rec.ID, "smtp timeout", 3))

		var got NotificationRecord
		require.NoError(t, store.db.First(&got, "id = ?", rec.ID).Error)
		assert.Equal(t, StateQueued, got.State)
		assert.Equal(t, "smtp timeout", got.LastError)
	}

	// Third failure exhausts the retry allowance.
	claimed, err := store.Claim()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, store.MarkFailed(rec.ID, "smtp timeout", 3))

	var got NotificationRecord
	require.NoError(t, store.db.First(&got, "id = ?", rec.ID).Error)
	assert.Equal(t, StateFailed, got.State)
	assert.Equal(t, 3, got.Attempts)

	again, err := store.Claim()
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestListByUserNewestFirst(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Enqueue(Notification{UserID: "user-1", Title: "older", Type: TypeNDAApproved})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = store.Enqueue(Notification{UserID: "user-1", Title: "newer", Type: TypeNDARejected})
	require.NoError(t, err)
	_, err = store.Enqueue(Notification{UserID: "user-2", Title: "other user", Type: TypeNDAApproved})
	require.NoError(t, err)

	records, err := store.ListByUser("user-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].Title)
	assert.Equal(t, "older", records[1].Title)
}
