package rfp

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
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

func seedRFP(t *testing.T, store *Store, mutate func(*RFPRecord)) *RFPRecord {
	t.Helper()
	rec := &RFPRecord{
		ID:         uuid.New().String(),
		Title:      "Data center build-out",
		Visibility: VisibilityPublic,
		Status:     StatusDraft,
		ClientID:   "client-1",
	}
	if mutate != nil {
		mutate(rec)
	}
	require.NoError(t, store.Create(rec))
	return rec
}

func TestCreateAndGetRFP(t *testing.T) {
	store := newTestStore(t)
	rec := seedRFP(t, store, nil)

	got, err := store.GetRFP(rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, StatusDraft, got.Status)
}

func TestGetRFPMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetRFP("no-such-rfp")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRFPExists(t *testing.T) {
	store := newTestStore(t)
	rec := seedRFP(t, store, nil)

	ok, err := store.RFPExists(rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.RFPExists("no-such-rfp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateRFP(t *testing.T) {
	store := newTestStore(t)
	rec := seedRFP(t, store, nil)

	rec.Status = StatusActive
	rec.Visibility = VisibilityConfidential
	require.NoError(t, store.Update(rec))

	got, err := store.GetRFP(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, VisibilityConfidential, got.Visibility)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	older := seedRFP(t, store, func(r *RFPRecord) { r.Title = "older" })
	time.Sleep(5 * time.Millisecond)
	newer := seedRFP(t, store, func(r *RFPRecord) { r.Title = "newer" })

	records, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
}

func TestDocumentLifecycle(t *testing.T) {
	store := newTestStore(t)
	rec := seedRFP(t, store, nil)

	doc := &DocumentRecord{
		ID:          uuid.New().String(),
		RFPID:       rec.ID,
		Name:        "requirements.pdf",
		ContentType: "application/pdf",
		StorageKey:  "rfps/" + rec.ID + "/" + uuid.New().String(),
		RequiresNDA: true,
	}
	require.NoError(t, store.CreateDocument(doc))

	got, err := store.GetDocument(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.RequiresNDA)
	assert.Equal(t, doc.StorageKey, got.StorageKey)

	missing, err := store.GetDocument("no-such-doc")
	require.NoError(t, err)
	assert.Nil(t, missing)

	docs, err := store.ListDocuments(rec.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDeleteByRFPTxRemovesRFPAndDocuments(t *testing.T) {
	store := newTestStore(t)
	rec := seedRFP(t, store, nil)
	other := seedRFP(t, store, func(r *RFPRecord) { r.Title = "survivor" })

	for i := 0; i < 2; i++ {
		require.NoError(t, store.CreateDocument(&DocumentRecord{
			ID:         uuid.New().String(),
			RFPID:      rec.ID,
			Name:       "doc.pdf",
			StorageKey: "rfps/" + rec.ID + "/" + uuid.New().String(),
		}))
	}

	err := store.db.Transaction(func(tx *gorm.DB) error {
		return DeleteByRFPTx(tx, rec.ID)
	})
	require.NoError(t, err)

	got, err := store.GetRFP(rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	docs, err := store.ListDocuments(rec.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	survivor, err := store.GetRFP(other.ID)
	require.NoError(t, err)
	assert.NotNil(t, survivor)
}

func TestDeleteByRFPTxMissingRFP(t *testing.T) {
	store := newTestStore(t)

	err := store.db.Transaction(func(tx *gorm.DB) error {
		return DeleteByRFPTx(tx, "no-such-rfp")
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
