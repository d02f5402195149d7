package access

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

// Store failures must propagate as errors, never degrade into a deny the
// caller could mistake for an authorization outcome.
func TestEngineStoreFailurePropagates(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "rfp_documents"`).
		WillReturnError(errors.New("connection refused"))

	engine := NewEngine(rfp.NewStore(db), nda.NewStore(db), nda.NewCompanyStore(db), accessreq.NewStore(db))

	_, err = engine.CanAccessDocument(bidderActor, "doc-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection refused")

	require.NoError(t, mock.ExpectationsWereMet())
}
