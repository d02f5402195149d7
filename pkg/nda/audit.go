package nda

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditStore provides append-only operations for the NDA audit trail.
// Appends happen inside the same transaction as the state transition
// they document; this store never updates or deletes individual entries.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// AutoMigrate creates or updates the nda_audit_trail table.
func (s *AuditStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&AuditTrailEntry{}); err != nil {
		return fmt.Errorf("auto-migrate nda_audit_trail: %w", err)
	}
	return nil
}

// appendTx writes an audit entry inside the given transaction.
func appendTx(tx *gorm.DB, entry *AuditTrailEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByNDA returns paginated audit entries for an NDA, oldest first.
// pageToken is an RFC3339Nano timestamp; entries created after it are
// returned.
func (s *AuditStore) ListByNDA(kind Kind, ndaID string, pageSize int, pageToken string) ([]AuditTrailEntry, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Where("nda_kind = ? AND nda_id = ?", kind, ndaID).
		Order("created_at ASC").
		Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at > ?", t)
	}

	var entries []AuditTrailEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, "", fmt.Errorf("list audit entries: %w", err)
	}

	var nextToken string
	if len(entries) > pageSize {
		nextToken = entries[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		entries = entries[:pageSize]
	}

	return entries, nextToken, nil
}

// CountByNDA returns the number of audit entries for an NDA.
func (s *AuditStore) CountByNDA(kind Kind, ndaID string) (int64, error) {
	var count int64
	err := s.db.Model(&AuditTrailEntry{}).
		Where("nda_kind = ? AND nda_id = ?", kind, ndaID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}
