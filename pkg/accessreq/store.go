package accessreq

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides database operations for access requests. Decide is
// compare-and-set on the pending status so concurrent approvals and
// rejections resolve to exactly one winner.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the rfp_access_requests table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&AccessRequestRecord{}); err != nil {
		return fmt.Errorf("auto-migrate rfp_access_requests: %w", err)
	}
	return nil
}

// Create inserts a pending request for (rfpID, userID). Returns
// ErrDuplicate when any request for the pair already exists, including
// one created by a concurrent transaction.
func (s *Store) Create(rfpID, userID, message string) (*AccessRequestRecord, error) {
	rec := AccessRequestRecord{
		ID:      uuid.New().String(),
		RFPID:   rfpID,
		UserID:  userID,
		Status:  StatusPending,
		Message: message,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing AccessRequestRecord
		err := tx.Where("rfp_id = ? AND user_id = ?", rfpID, userID).First(&existing).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup access request: %w", err)
		}

		if createErr := tx.Create(&rec).Error; createErr != nil {
			// Unique-index race: a concurrent transaction created the row
			// between our check and create.
			var raced AccessRequestRecord
			if lookupErr := s.db.Where("rfp_id = ? AND user_id = ?", rfpID, userID).First(&raced).Error; lookupErr == nil {
				return ErrDuplicate
			}
			return fmt.Errorf("create access request: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Decide transitions a pending request to the given terminal status.
// Returns StateConflictError when the request is no longer pending and
// ErrNotFound when it does not exist.
func (s *Store) Decide(id string, to Status, decidedBy, note string) (*AccessRequestRecord, error) {
	now := time.Now()

	result := s.db.Model(&AccessRequestRecord{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":        to,
			"decided_by":    decidedBy,
			"decision_note": note,
			"decided_at":    now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("decide access request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var rec AccessRequestRecord
		err := s.db.First(&rec, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load access request after conflict: %w", err)
		}
		return nil, &StateConflictError{ID: id, Current: rec.Status}
	}

	return s.Get(id)
}

// Get retrieves a request by ID. Returns (nil, nil) when it does not
// exist.
func (s *Store) Get(id string) (*AccessRequestRecord, error) {
	var rec AccessRequestRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access request: %w", err)
	}
	return &rec, nil
}

// GetByRFPAndUser retrieves the request for (rfpID, userID). Returns
// (nil, nil) when none exists.
func (s *Store) GetByRFPAndUser(rfpID, userID string) (*AccessRequestRecord, error) {
	var rec AccessRequestRecord
	if err := s.db.Where("rfp_id = ? AND user_id = ?", rfpID, userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access request by rfp and user: %w", err)
	}
	return &rec, nil
}

// List returns requests, optionally filtered by RFP and status, newest
// first.
func (s *Store) List(rfpID string, status Status, limit int) ([]AccessRequestRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.db.Order("created_at DESC").Limit(limit)
	if rfpID != "" {
		query = query.Where("rfp_id = ?", rfpID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var records []AccessRequestRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return records, nil
}

// DeleteByRFPTx removes every access request belonging to an RFP inside
// the caller's transaction.
func DeleteByRFPTx(tx *gorm.DB, rfpID string) error {
	if err := tx.Where("rfp_id = ?", rfpID).Delete(&AccessRequestRecord{}).Error; err != nil {
		return fmt.Errorf("delete access requests: %w", err)
	}
	return nil
}
