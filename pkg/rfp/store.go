package rfp

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced RFP or document does not exist.
var ErrNotFound = errors.New("rfp: not found")

// Store provides database operations for RFPs and their documents.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the rfps and rfp_documents tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&RFPRecord{}); err != nil {
		return fmt.Errorf("auto-migrate rfps: %w", err)
	}
	if err := s.db.AutoMigrate(&DocumentRecord{}); err != nil {
		return fmt.Errorf("auto-migrate rfp_documents: %w", err)
	}
	return nil
}

// Create inserts a new RFP.
func (s *Store) Create(rec *RFPRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create rfp: %w", err)
	}
	return nil
}

// GetRFP retrieves an RFP by ID. Returns (nil, nil) when it does not exist.
func (s *Store) GetRFP(id string) (*RFPRecord, error) {
	var rec RFPRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rfp: %w", err)
	}
	return &rec, nil
}

// RFPExists reports whether an RFP with the given ID exists.
func (s *Store) RFPExists(id string) (bool, error) {
	rec, err := s.GetRFP(id)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Update persists changes to an existing RFP.
func (s *Store) Update(rec *RFPRecord) error {
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("update rfp: %w", err)
	}
	return nil
}

// List returns RFPs ordered by creation time, newest first. The caller is
// responsible for filtering the result through the access decision engine.
func (s *Store) List(limit int) ([]RFPRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	var records []RFPRecord
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list rfps: %w", err)
	}
	return records, nil
}

// CreateDocument inserts a new document under an RFP.
func (s *Store) CreateDocument(rec *DocumentRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID. Returns (nil, nil) when it
// does not exist.
func (s *Store) GetDocument(id string) (*DocumentRecord, error) {
	var rec DocumentRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &rec, nil
}

// ListDocuments returns all documents of an RFP ordered by creation time.
func (s *Store) ListDocuments(rfpID string) ([]DocumentRecord, error) {
	var records []DocumentRecord
	if err := s.db.Where("rfp_id = ?", rfpID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return records, nil
}

// DeleteByRFPTx removes an RFP and its documents inside the given
// transaction. Callers compose this with the other packages' cascade
// deletes so the full ownership chain of the RFP is removed atomically.
func DeleteByRFPTx(tx *gorm.DB, rfpID string) error {
	if err := tx.Where("rfp_id = ?", rfpID).Delete(&DocumentRecord{}).Error; err != nil {
		return fmt.Errorf("delete rfp documents: %w", err)
	}
	result := tx.Where("id = ?", rfpID).Delete(&RFPRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete rfp: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
