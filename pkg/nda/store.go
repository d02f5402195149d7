package nda

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides database operations for individually signed NDAs.
//
// Countersign and Reject are compare-and-set on the current status: the
// update carries a WHERE status = 'signed' guard and the loser of a
// concurrent race receives a StateConflictError instead of silently
// overwriting the winner's result.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the individual_ndas table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&IndividualNDARecord{}); err != nil {
		return fmt.Errorf("auto-migrate individual_ndas: %w", err)
	}
	return nil
}

// errInsertNDA tags a failed NDA insert so Sign can tell a lost
// unique-index race apart from other failures.
var errInsertNDA = errors.New("insert nda record")

// Sign creates or refreshes the NDA for (rfpID, userID) in signed state.
// The operation is an idempotent upsert on the natural key: a duplicate
// submission re-records the signature metadata on the existing row
// instead of creating a second record. A record already in a terminal
// state yields StateConflictError. The initial signature is deliberately
// not audited; only countersignature and rejection are.
func (s *Store) Sign(rfpID, userID string, sig Signature) (*IndividualNDARecord, error) {
	rec, err := s.signOnce(rfpID, userID, sig)
	if errors.Is(err, errInsertNDA) {
		// A lost create race on the unique index: the winner's row is
		// visible to a fresh transaction, so a single retry lands on the
		// re-sign path. Every write stays inside one transaction.
		return s.signOnce(rfpID, userID, sig)
	}
	return rec, err
}

func (s *Store) signOnce(rfpID, userID string, sig Signature) (*IndividualNDARecord, error) {
	var out IndividualNDARecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing IndividualNDARecord
		err := tx.Where("rfp_id = ? AND user_id = ?", rfpID, userID).First(&existing).Error
		switch {
		case err == nil:
			return signExisting(tx, &existing, sig, &out)

		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			rec := IndividualNDARecord{
				ID:            uuid.New().String(),
				RFPID:         rfpID,
				UserID:        userID,
				Status:        StatusSigned,
				SignerName:    sig.FullName,
				SignerTitle:   sig.Title,
				SignerCompany: sig.Company,
				SignatureData: sig.SignatureData,
				SignedAt:      &now,
			}
			if createErr := tx.Create(&rec).Error; createErr != nil {
				return fmt.Errorf("%w: %v", errInsertNDA, createErr)
			}
			out = rec
			return nil

		default:
			return fmt.Errorf("lookup nda: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// signExisting re-records signature metadata on a non-terminal record.
func signExisting(tx *gorm.DB, existing *IndividualNDARecord, sig Signature, out *IndividualNDARecord) error {
	if existing.Status.Terminal() {
		return &StateConflictError{ID: existing.ID, Current: existing.Status}
	}
	now := time.Now()
	err := tx.Model(&IndividualNDARecord{}).Where("id = ?", existing.ID).
		Updates(map[string]any{
			"status":         StatusSigned,
			"signer_name":    sig.FullName,
			"signer_title":   sig.Title,
			"signer_company": sig.Company,
			"signature_data": sig.SignatureData,
			"signed_at":      now,
		}).Error
	if err != nil {
		return fmt.Errorf("re-sign nda: %w", err)
	}
	if err := tx.First(out, "id = ?", existing.ID).Error; err != nil {
		return fmt.Errorf("reload nda: %w", err)
	}
	return nil
}

// Countersign transitions a signed NDA to approved and appends the audit
// entry in the same transaction. Returns StateConflictError when the
// record is no longer in signed state and ErrNotFound when it does not
// exist.
func (s *Store) Countersign(id, actorID string, cs Countersignature) (*IndividualNDARecord, error) {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&IndividualNDARecord{}).
			Where("id = ? AND status = ?", id, StatusSigned).
			Updates(map[string]any{
				"status":              StatusApproved,
				"countersigner_id":    actorID,
				"countersigner_name":  cs.Name,
				"countersigner_title": cs.Title,
				"countersign_data":    cs.SignatureData,
				"countersigned_at":    now,
			})
		if result.Error != nil {
			return fmt.Errorf("countersign nda: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictOrNotFound(tx, id)
		}

		return appendTx(tx, &AuditTrailEntry{
			NDAID:   id,
			NDAKind: KindIndividual,
			Action:  ActionCountersigned,
			Actor:   actorID,
			Metadata: JSONAny{
				"countersignerName":  cs.Name,
				"countersignerTitle": cs.Title,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Reject transitions a signed NDA to rejected, recording the reason, and
// appends the audit entry in the same transaction.
func (s *Store) Reject(id, actorID, reason string) (*IndividualNDARecord, error) {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&IndividualNDARecord{}).
			Where("id = ? AND status = ?", id, StatusSigned).
			Updates(map[string]any{
				"status":           StatusRejected,
				"rejected_by":      actorID,
				"rejection_reason": reason,
				"rejected_at":      now,
			})
		if result.Error != nil {
			return fmt.Errorf("reject nda: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictOrNotFound(tx, id)
		}

		return appendTx(tx, &AuditTrailEntry{
			NDAID:    id,
			NDAKind:  KindIndividual,
			Action:   ActionRejected,
			Actor:    actorID,
			Metadata: JSONAny{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// conflictOrNotFound distinguishes a missing record from a lost
// compare-and-set race.
func conflictOrNotFound(tx *gorm.DB, id string) error {
	var rec IndividualNDARecord
	err := tx.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load nda after conflict: %w", err)
	}
	return &StateConflictError{ID: id, Current: rec.Status}
}

// Get retrieves an NDA by ID. Returns (nil, nil) when it does not exist.
func (s *Store) Get(id string) (*IndividualNDARecord, error) {
	var rec IndividualNDARecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nda: %w", err)
	}
	return &rec, nil
}

// GetByRFPAndUser retrieves the NDA for (rfpID, userID). Returns
// (nil, nil) when none exists; the decision engine treats absence as the
// qualifying predicate being false, never as an error.
func (s *Store) GetByRFPAndUser(rfpID, userID string) (*IndividualNDARecord, error) {
	var rec IndividualNDARecord
	if err := s.db.Where("rfp_id = ? AND user_id = ?", rfpID, userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nda by rfp and user: %w", err)
	}
	return &rec, nil
}

// ListByRFP returns all individual NDAs for an RFP, oldest first.
func (s *Store) ListByRFP(rfpID string) ([]IndividualNDARecord, error) {
	var records []IndividualNDARecord
	err := s.db.Where("rfp_id = ?", rfpID).Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list ndas by rfp: %w", err)
	}
	return records, nil
}
