package nda

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyStore provides database operations for company-wide NDAs. The
// lifecycle matches the individual store; the natural key is
// (rfp_id, company_id) and the signature binds every current and future
// member of the company.
type CompanyStore struct {
	db *gorm.DB
}

// NewCompanyStore creates a new CompanyStore.
func NewCompanyStore(db *gorm.DB) *CompanyStore {
	return &CompanyStore{db: db}
}

// AutoMigrate creates or updates the company_ndas table.
func (s *CompanyStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&CompanyNDARecord{}); err != nil {
		return fmt.Errorf("auto-migrate company_ndas: %w", err)
	}
	return nil
}

// Sign creates or refreshes the company NDA for (rfpID, companyID) in
// signed state. Idempotent on the natural key; a terminal record yields
// StateConflictError. A lost create race retries once in a fresh
// transaction, matching Store.Sign.
func (s *CompanyStore) Sign(rfpID, companyID, signedBy string, sig Signature) (*CompanyNDARecord, error) {
	rec, err := s.signOnce(rfpID, companyID, signedBy, sig)
	if errors.Is(err, errInsertNDA) {
		return s.signOnce(rfpID, companyID, signedBy, sig)
	}
	return rec, err
}

func (s *CompanyStore) signOnce(rfpID, companyID, signedBy string, sig Signature) (*CompanyNDARecord, error) {
	var out CompanyNDARecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing CompanyNDARecord
		err := tx.Where("rfp_id = ? AND company_id = ?", rfpID, companyID).First(&existing).Error
		switch {
		case err == nil:
			return companySignExisting(tx, &existing, signedBy, sig, &out)

		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			rec := CompanyNDARecord{
				ID:             uuid.New().String(),
				RFPID:          rfpID,
				CompanyID:      companyID,
				Status:         StatusSigned,
				SignedByUserID: signedBy,
				SignerName:     sig.FullName,
				SignerTitle:    sig.Title,
				SignerCompany:  sig.Company,
				SignatureData:  sig.SignatureData,
				SignedAt:       &now,
			}
			if createErr := tx.Create(&rec).Error; createErr != nil {
				return fmt.Errorf("%w: %v", errInsertNDA, createErr)
			}
			out = rec
			return nil

		default:
			return fmt.Errorf("lookup company nda: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func companySignExisting(tx *gorm.DB, existing *CompanyNDARecord, signedBy string, sig Signature, out *CompanyNDARecord) error {
	if existing.Status.Terminal() {
		return &StateConflictError{ID: existing.ID, Current: existing.Status}
	}
	now := time.Now()
	err := tx.Model(&CompanyNDARecord{}).Where("id = ?", existing.ID).
		Updates(map[string]any{
			"status":            StatusSigned,
			"signed_by_user_id": signedBy,
			"signer_name":       sig.FullName,
			"signer_title":      sig.Title,
			"signer_company":    sig.Company,
			"signature_data":    sig.SignatureData,
			"signed_at":         now,
		}).Error
	if err != nil {
		return fmt.Errorf("re-sign company nda: %w", err)
	}
	if err := tx.First(out, "id = ?", existing.ID).Error; err != nil {
		return fmt.Errorf("reload company nda: %w", err)
	}
	return nil
}

// Countersign transitions a signed company NDA to approved and appends
// the audit entry in the same transaction.
func (s *CompanyStore) Countersign(id, actorID string, cs Countersignature) (*CompanyNDARecord, error) {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&CompanyNDARecord{}).
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
			return fmt.Errorf("countersign company nda: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return companyConflictOrNotFound(tx, id)
		}

		return appendTx(tx, &AuditTrailEntry{
			NDAID:   id,
			NDAKind: KindCompany,
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

// Reject transitions a signed company NDA to rejected and appends the
// audit entry in the same transaction.
func (s *CompanyStore) Reject(id, actorID, reason string) (*CompanyNDARecord, error) {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&CompanyNDARecord{}).
			Where("id = ? AND status = ?", id, StatusSigned).
			Updates(map[string]any{
				"status":           StatusRejected,
				"rejected_by":      actorID,
				"rejection_reason": reason,
				"rejected_at":      now,
			})
		if result.Error != nil {
			return fmt.Errorf("reject company nda: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return companyConflictOrNotFound(tx, id)
		}

		return appendTx(tx, &AuditTrailEntry{
			NDAID:    id,
			NDAKind:  KindCompany,
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

func companyConflictOrNotFound(tx *gorm.DB, id string) error {
	var rec CompanyNDARecord
	err := tx.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load company nda after conflict: %w", err)
	}
	return &StateConflictError{ID: id, Current: rec.Status}
}

// Get retrieves a company NDA by ID. Returns (nil, nil) when it does not
// exist.
func (s *CompanyStore) Get(id string) (*CompanyNDARecord, error) {
	var rec CompanyNDARecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company nda: %w", err)
	}
	return &rec, nil
}

// GetByRFPAndCompany retrieves the NDA for (rfpID, companyID). Returns
// (nil, nil) when none exists.
func (s *CompanyStore) GetByRFPAndCompany(rfpID, companyID string) (*CompanyNDARecord, error) {
	var rec CompanyNDARecord
	if err := s.db.Where("rfp_id = ? AND company_id = ?", rfpID, companyID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company nda by rfp and company: %w", err)
	}
	return &rec, nil
}

// ListByRFP returns all company NDAs for an RFP, oldest first.
func (s *CompanyStore) ListByRFP(rfpID string) ([]CompanyNDARecord, error) {
	var records []CompanyNDARecord
	err := s.db.Where("rfp_id = ?", rfpID).Order("created_at ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list company ndas by rfp: %w", err)
	}
	return records, nil
}

// DeleteByRFPTx removes every NDA belonging to an RFP, individual and
// company alike, together with their audit trails. Runs inside the
// caller's transaction so the cascade is atomic with the RFP delete.
func DeleteByRFPTx(tx *gorm.DB, rfpID string) error {
	var individualIDs []string
	if err := tx.Model(&IndividualNDARecord{}).Where("rfp_id = ?", rfpID).Pluck("id", &individualIDs).Error; err != nil {
		return fmt.Errorf("collect individual nda ids: %w", err)
	}
	var companyIDs []string
	if err := tx.Model(&CompanyNDARecord{}).Where("rfp_id = ?", rfpID).Pluck("id", &companyIDs).Error; err != nil {
		return fmt.Errorf("collect company nda ids: %w", err)
	}

	if len(individualIDs) > 0 {
		if err := tx.Where("nda_kind = ? AND nda_id IN ?", KindIndividual, individualIDs).Delete(&AuditTrailEntry{}).Error; err != nil {
			return fmt.Errorf("delete individual nda audit entries: %w", err)
		}
	}
	if len(companyIDs) > 0 {
		if err := tx.Where("nda_kind = ? AND nda_id IN ?", KindCompany, companyIDs).Delete(&AuditTrailEntry{}).Error; err != nil {
			return fmt.Errorf("delete company nda audit entries: %w", err)
		}
	}

	if err := tx.Where("rfp_id = ?", rfpID).Delete(&IndividualNDARecord{}).Error; err != nil {
		return fmt.Errorf("delete individual ndas: %w", err)
	}
	if err := tx.Where("rfp_id = ?", rfpID).Delete(&CompanyNDARecord{}).Error; err != nil {
		return fmt.Errorf("delete company ndas: %w", err)
	}
	return nil
}
