// Package nda implements the non-disclosure agreement lifecycle:
// individually signed and company-wide NDAs per RFP, the
// countersignature/rejection workflow, and the append-only audit trail
// that documents it.
package nda

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status of an NDA record.
//
// Individual NDAs are created directly in signed state the moment the
// user submits a signature; StatusPending exists for API parity but is
// never written by this package.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSigned   Status = "signed"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Kind distinguishes the two NDA variants.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindCompany    Kind = "company"
)

// Record is the read surface shared by the two NDA record kinds. The
// lifecycle operations addressed by Kind return it.
type Record interface {
	RecordID() string
	RecordKind() Kind
	RecordStatus() Status
}

// Audit action tags.
const (
	ActionSigned        = "signed"
	ActionCountersigned = "countersigned"
	ActionRejected      = "rejected"
)

// JSONAny is a custom GORM type for map[string]any stored as JSON.
type JSONAny map[string]any

// Scan implements the sql.Scanner interface for JSONAny.
func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONAny.
func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// IndividualNDARecord is a GORM model for an NDA signed by a single user
// for a single RFP. The (rfp_id, user_id) pair is unique.
type IndividualNDARecord struct {
	ID     string `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RFPID  string `gorm:"column:rfp_id;uniqueIndex:idx_nda_rfp_user,priority:1;not null" json:"rfpId"`
	UserID string `gorm:"column:user_id;uniqueIndex:idx_nda_rfp_user,priority:2;not null" json:"userId"`
	Status Status `gorm:"column:status;index:idx_nda_status;default:signed;not null" json:"status"`

	SignerName    string     `gorm:"column:signer_name;not null" json:"signerName"`
	SignerTitle   string     `gorm:"column:signer_title" json:"signerTitle,omitempty"`
	SignerCompany string     `gorm:"column:signer_company" json:"signerCompany,omitempty"`
	SignatureData string     `gorm:"column:signature_data;type:text" json:"signatureData,omitempty"`
	SignedAt      *time.Time `gorm:"column:signed_at" json:"signedAt,omitempty"`

	CountersignerID    string     `gorm:"column:countersigner_id" json:"countersignerId,omitempty"`
	CountersignerName  string     `gorm:"column:countersigner_name" json:"countersignerName,omitempty"`
	CountersignerTitle string     `gorm:"column:countersigner_title" json:"countersignerTitle,omitempty"`
	CountersignData    string     `gorm:"column:countersign_data;type:text" json:"countersignData,omitempty"`
	CountersignedAt    *time.Time `gorm:"column:countersigned_at" json:"countersignedAt,omitempty"`

	RejectedBy      string     `gorm:"column:rejected_by" json:"rejectedBy,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (IndividualNDARecord) TableName() string { return "individual_ndas" }

// RecordID, RecordKind and RecordStatus implement Record.
func (r *IndividualNDARecord) RecordID() string     { return r.ID }
func (r *IndividualNDARecord) RecordKind() Kind     { return KindIndividual }
func (r *IndividualNDARecord) RecordStatus() Status { return r.Status }

// CompanyNDARecord is a GORM model for an NDA signed once by a company
// administrator on behalf of all current and future company members.
// The (rfp_id, company_id) pair is unique.
type CompanyNDARecord struct {
	ID        string `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RFPID     string `gorm:"column:rfp_id;uniqueIndex:idx_company_nda_rfp_company,priority:1;not null" json:"rfpId"`
	CompanyID string `gorm:"column:company_id;uniqueIndex:idx_company_nda_rfp_company,priority:2;not null" json:"companyId"`
	Status    Status `gorm:"column:status;index:idx_company_nda_status;default:signed;not null" json:"status"`

	SignedByUserID string     `gorm:"column:signed_by_user_id;not null" json:"signedByUserId"`
	SignerName     string     `gorm:"column:signer_name;not null" json:"signerName"`
	SignerTitle    string     `gorm:"column:signer_title" json:"signerTitle,omitempty"`
	SignerCompany  string     `gorm:"column:signer_company" json:"signerCompany,omitempty"`
	SignatureData  string     `gorm:"column:signature_data;type:text" json:"signatureData,omitempty"`
	SignedAt       *time.Time `gorm:"column:signed_at" json:"signedAt,omitempty"`

	CountersignerID    string     `gorm:"column:countersigner_id" json:"countersignerId,omitempty"`
	CountersignerName  string     `gorm:"column:countersigner_name" json:"countersignerName,omitempty"`
	CountersignerTitle string     `gorm:"column:countersigner_title" json:"countersignerTitle,omitempty"`
	CountersignData    string     `gorm:"column:countersign_data;type:text" json:"countersignData,omitempty"`
	CountersignedAt    *time.Time `gorm:"column:countersigned_at" json:"countersignedAt,omitempty"`

	RejectedBy      string     `gorm:"column:rejected_by" json:"rejectedBy,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejectedAt,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (CompanyNDARecord) TableName() string { return "company_ndas" }

// RecordID, RecordKind and RecordStatus implement Record.
func (r *CompanyNDARecord) RecordID() string     { return r.ID }
func (r *CompanyNDARecord) RecordKind() Kind     { return KindCompany }
func (r *CompanyNDARecord) RecordStatus() Status { return r.Status }

// AuditTrailEntry is an immutable record of an NDA lifecycle action.
// Entries are owned by the NDA they document and cascade-deleted with it;
// they are never updated.
type AuditTrailEntry struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	NDAID     string    `gorm:"column:nda_id;index:idx_audit_nda;not null" json:"ndaId"`
	NDAKind   Kind      `gorm:"column:nda_kind;not null" json:"ndaKind"`
	Action    string    `gorm:"column:action;not null" json:"action"`
	Actor     string    `gorm:"column:actor;not null" json:"actor"`
	Metadata  JSONAny   `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;index:idx_audit_created;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (AuditTrailEntry) TableName() string { return "nda_audit_trail" }

// Signature carries the metadata a signer submits.
type Signature struct {
	FullName      string `json:"fullName"`
	Title         string `json:"title,omitempty"`
	Company       string `json:"company,omitempty"`
	SignatureData string `json:"signatureData,omitempty"`
}

// Countersignature carries the metadata a reviewer submits when
// accepting a signed NDA.
type Countersignature struct {
	Name          string `json:"name"`
	Title         string `json:"title,omitempty"`
	SignatureData string `json:"signatureData,omitempty"`
}
