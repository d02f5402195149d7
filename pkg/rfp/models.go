// Package rfp holds the RFP and document records the access-control
// engine decides over. The package is a leaf: every other domain package
// may depend on it.
package rfp

import "time"

// Visibility of an RFP.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityConfidential Visibility = "confidential"
)

// Status of an RFP. A draft RFP is never visible to non-owners
// regardless of any other rule.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// RFPRecord is a GORM model for a request for proposals.
type RFPRecord struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description,omitempty"`
	Visibility  Visibility `gorm:"column:visibility;index:idx_rfp_visibility;default:public;not null" json:"visibility"`
	Status      Status     `gorm:"column:status;index:idx_rfp_status;default:draft;not null" json:"status"`
	ClientID    string     `gorm:"column:client_id;index:idx_rfp_client;not null" json:"clientId"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (RFPRecord) TableName() string { return "rfps" }

// DocumentRecord is a GORM model for a document attached to an RFP.
// Documents are owned by their RFP and cascade-deleted with it.
type DocumentRecord struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RFPID       string    `gorm:"column:rfp_id;index:idx_document_rfp;not null" json:"rfpId"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	ContentType string    `gorm:"column:content_type" json:"contentType,omitempty"`
	StorageKey  string    `gorm:"column:storage_key;not null" json:"-"`
	RequiresNDA bool      `gorm:"column:requires_nda;not null;default:false" json:"requiresNda"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (DocumentRecord) TableName() string { return "rfp_documents" }
