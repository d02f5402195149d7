// Package notify provides the notification queue consumed by the NDA
// lifecycle manager and the access-request workflow. Dispatch is
// fire-and-forget: a failed enqueue or delivery never rolls back the
// state transition that triggered it.
package notify

import "time"

// State of a queued notification.
type State string

const (
	StateQueued  State = "queued"
	StateSending State = "sending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

// Notification types understood by the UI.
const (
	TypeNDAApproved           = "nda_approved"
	TypeNDARejected           = "nda_rejected"
	TypeAccessRequestApproved = "access_request_approved"
)

// Notification is the payload handed to the dispatcher.
type Notification struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	ReferenceID string `json:"referenceId,omitempty"`
}

// NotificationRecord is a GORM model for a queued notification.
type NotificationRecord struct {
	ID          string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"column:user_id;index:idx_notification_user;not null" json:"userId"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Message     string     `gorm:"column:message" json:"message,omitempty"`
	Type        string     `gorm:"column:type;not null" json:"type"`
	ReferenceID string     `gorm:"column:reference_id;index" json:"referenceId,omitempty"`
	State       State      `gorm:"column:state;index:idx_notification_state;default:queued;not null" json:"state"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"-"`
	LastError   string     `gorm:"column:last_error" json:"-"`
	SentAt      *time.Time `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (NotificationRecord) TableName() string { return "notifications" }

// Dispatcher enqueues a notification for asynchronous delivery.
type Dispatcher interface {
	Dispatch(n Notification) error
}

// NopDispatcher discards all notifications. Useful in tests.
type NopDispatcher struct{}

// Dispatch implements Dispatcher.
func (NopDispatcher) Dispatch(Notification) error { return nil }
