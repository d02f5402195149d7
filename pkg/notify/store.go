package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides database operations for the notification queue.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the notifications table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&NotificationRecord{}); err != nil {
		return fmt.Errorf("auto-migrate notifications: %w", err)
	}
	return nil
}

// Enqueue creates a queued notification record from the payload.
func (s *Store) Enqueue(n Notification) (*NotificationRecord, error) {
	rec := &NotificationRecord{
		ID:          uuid.New().String(),
		UserID:      n.UserID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        n.Type,
		ReferenceID: n.ReferenceID,
		State:       StateQueued,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("enqueue notification: %w", err)
	}
	return rec, nil
}

// Claim atomically picks the oldest queued notification and returns it.
// Returns nil when the queue is empty. The conditional update guards
// against two workers claiming the same record.
func (s *Store) Claim() (*NotificationRecord, error) {
	var rec NotificationRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("state = ?", StateQueued).
			Order("created_at ASC").
			Limit(1).
			First(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Model(&NotificationRecord{}).
			Where("id = ? AND state = ?", rec.ID, StateQueued).
			Updates(map[string]any{
				"state":    StateSending,
				"attempts": gorm.Expr("attempts + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another worker claimed it between the read and the update.
			rec = NotificationRecord{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim notification: %w", err)
	}
	if rec.ID == "" {
		return nil, nil
	}

	if err := s.db.First(&rec, "id = ?", rec.ID).Error; err != nil {
		return nil, fmt.Errorf("reload claimed notification: %w", err)
	}
	return &rec, nil
}

// MarkSent transitions a notification to sent.
func (s *Store) MarkSent(id string) error {
	now := time.Now()
	result := s.db.Model(&NotificationRecord{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":   StateSent,
			"sent_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark notification sent: %w", result.Error)
	}
	return nil
}

// MarkFailed records a delivery error. The notification stays queued for
// retry until maxAttempts is reached, then moves to failed.
func (s *Store) MarkFailed(id string, deliveryErr string, maxAttempts int) error {
	var rec NotificationRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		return fmt.Errorf("load notification for fail: %w", err)
	}

	updates := map[string]any{"last_error": deliveryErr}
	if rec.Attempts >= maxAttempts {
		updates["state"] = StateFailed
	} else {
		updates["state"] = StateQueued
	}

	if err := s.db.Model(&NotificationRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first.
func (s *Store) ListByUser(userID string, limit int) ([]NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []NotificationRecord
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return records, nil
}
