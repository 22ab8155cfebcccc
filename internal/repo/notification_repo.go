// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for notifications.
// Notifications are never hard-deleted; SoftDeleteNotification flips the
// deleted flag and every read path filters on it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// CreateNotification inserts n as unread and not deleted.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt, n.UpdatedAt = now, now
	n.Read, n.Deleted = false, false
	return db.WithContext(ctx).Omit(clause.Associations).Create(n).Error
}

// GetNotification fetches a notification by id, including soft-deleted rows.
func GetNotification(ctx context.Context, db *gorm.DB, id string) (*domain.Notification, error) {
	var n domain.Notification
	if err := db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotifications returns the user's non-deleted notifications, newest
// first, with forum and memo preloaded. limit <= 0 means no limit.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	q := db.WithContext(ctx).
		Preload("Forum").
		Preload("Memo").
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountUnread returns the number of unread, non-deleted notifications.
func CountUnread(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND deleted = ? AND read = ?", userID, false, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationRead sets read=true on id.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id string) error {
	return updateNotification(ctx, db, id, map[string]any{"read": true})
}

// SoftDeleteNotification sets deleted=true on id.
func SoftDeleteNotification(ctx context.Context, db *gorm.DB, id string) error {
	return updateNotification(ctx, db, id, map[string]any{"deleted": true})
}

func updateNotification(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.Notification{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
