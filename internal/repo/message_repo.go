// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for forum messages.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// CreateMessage inserts m with a fresh id and UTC timestamps.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	return db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// GetMessage fetches a message by id within forumID. A message that exists
// under another forum is reported as ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, forumID, id string) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Where("id = ? AND forum_id = ?", id, forumID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns messages ordered deterministically (CreatedAt ASC, ID ASC).
func ListMessages(ctx context.Context, db *gorm.DB, forumID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("forum_id = ?", forumID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages returns the number of messages in forumID.
func CountMessages(ctx context.Context, db *gorm.DB, forumID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Message{}).Where("forum_id = ?", forumID).Count(&total).Error
	return total, err
}

// LastMessageAt returns the creation time of the newest message in forumID,
// or nil when the forum is empty.
func LastMessageAt(ctx context.Context, db *gorm.DB, forumID string) (*time.Time, error) {
	var rows []struct {
		CreatedAt time.Time
	}
	// Ordering instead of MAX() keeps the column typed as a time in SQLite.
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("created_at").
		Where("forum_id = ?", forumID).
		Order("created_at DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	ts := rows[0].CreatedAt
	return &ts, nil
}

// DeleteMessage hard-deletes message id.
func DeleteMessage(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
