// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Forum
// model. The unique index on forums.memo_id is what ultimately enforces
// one forum per memo; CreateForum reports a violation as ErrDuplicate.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// CreateForum inserts f with a fresh id and UTC timestamps.
func CreateForum(ctx context.Context, db *gorm.DB, f *domain.Forum) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = domain.ForumOpen
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(f).Error)
}

// GetForum fetches a forum by id or returns ErrNotFound.
func GetForum(ctx context.Context, db *gorm.DB, id string) (*domain.Forum, error) {
	var f domain.Forum
	if err := db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// GetForumByMemo fetches the forum attached to memoID or returns ErrNotFound.
func GetForumByMemo(ctx context.Context, db *gorm.DB, memoID string) (*domain.Forum, error) {
	var f domain.Forum
	if err := db.WithContext(ctx).Where("memo_id = ?", memoID).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateForumStatus sets the status of forum id or returns ErrNotFound.
func UpdateForumStatus(ctx context.Context, db *gorm.DB, id string, status domain.ForumStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Forum{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
