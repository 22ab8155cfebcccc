// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users,
// including the office and role lookups used for recipient resolution.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// CreateUser inserts u, assigning an id and timestamps when missing.
// Unique violations on ci or username surface as ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return translate(db.WithContext(ctx).Create(u).Error)
}

// GetUser fetches a user with its office preloaded.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Preload("Office").Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by login name.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).Preload("Office").Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserExists reports whether a user with the given ci or username exists.
func UserExists(ctx context.Context, db *gorm.DB, ci, username string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).
		Where("ci = ? OR username = ?", ci, username).
		Count(&n).Error
	return n > 0, err
}

// ListUsersByOffices returns users whose office is in officeIDs.
func ListUsersByOffices(ctx context.Context, db *gorm.DB, officeIDs []string) ([]domain.User, error) {
	if len(officeIDs) == 0 {
		return []domain.User{}, nil
	}
	var out []domain.User
	err := db.WithContext(ctx).Where("office_id IN ?", officeIDs).Find(&out).Error
	return out, err
}

// ListSpecialUsers returns users with role ADMIN or whose office is one of
// officeIDs.
func ListSpecialUsers(ctx context.Context, db *gorm.DB, officeIDs []string) ([]domain.User, error) {
	var out []domain.User
	q := db.WithContext(ctx)
	if len(officeIDs) == 0 {
		q = q.Where("role = ?", domain.RoleAdmin)
	} else {
		q = q.Where("role = ? OR office_id IN ?", domain.RoleAdmin, officeIDs)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListUsersByIDs returns users (with offices) whose id is in ids.
func ListUsersByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var out []domain.User
	err := db.WithContext(ctx).Preload("Office").Where("id IN ?", ids).Find(&out).Error
	return out, err
}
