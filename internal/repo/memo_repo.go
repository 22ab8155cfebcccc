// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for memos and
// their office routing set.
//
// Multi-row writes (a memo plus its MemoOffice rows, or an office
// replacement) are not wrapped here; callers open the transaction and pass
// the transaction-bound handle.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// MemoFilter narrows ListMemosPage and CountMemos. Zero fields are ignored.
type MemoFilter struct {
	Status   domain.MemoStatus
	OfficeID string
}

// CreateMemo inserts m and one MemoOffice row per office id.
func CreateMemo(ctx context.Context, db *gorm.DB, m *domain.Memo, officeIDs []string) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	return insertMemoOffices(ctx, db, m.ID, officeIDs)
}

// GetMemo fetches a memo with its offices ordered by id.
func GetMemo(ctx context.Context, db *gorm.DB, id string) (*domain.Memo, error) {
	var m domain.Memo
	err := db.WithContext(ctx).
		Preload("Offices", orderOffices).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMemos returns the number of memos matching f.
func CountMemos(ctx context.Context, db *gorm.DB, f MemoFilter) (int64, error) {
	var total int64
	err := applyMemoFilter(db.WithContext(ctx).Model(&domain.Memo{}), db, f).Count(&total).Error
	return total, err
}

// ListMemosPage returns memos matching f, newest first, with offices.
func ListMemosPage(ctx context.Context, db *gorm.DB, f MemoFilter, offset, limit int) ([]domain.Memo, error) {
	var out []domain.Memo
	err := applyMemoFilter(db.WithContext(ctx), db, f).
		Preload("Offices", orderOffices).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateMemoStatus sets the status of memo id or returns ErrNotFound.
func UpdateMemoStatus(ctx context.Context, db *gorm.DB, id string, status domain.MemoStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Memo{}).
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

// UpdateMemoInstruction stores instruction and marks it ASSIGNED.
func UpdateMemoInstruction(ctx context.Context, db *gorm.DB, id, instruction string) error {
	res := db.WithContext(ctx).
		Model(&domain.Memo{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"instruction":        instruction,
			"instruction_status": domain.InstructionAssigned,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceMemoOffices deletes every MemoOffice row of memoID and inserts the
// given set.
func ReplaceMemoOffices(ctx context.Context, db *gorm.DB, memoID string, officeIDs []string) error {
	if err := db.WithContext(ctx).Where("memo_id = ?", memoID).Delete(&domain.MemoOffice{}).Error; err != nil {
		return err
	}
	return insertMemoOffices(ctx, db, memoID, officeIDs)
}

// MemoOfficeIDs returns the office ids routed to memoID.
func MemoOfficeIDs(ctx context.Context, db *gorm.DB, memoID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.MemoOffice{}).
		Where("memo_id = ?", memoID).
		Order("office_id ASC").
		Pluck("office_id", &ids).Error
	return ids, err
}

func insertMemoOffices(ctx context.Context, db *gorm.DB, memoID string, officeIDs []string) error {
	if len(officeIDs) == 0 {
		return nil
	}
	rows := make([]domain.MemoOffice, 0, len(officeIDs))
	for _, id := range officeIDs {
		rows = append(rows, domain.MemoOffice{MemoID: memoID, OfficeID: id})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func applyMemoFilter(q, db *gorm.DB, f MemoFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OfficeID != "" {
		sub := db.Session(&gorm.Session{NewDB: true}).Model(&domain.MemoOffice{}).Select("memo_id").Where("office_id = ?", f.OfficeID)
		q = q.Where("id IN (?)", sub)
	}
	return q
}

func orderOffices(db *gorm.DB) *gorm.DB { return db.Order("offices.id ASC") }
