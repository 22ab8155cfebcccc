// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the tracked
// presidency documents: puntos de cuenta, oficios de presidencia and sent
// memos.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// CreatePuntoCuenta inserts p. A repeated numero yields ErrDuplicate.
func CreatePuntoCuenta(ctx context.Context, db *gorm.DB, p *domain.PuntoCuenta) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return translate(db.WithContext(ctx).Create(p).Error)
}

// ListPuntosCuenta returns every punto de cuenta ordered by fecha then
// numero, both descending.
func ListPuntosCuenta(ctx context.Context, db *gorm.DB) ([]domain.PuntoCuenta, error) {
	var out []domain.PuntoCuenta
	err := db.WithContext(ctx).Order("fecha DESC, numero DESC").Find(&out).Error
	return out, err
}

// GetPuntoCuenta fetches a punto de cuenta by id.
func GetPuntoCuenta(ctx context.Context, db *gorm.DB, id string) (*domain.PuntoCuenta, error) {
	var p domain.PuntoCuenta
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePuntoCuentaStatus sets the status of id or returns ErrNotFound.
func UpdatePuntoCuentaStatus(ctx context.Context, db *gorm.DB, id string, status domain.DocumentStatus) error {
	return updateStatus(ctx, db, &domain.PuntoCuenta{}, id, status)
}

// CreateOficioPresidencia inserts o. A repeated numero yields ErrDuplicate.
func CreateOficioPresidencia(ctx context.Context, db *gorm.DB, o *domain.OficioPresidencia) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	return translate(db.WithContext(ctx).Create(o).Error)
}

// ListOficiosPresidencia returns oficios, optionally filtered by status,
// ordered by delivery date then elaboration date, both descending.
func ListOficiosPresidencia(ctx context.Context, db *gorm.DB, status domain.DocumentStatus) ([]domain.OficioPresidencia, error) {
	var out []domain.OficioPresidencia
	q := db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("fecha_entrega DESC, fecha_elaboracion DESC").Find(&out).Error
	return out, err
}

// GetOficioPresidencia fetches an oficio by id.
func GetOficioPresidencia(ctx context.Context, db *gorm.DB, id string) (*domain.OficioPresidencia, error) {
	var o domain.OficioPresidencia
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOficioPresidenciaStatus sets the status of id or returns ErrNotFound.
func UpdateOficioPresidenciaStatus(ctx context.Context, db *gorm.DB, id string, status domain.DocumentStatus) error {
	return updateStatus(ctx, db, &domain.OficioPresidencia{}, id, status)
}

// CreateSentMemo inserts s.
func CreateSentMemo(ctx context.Context, db *gorm.DB, s *domain.SentMemo) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	return db.WithContext(ctx).Create(s).Error
}

// ListSentMemos returns sent memos, newest first.
func ListSentMemos(ctx context.Context, db *gorm.DB) ([]domain.SentMemo, error) {
	var out []domain.SentMemo
	err := db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

// GetSentMemo fetches a sent memo by id.
func GetSentMemo(ctx context.Context, db *gorm.DB, id string) (*domain.SentMemo, error) {
	var s domain.SentMemo
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func updateStatus(ctx context.Context, db *gorm.DB, model any, id string, status domain.DocumentStatus) error {
	res := db.WithContext(ctx).
		Model(model).
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
