// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for offices,
// including the idempotent seed of the organization chart.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// DefaultOffices is the organization chart installed by SeedOffices.
var DefaultOffices = []domain.Office{
	{ID: "100", Name: "Presidencia", Abrev: "PRESIDENCIA"},
	{ID: "101", Name: "Vicepresidencia", Abrev: "VICEPRESIDENCIA"},
	{ID: "102", Name: "Oficina de Auditoría Interna", Abrev: "OAI"},
	{ID: "103", Name: "Oficina de Consultoría Jurídica", Abrev: "OCJ"},
	{ID: "104", Name: "Oficina de Planificación, Presupuesto y Organización", Abrev: "OPPO"},
	{ID: "105", Name: "Oficina de Gestión Humana", Abrev: "OGH"},
	{ID: "106", Name: "Gerencia General de Proyectos de Desarrollo Minero", Abrev: "GGPDM"},
	{ID: "107", Name: "Oficina de Seguridad Integral", Abrev: "OSI"},
	{ID: "108", Name: "Oficina de Atención al Ciudadano", Abrev: "OAC"},
	{ID: "109", Name: "Oficina de Administración y Finanzas", Abrev: "OAF"},
	{ID: "110", Name: "Oficina de Seguimiento y Control", Abrev: "OSC"},
	{ID: "111", Name: "Oficina de Gestión Comunicacional", Abrev: "OGC"},
	{ID: "112", Name: "Oficina de Tecnologías de la Información", Abrev: "OTI"},
	{ID: "113", Name: "Gerencia de Seguimiento y Mejora Continua", Abrev: "GSMC"},
	{ID: "114", Name: "Gerencia General de Exploración", Abrev: "GGE"},
	{ID: "115", Name: "Gerencia General de Proyectos de Infraestructura Minera", Abrev: "GGPIM"},
	{ID: "116", Name: "Gerencia General de Comercialización", Abrev: "GGC"},
}

// SeedOffices inserts DefaultOffices, leaving existing rows untouched.
func SeedOffices(ctx context.Context, db *gorm.DB) error {
	offices := make([]domain.Office, len(DefaultOffices))
	copy(offices, DefaultOffices)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&offices).Error
}

// ListOffices returns all offices ordered by name.
func ListOffices(ctx context.Context, db *gorm.DB) ([]domain.Office, error) {
	var out []domain.Office
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// GetOffice fetches one office or returns ErrNotFound.
func GetOffice(ctx context.Context, db *gorm.DB, id string) (*domain.Office, error) {
	var o domain.Office
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOfficesByIDs returns the offices whose ids are in ids. Unknown ids are
// simply absent from the result.
func ListOfficesByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Office, error) {
	if len(ids) == 0 {
		return []domain.Office{}, nil
	}
	var out []domain.Office
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}
