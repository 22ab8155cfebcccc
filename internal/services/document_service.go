// Package services – DocumentService
//
// DocumentService tracks the presidency's paperwork that lives outside the
// memo workflow: puntos de cuenta, oficios de presidencia (with an optional
// scanned copy) and sent memos (with their reception proof).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PuntoCuentaInput is the data needed to register a punto de cuenta.
// Every field is required.
type PuntoCuentaInput struct {
	Numero      string
	Tipo        string
	Fecha       time.Time
	Presentante string
	Asunto      string
	Decision    string
	Observacion string
}

// OficioInput is the data needed to register an oficio de presidencia.
// An empty Numero is generated; only the first document is kept.
type OficioInput struct {
	Numero            string
	Institucion       string
	Destinatario      string
	Asunto            string
	FechaElaboracion  time.Time
	FechaEntrega      *time.Time
	RequiereRespuesta bool
	Status            string
	Documentos        []storage.Upload
}

// SentMemoInput is the data needed to register a sent memo.
type SentMemoInput struct {
	Title          string
	RegisteredBy   string
	ReceptionImage *storage.Upload
}

// DocumentService manages tracked documents.
type DocumentService struct {
	DB      *gorm.DB
	Blobs   storage.BlobStore
	Uploads storage.Policy

	now func() time.Time
}

func (s *DocumentService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// CreatePuntoCuenta stores a punto de cuenta. A repeated numero is a conflict.
func (s *DocumentService) CreatePuntoCuenta(ctx context.Context, actor *domain.User, in PuntoCuentaInput) (*domain.PuntoCuenta, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "CreatePuntoCuenta", trace.WithAttributes(attribute.String("numero", in.Numero)))
	defer span.End()

	p := &domain.PuntoCuenta{
		Numero:      strings.TrimSpace(in.Numero),
		Tipo:        strings.TrimSpace(in.Tipo),
		Fecha:       in.Fecha,
		Presentante: strings.TrimSpace(in.Presentante),
		Asunto:      strings.TrimSpace(in.Asunto),
		Decision:    strings.TrimSpace(in.Decision),
		Observacion: strings.TrimSpace(in.Observacion),
		Status:      domain.DocumentPending,
	}
	if err := missing(
		field{"numero", p.Numero == ""},
		field{"tipo", p.Tipo == ""},
		field{"fecha", p.Fecha.IsZero()},
		field{"presentante", p.Presentante == ""},
		field{"asunto", p.Asunto == ""},
		field{"decision", p.Decision == ""},
		field{"observacion", p.Observacion == ""},
	); err != nil {
		return nil, err
	}
	if actor != nil {
		p.CreatedBy = actor.ID
	}

	if err := repo.CreatePuntoCuenta(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateNumero
		}
		return nil, err
	}
	return p, nil
}

// ListPuntosCuenta returns every punto de cuenta, newest fecha first.
func (s *DocumentService) ListPuntosCuenta(ctx context.Context) ([]domain.PuntoCuenta, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "ListPuntosCuenta")
	defer span.End()

	out, err := repo.ListPuntosCuenta(ctx, s.DB)
	if out == nil && err == nil {
		out = []domain.PuntoCuenta{}
	}
	return out, err
}

// GetPuntoCuenta returns punto de cuenta id.
func (s *DocumentService) GetPuntoCuenta(ctx context.Context, id string) (*domain.PuntoCuenta, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GetPuntoCuenta", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	p, err := repo.GetPuntoCuenta(ctx, s.DB, id)
	return p, notFound(err)
}

// UpdatePuntoCuentaStatus sets the status of punto de cuenta id.
func (s *DocumentService) UpdatePuntoCuentaStatus(ctx context.Context, id, status string) (*domain.PuntoCuenta, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "UpdatePuntoCuentaStatus",
		trace.WithAttributes(attribute.String("document.id", id), attribute.String("status", status)),
	)
	defer span.End()

	st, ok := domain.ParseDocumentStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if err := repo.UpdatePuntoCuentaStatus(ctx, s.DB, id, st); err != nil {
		return nil, notFound(err)
	}
	return s.GetPuntoCuenta(ctx, id)
}

// CreateOficio stores an oficio de presidencia and its first scanned
// document, if any.
func (s *DocumentService) CreateOficio(ctx context.Context, actor *domain.User, in OficioInput) (*domain.OficioPresidencia, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "CreateOficio",
		trace.WithAttributes(attribute.Int("documents", len(in.Documentos))),
	)
	defer span.End()

	o := &domain.OficioPresidencia{
		Numero:            strings.TrimSpace(in.Numero),
		Institucion:       strings.TrimSpace(in.Institucion),
		Destinatario:      strings.TrimSpace(in.Destinatario),
		Asunto:            strings.TrimSpace(in.Asunto),
		FechaElaboracion:  in.FechaElaboracion,
		FechaEntrega:      in.FechaEntrega,
		RequiereRespuesta: in.RequiereRespuesta,
		Status:            domain.DocumentPending,
	}
	if err := missing(
		field{"institucion", o.Institucion == ""},
		field{"destinatario", o.Destinatario == ""},
		field{"asunto", o.Asunto == ""},
	); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Status) != "" {
		st, ok := domain.ParseDocumentStatus(in.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		o.Status = st
	}
	if o.FechaElaboracion.IsZero() {
		o.FechaElaboracion = s.clock().UTC()
	}
	if o.Numero == "" {
		o.Numero = fmt.Sprintf("OP-%s-%s", o.FechaElaboracion.Format("20060102"), uuid.NewString()[:8])
	}
	if actor != nil {
		o.CreatedBy = actor.ID
	}

	var batch *storage.Batch
	if len(in.Documentos) > 0 {
		if s.Blobs == nil {
			return nil, errors.New("uploads are not configured")
		}
		batch = storage.NewBatch(s.Blobs, s.Uploads)
		obj, err := batch.Save(ctx, storage.BucketOficios, in.Documentos[0])
		if err != nil {
			return nil, uploadErr(err)
		}
		o.DocumentoEscaneado = &obj.URL
	}

	if err := repo.CreateOficioPresidencia(ctx, s.DB, o); err != nil {
		rollback(ctx, batch)
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateNumero
		}
		return nil, err
	}
	if batch != nil {
		batch.Commit()
	}
	return o, nil
}

// ListOficios returns oficios, optionally only those with status.
func (s *DocumentService) ListOficios(ctx context.Context, status string) ([]domain.OficioPresidencia, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "ListOficios", trace.WithAttributes(attribute.String("status", status)))
	defer span.End()

	var st domain.DocumentStatus
	if strings.TrimSpace(status) != "" {
		var ok bool
		if st, ok = domain.ParseDocumentStatus(status); !ok {
			return nil, ErrInvalidStatus
		}
	}
	out, err := repo.ListOficiosPresidencia(ctx, s.DB, st)
	if out == nil && err == nil {
		out = []domain.OficioPresidencia{}
	}
	return out, err
}

// GetOficio returns oficio id.
func (s *DocumentService) GetOficio(ctx context.Context, id string) (*domain.OficioPresidencia, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GetOficio", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	o, err := repo.GetOficioPresidencia(ctx, s.DB, id)
	return o, notFound(err)
}

// UpdateOficioStatus sets the status of oficio id.
func (s *DocumentService) UpdateOficioStatus(ctx context.Context, id, status string) (*domain.OficioPresidencia, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "UpdateOficioStatus",
		trace.WithAttributes(attribute.String("document.id", id), attribute.String("status", status)),
	)
	defer span.End()

	st, ok := domain.ParseDocumentStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if err := repo.UpdateOficioPresidenciaStatus(ctx, s.DB, id, st); err != nil {
		return nil, notFound(err)
	}
	return s.GetOficio(ctx, id)
}

// CreateSentMemo stores a sent memo with its reception proof.
func (s *DocumentService) CreateSentMemo(ctx context.Context, actor *domain.User, in SentMemoInput) (*domain.SentMemo, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "CreateSentMemo")
	defer span.End()

	sm := &domain.SentMemo{
		Title:        strings.TrimSpace(in.Title),
		RegisteredBy: strings.TrimSpace(in.RegisteredBy),
	}
	if err := missing(
		field{"title", sm.Title == ""},
		field{"registeredBy", sm.RegisteredBy == ""},
		field{"receptionImage", in.ReceptionImage == nil},
	); err != nil {
		return nil, err
	}
	if s.Blobs == nil {
		return nil, errors.New("uploads are not configured")
	}
	if actor != nil {
		sm.CreatedBy = actor.ID
	}

	batch := storage.NewBatch(s.Blobs, s.Uploads)
	obj, err := batch.Save(ctx, storage.BucketSentMemos, *in.ReceptionImage)
	if err != nil {
		return nil, uploadErr(err)
	}
	sm.ReceptionImage = obj.URL

	if err := repo.CreateSentMemo(ctx, s.DB, sm); err != nil {
		rollback(ctx, batch)
		return nil, err
	}
	batch.Commit()
	return sm, nil
}

// ListSentMemos returns sent memos, newest first.
func (s *DocumentService) ListSentMemos(ctx context.Context) ([]domain.SentMemo, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "ListSentMemos")
	defer span.End()

	out, err := repo.ListSentMemos(ctx, s.DB)
	if out == nil && err == nil {
		out = []domain.SentMemo{}
	}
	return out, err
}

// GetSentMemo returns sent memo id; used by the verification page.
func (s *DocumentService) GetSentMemo(ctx context.Context, id string) (*domain.SentMemo, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "GetSentMemo", trace.WithAttributes(attribute.String("document.id", id)))
	defer span.End()

	sm, err := repo.GetSentMemo(ctx, s.DB, id)
	return sm, notFound(err)
}

type field struct {
	name    string
	missing bool
}

// missing reports every missing field in one validation error.
func missing(fields ...field) error {
	var names []string
	for _, f := range fields {
		if f.missing {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return validationf("missing required fields: %s", strings.Join(names, ", "))
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrDocumentNotFound
	}
	return err
}

func uploadErr(err error) error {
	if storage.IsRejected(err) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func rollback(ctx context.Context, b *storage.Batch) {
	if b == nil {
		return
	}
	if err := b.Rollback(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("rollback uploads")
	}
}
