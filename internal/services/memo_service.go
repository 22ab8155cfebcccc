// Package services – MemoService
//
// MemoService records incoming memos, routes them to offices and applies
// the status and instruction workflow. Memo creation and office
// reassignment notify the recipients of the memo's offices.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MemoInput is the data needed to register a memo.
type MemoInput struct {
	Name            string
	Applicant       string
	ReceptionMethod string
	ResponseRequire bool
	Urgency         string
	Observation     string
	ReceptionDate   *time.Time
	ReceptionHour   string
	Instruction     string
	OfficeIDs       []string

	ReceptionImages []storage.Upload
	Attachments     []storage.Upload
}

// MemoService manages memos.
type MemoService struct {
	DB        *gorm.DB
	Authz     *authz.Evaluator
	Announcer *Announcer

	Blobs   storage.BlobStore
	Uploads storage.Policy
}

// Create stores a memo routed to in.OfficeIDs, with its uploaded files,
// and notifies the recipients of those offices.
func (s *MemoService) Create(ctx context.Context, actor *domain.User, in MemoInput) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.StringSlice("office.ids", in.OfficeIDs)),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrMissingUser
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	urgency, ok := domain.ParseUrgency(in.Urgency)
	if !ok {
		return nil, validationf("invalid urgency %q", in.Urgency)
	}
	officeIDs, err := s.checkOffices(ctx, in.OfficeIDs)
	if err != nil {
		return nil, err
	}

	m := &domain.Memo{
		Name:              name,
		Applicant:         strings.TrimSpace(in.Applicant),
		ReceptionMethod:   strings.TrimSpace(in.ReceptionMethod),
		ResponseRequire:   in.ResponseRequire,
		Urgency:           urgency,
		Observation:       strings.TrimSpace(in.Observation),
		ReceptionDate:     in.ReceptionDate,
		ReceptionHour:     strings.TrimSpace(in.ReceptionHour),
		Status:            domain.MemoPending,
		Instruction:       strings.TrimSpace(in.Instruction),
		InstructionStatus: domain.InstructionPending,
		ReceptionImages:   []string{},
		Attachments:       []string{},
		CreatedBy:         actor.ID,
	}
	if m.Instruction != "" {
		m.InstructionStatus = domain.InstructionAssigned
	}

	var batch *storage.Batch
	if len(in.ReceptionImages)+len(in.Attachments) > 0 {
		if s.Blobs == nil {
			return nil, errors.New("uploads are not configured")
		}
		batch = storage.NewBatch(s.Blobs, s.Uploads)
		if m.ReceptionImages, err = batch.SaveAll(ctx, storage.BucketMemos, in.ReceptionImages); err == nil {
			m.Attachments, err = batch.SaveAll(ctx, storage.BucketMemos, in.Attachments)
		}
		if err != nil {
			rollback(ctx, batch)
			return nil, uploadErr(err)
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreateMemo(ctx, tx, m, officeIDs)
	})
	if err != nil {
		rollback(ctx, batch)
		return nil, err
	}
	if batch != nil {
		batch.Commit()
	}

	created, err := repo.GetMemo(ctx, s.DB, m.ID)
	if err != nil {
		return nil, err
	}
	s.Announcer.Announce(ctx, officeIDs, "",
		fmt.Sprintf("Nuevo oficio recibido: %q", created.Name), "", created.ID)
	return created, nil
}

// List returns a page of memos matching the optional status and office
// filters, newest first, and the total match count.
func (s *MemoService) List(ctx context.Context, status, officeID string, page, pageSize int) ([]domain.Memo, int64, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("status", status),
			attribute.String("office.id", officeID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	var f repo.MemoFilter
	if strings.TrimSpace(status) != "" {
		st, ok := domain.ParseMemoStatus(status)
		if !ok {
			return nil, 0, ErrInvalidStatus
		}
		f.Status = st
	}
	f.OfficeID = strings.TrimSpace(officeID)

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	total, err := repo.CountMemos(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Memo{}, 0, nil
	}
	items, err := repo.ListMemosPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Get returns memo id with its offices.
func (s *MemoService) Get(ctx context.Context, id string) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("memo.id", id)))
	defer span.End()

	return s.memo(ctx, id)
}

// UpdateStatus moves memo id to status when actor is allowed to.
func (s *MemoService) UpdateStatus(ctx context.Context, actor *domain.User, id, status string) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(attribute.String("memo.id", id), attribute.String("status", status)),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrMissingUser
	}
	st, ok := domain.ParseMemoStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if !s.Authz.CanChangeMemoStatus(actor, st) {
		return nil, ErrForbiddenMemoStatus
	}
	if err := repo.UpdateMemoStatus(ctx, s.DB, id, st); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, err
	}
	return s.memo(ctx, id)
}

// AssignInstruction sets the instruction of memo id. When officeIDs is not
// empty and actor may edit routing, the memo's offices are replaced in the
// same transaction; otherwise officeIDs is ignored. The memo's (new)
// offices are notified.
func (s *MemoService) AssignInstruction(ctx context.Context, actor *domain.User, id, instruction string, officeIDs []string) (*domain.Memo, error) {
	tr := otel.Tracer("services/MemoService")
	ctx, span := tr.Start(ctx, "AssignInstruction",
		trace.WithAttributes(
			attribute.String("memo.id", id),
			attribute.StringSlice("office.ids", officeIDs),
		),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrMissingUser
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, validationf("instruction is required")
	}
	if _, err := s.memo(ctx, id); err != nil {
		return nil, err
	}

	var replace []string
	if len(dedupe(officeIDs)) > 0 && s.Authz.CanEditMemoOffices(actor) {
		ids, err := s.checkOffices(ctx, officeIDs)
		if err != nil {
			return nil, err
		}
		replace = ids
	}
	span.SetAttributes(attribute.Bool("offices.replaced", replace != nil))

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateMemoInstruction(ctx, tx, id, instruction); err != nil {
			return err
		}
		if replace != nil {
			return repo.ReplaceMemoOffices(ctx, tx, id, replace)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMemoNotFound
		}
		return nil, err
	}

	updated, err := s.memo(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Announcer.Announce(ctx, updated.OfficeIDs(), "",
		fmt.Sprintf("Instrucción asignada al oficio %q: %s", updated.Name, instruction), "", updated.ID)
	return updated, nil
}

// checkOffices deduplicates ids and verifies that every office exists.
func (s *MemoService) checkOffices(ctx context.Context, ids []string) ([]string, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoOffices
	}
	found, err := repo.ListOfficesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, o := range found {
		known[o.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, validationf("unknown office %q", id)
		}
	}
	return ids, nil
}

func (s *MemoService) memo(ctx context.Context, id string) (*domain.Memo, error) {
	m, err := repo.GetMemo(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMemoNotFound
	}
	return m, err
}

// dedupe trims ids and drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
