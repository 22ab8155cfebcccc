// Package services – ForumService
//
// ForumService owns the single discussion thread attached to each memo:
// creation (gated by the authorization rules and the one-forum-per-memo
// unique index), lookups with memo context, and status changes.
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ForumInput is the data needed to open a forum.
type ForumInput struct {
	Title       string
	Description string
	MemoID      string
}

// ForumDetails is a forum together with its memo context.
type ForumDetails struct {
	domain.Forum
	RelatedOffices []domain.Office `json:"relatedOffices"`
	MemoDetails    *domain.Memo    `json:"memoDetails"`
	MessageCount   int64           `json:"messageCount"`
	LastMessageAt  *time.Time      `json:"lastMessageAt"`
}

// ForumExistence answers whether a memo already has a forum.
type ForumExistence struct {
	Exists        bool               `json:"exists"`
	ID            string             `json:"id,omitempty"`
	Status        domain.ForumStatus `json:"status,omitempty"`
	LastMessageAt *time.Time         `json:"lastMessageAt,omitempty"`
}

// ForumService manages forums.
type ForumService struct {
	DB        *gorm.DB
	Authz     *authz.Evaluator
	Announcer *Announcer

	// TitleMaxLen caps stored titles by rune length (0 = unlimited).
	TitleMaxLen int
}

// Create opens the forum of in.MemoID on behalf of actor and notifies the
// memo's recipients.
func (s *ForumService) Create(ctx context.Context, actor *domain.User, in ForumInput) (*domain.Forum, error) {
	tr := otel.Tracer("services/ForumService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("memo.id", in.MemoID)),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrMissingUser
	}
	span.SetAttributes(attribute.String("user.id", actor.ID))

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if s.TitleMaxLen > 0 && len([]rune(title)) > s.TitleMaxLen {
		return nil, validationf("title must be at most %d characters", s.TitleMaxLen)
	}
	if strings.TrimSpace(in.MemoID) == "" {
		return nil, validationf("memo_id is required")
	}

	memo, err := repo.GetMemo(ctx, s.DB, in.MemoID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMemoNotFound
	}
	if err != nil {
		return nil, err
	}

	officeIDs := memo.OfficeIDs()
	if !s.Authz.CanCreateForum(actor, officeIDs) {
		return nil, ErrForbiddenForum
	}

	if _, err := repo.GetForumByMemo(ctx, s.DB, memo.ID); err == nil {
		return nil, ErrForumExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	f := &domain.Forum{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		MemoID:      memo.ID,
		Status:      domain.ForumOpen,
		CreatedBy:   actor.ID,
	}
	if err := repo.CreateForum(ctx, s.DB, f); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrForumExists
		}
		return nil, err
	}

	s.Announcer.Announce(ctx, officeIDs, "",
		fmt.Sprintf("Nuevo foro creado: %q para el oficio %q", f.Title, memo.Name),
		f.ID, memo.ID)
	return f, nil
}

// Get returns forum id with its memo, related offices and message stats.
func (s *ForumService) Get(ctx context.Context, id string) (*ForumDetails, error) {
	tr := otel.Tracer("services/ForumService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("forum.id", id)))
	defer span.End()

	f, err := s.forum(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &ForumDetails{Forum: *f, RelatedOffices: []domain.Office{}}
	memo, err := repo.GetMemo(ctx, s.DB, f.MemoID)
	switch {
	case err == nil:
		out.MemoDetails = memo
		if memo.Offices != nil {
			out.RelatedOffices = memo.Offices
		}
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	if out.MessageCount, err = repo.CountMessages(ctx, s.DB, f.ID); err != nil {
		return nil, err
	}
	if out.LastMessageAt, err = repo.LastMessageAt(ctx, s.DB, f.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckExistence reports whether memoID has a forum.
func (s *ForumService) CheckExistence(ctx context.Context, memoID string) (*ForumExistence, error) {
	tr := otel.Tracer("services/ForumService")
	ctx, span := tr.Start(ctx, "CheckExistence", trace.WithAttributes(attribute.String("memo.id", memoID)))
	defer span.End()

	f, err := repo.GetForumByMemo(ctx, s.DB, memoID)
	if errors.Is(err, repo.ErrNotFound) {
		return &ForumExistence{Exists: false}, nil
	}
	if err != nil {
		return nil, err
	}
	last, err := repo.LastMessageAt(ctx, s.DB, f.ID)
	if err != nil {
		return nil, err
	}
	return &ForumExistence{Exists: true, ID: f.ID, Status: f.Status, LastMessageAt: last}, nil
}

// UpdateStatus opens or closes forum id.
func (s *ForumService) UpdateStatus(ctx context.Context, id, status string) (*domain.Forum, error) {
	tr := otel.Tracer("services/ForumService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(attribute.String("forum.id", id), attribute.String("status", status)),
	)
	defer span.End()

	st, ok := domain.ParseForumStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}
	if err := repo.UpdateForumStatus(ctx, s.DB, id, st); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrForumNotFound
		}
		return nil, err
	}
	return s.forum(ctx, id)
}

func (s *ForumService) forum(ctx context.Context, id string) (*domain.Forum, error) {
	f, err := repo.GetForum(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrForumNotFound
	}
	return f, err
}
