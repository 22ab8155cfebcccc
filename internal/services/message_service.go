// Package services – MessageService
//
// MessageService posts, lists and deletes forum messages. A message carries
// text, an optional single attachment, or both; every post notifies the
// memo's recipients except the author.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MessageAuthor is the public profile of a message author.
type MessageAuthor struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Office    *domain.Office `json:"office,omitempty"`
}

// MessageView is a message enriched with its author.
type MessageView struct {
	domain.Message
	User *MessageAuthor `json:"user,omitempty"`
}

// MessageService manages forum messages.
type MessageService struct {
	DB        *gorm.DB
	Authz     *authz.Evaluator
	Announcer *Announcer

	Blobs   storage.BlobStore
	Uploads storage.Policy

	// MaxContentRunes caps message length (0 = unlimited).
	MaxContentRunes int
}

// nlCollapseRE collapses runs of 3+ newlines to two.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Post stores a message by actor in forumID, optionally with file, and
// notifies the memo's recipients except actor.
func (s *MessageService) Post(ctx context.Context, actor *domain.User, forumID, content string, file *storage.Upload) (*MessageView, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Post",
		trace.WithAttributes(
			attribute.String("forum.id", forumID),
			attribute.Bool("has_file", file != nil),
		),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrMissingUser
	}
	span.SetAttributes(attribute.String("user.id", actor.ID))

	content = sanitizeContent(content)
	if content == "" && file == nil {
		return nil, ErrEmptyMessage
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, validationf("content too long: max %d characters", s.MaxContentRunes)
	}

	forum, err := repo.GetForum(ctx, s.DB, forumID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrForumNotFound
	}
	if err != nil {
		return nil, err
	}

	m := &domain.Message{ForumID: forum.ID, UserID: actor.ID, Content: content}

	var batch *storage.Batch
	if file != nil {
		if s.Blobs == nil {
			return nil, errors.New("attachments are not configured")
		}
		batch = storage.NewBatch(s.Blobs, s.Uploads)
		obj, err := batch.Save(ctx, storage.BucketForums, *file)
		if err != nil {
			return nil, uploadErr(err)
		}
		name := file.Name
		m.FileURL, m.FileName = &obj.URL, &name
	}

	if err := repo.CreateMessage(ctx, s.DB, m); err != nil {
		rollback(ctx, batch)
		return nil, err
	}
	if batch != nil {
		batch.Commit()
	}

	officeIDs, err := repo.MemoOfficeIDs(ctx, s.DB, forum.MemoID)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("memo_id", forum.MemoID).Msg("load memo offices for notification")
	} else {
		s.Announcer.Announce(ctx, officeIDs, actor.ID,
			fmt.Sprintf("Nuevo mensaje de %s (%s) en el foro %q", actor.Username, officeLabel(actor), forum.Title),
			forum.ID, forum.MemoID)
	}

	return &MessageView{Message: *m, User: authorOf(actor)}, nil
}

// List returns the messages of forumID in ascending creation order, each
// with its author.
func (s *MessageService) List(ctx context.Context, forumID string) ([]MessageView, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "List", trace.WithAttributes(attribute.String("forum.id", forumID)))
	defer span.End()

	if _, err := repo.GetForum(ctx, s.DB, forumID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrForumNotFound
		}
		return nil, err
	}

	msgs, err := repo.ListMessages(ctx, s.DB, forumID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(msgs))
	seen := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	users, err := repo.ListUsersByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageView{Message: m, User: authorOf(byID[m.UserID])})
	}
	return out, nil
}

// Get returns one message of forumID with its author.
func (s *MessageService) Get(ctx context.Context, forumID, messageID string) (*MessageView, error) {
	m, err := repo.GetMessage(ctx, s.DB, forumID, messageID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	u, err := repo.GetUser(ctx, s.DB, m.UserID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	return &MessageView{Message: *m, User: authorOf(u)}, nil
}

// Delete removes messageID from forumID. Only its author may delete it.
func (s *MessageService) Delete(ctx context.Context, actor *domain.User, forumID, messageID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("forum.id", forumID),
			attribute.String("message.id", messageID),
		),
	)
	defer span.End()

	if actor == nil {
		return ErrMissingUser
	}

	m, err := repo.GetMessage(ctx, s.DB, forumID, messageID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if !s.Authz.CanDeleteMessage(actor, m) {
		return ErrForbiddenMessage
	}
	if err := repo.DeleteMessage(ctx, s.DB, m.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if m.FileURL != nil && s.Blobs != nil {
		if err := s.Blobs.Delete(ctx, *m.FileURL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("message_id", m.ID).Msg("delete message attachment")
		}
	}
	return nil
}

func authorOf(u *domain.User) *MessageAuthor {
	if u == nil {
		return nil
	}
	return &MessageAuthor{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Office:    u.Office,
	}
}

func officeLabel(u *domain.User) string {
	if u.Office != nil && u.Office.Name != "" {
		return u.Office.Name
	}
	return u.OfficeID
}
