// Package services – NotificationService
//
// NotificationService persists one notification per recipient for a memo or
// forum event and serves each user's inbox. Dispatch is best effort: the
// triggering mutation is already committed, inserts are independent, and
// failures are reported to the caller instead of being rolled back.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var notificationsDispatched = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notifications persisted by the dispatcher, by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(notificationsDispatched)
}

// NotificationStore is the write contract used by Dispatch.
type NotificationStore interface {
	CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error
}

type repoNotifications struct{}

func (repoNotifications) CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	return repo.CreateNotification(ctx, db, n)
}

// NotificationService dispatches notifications and manages inboxes.
type NotificationService struct {
	DB    *gorm.DB
	Store NotificationStore // nil means the repo package

	// Timeout bounds a whole Dispatch call. Zero means no extra bound.
	Timeout time.Duration
	// Concurrency caps parallel inserts. Values below 2 dispatch sequentially.
	Concurrency int
}

// Dispatch creates one unread notification per recipient referencing the
// optional forumID and memoID. It returns the notifications that were
// stored, in recipient order, and the joined per-recipient failures.
func (s *NotificationService) Dispatch(ctx context.Context, recipients []domain.User, message, forumID, memoID string) ([]domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.Int("recipients", len(recipients)),
			attribute.String("forum.id", forumID),
			attribute.String("memo.id", memoID),
		),
	)
	defer span.End()

	if len(recipients) == 0 {
		return []domain.Notification{}, nil
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	store := s.Store
	if store == nil {
		store = repoNotifications{}
	}
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}

	created := make([]*domain.Notification, len(recipients))
	failed := make([]error, len(recipients))

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range recipients {
		i, u := i, recipients[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failed[i] = fmt.Errorf("notify user %s: %w", u.ID, err)
				return nil
			}
			n := &domain.Notification{
				UserID:  u.ID,
				Message: message,
				ForumID: optional(forumID),
				MemoID:  optional(memoID),
			}
			if err := store.CreateNotification(ctx, s.DB, n); err != nil {
				failed[i] = fmt.Errorf("notify user %s: %w", u.ID, err)
				return nil
			}
			created[i] = n
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Notification, 0, len(recipients))
	for _, n := range created {
		if n != nil {
			out = append(out, *n)
		}
	}
	err := errors.Join(failed...)

	notificationsDispatched.WithLabelValues("created").Add(float64(len(out)))
	if miss := len(recipients) - len(out); miss > 0 {
		notificationsDispatched.WithLabelValues("failed").Add(float64(miss))
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial dispatch")
	}
	return out, err
}

// List returns the user's visible notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.Int("limit", limit)),
	)
	defer span.End()

	items, err := repo.ListNotifications(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

// UnreadCount returns the number of unread visible notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "UnreadCount", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.CountUnread(ctx, s.DB, userID)
}

// MarkRead flags notification id as read and returns it. Only the
// addressee may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("notification.id", id)),
	)
	defer span.End()

	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := repo.MarkNotificationRead(ctx, s.DB, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// Delete soft-deletes notification id and returns it. Only the addressee
// may do so.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) (*domain.Notification, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.String("notification.id", id)),
	)
	defer span.End()

	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := repo.SoftDeleteNotification(ctx, s.DB, id); err != nil {
		return nil, err
	}
	n.Deleted = true
	return n, nil
}

func (s *NotificationService) owned(ctx context.Context, userID, id string) (*domain.Notification, error) {
	n, err := repo.GetNotification(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.Deleted {
		return nil, ErrNotificationNotFound
	}
	if n.UserID != userID {
		return nil, ErrForbiddenNotification
	}
	return n, nil
}

// Recipients resolves who must be told about an event.
type Recipients interface {
	Resolve(ctx context.Context, officeIDs []string, excludeUserID string) ([]domain.User, error)
}

// Dispatcher persists notifications for a resolved recipient set.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []domain.User, message, forumID, memoID string) ([]domain.Notification, error)
}

// Announcer resolves recipients for a set of offices and dispatches one
// notification to each. Failures are logged and never returned, so a
// committed mutation always reports success. A nil Announcer is a no-op.
type Announcer struct {
	Recipients Recipients
	Dispatcher Dispatcher
}

// Announce returns the number of notifications stored.
func (a *Announcer) Announce(ctx context.Context, officeIDs []string, excludeUserID, message, forumID, memoID string) int {
	if a == nil || a.Recipients == nil || a.Dispatcher == nil {
		return 0
	}
	lg := log.Ctx(ctx)

	users, err := a.Recipients.Resolve(ctx, officeIDs, excludeUserID)
	if err != nil {
		lg.Error().Err(err).Strs("office_ids", officeIDs).Msg("resolve notification recipients")
		return 0
	}
	sent, err := a.Dispatcher.Dispatch(ctx, users, message, forumID, memoID)
	if err != nil {
		lg.Warn().Err(err).
			Int("recipients", len(users)).
			Int("stored", len(sent)).
			Str("forum_id", forumID).
			Str("memo_id", memoID).
			Msg("notification dispatch incomplete")
	}
	return len(sent)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
