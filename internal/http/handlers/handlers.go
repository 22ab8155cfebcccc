// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and validate input, resolve the
// acting user, call the application services and translate results into
// HTTP responses, including conditional (ETag) and idempotent replays.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/auth"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/http/middleware"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
	"github.com/ofitrack/ofitrack-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ForumService covers forum lifecycle operations.
type ForumService interface {
	Create(ctx context.Context, actor *domain.User, in services.ForumInput) (*domain.Forum, error)
	Get(ctx context.Context, id string) (*services.ForumDetails, error)
	CheckExistence(ctx context.Context, memoID string) (*services.ForumExistence, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Forum, error)
}

// MessageService covers forum messages.
type MessageService interface {
	Post(ctx context.Context, actor *domain.User, forumID, content string, file *storage.Upload) (*services.MessageView, error)
	List(ctx context.Context, forumID string) ([]services.MessageView, error)
	Get(ctx context.Context, forumID, messageID string) (*services.MessageView, error)
	Delete(ctx context.Context, actor *domain.User, forumID, messageID string) error
}

// MemoService covers the memo workflow.
type MemoService interface {
	Create(ctx context.Context, actor *domain.User, in services.MemoInput) (*domain.Memo, error)
	List(ctx context.Context, status, officeID string, page, pageSize int) ([]domain.Memo, int64, error)
	Get(ctx context.Context, id string) (*domain.Memo, error)
	UpdateStatus(ctx context.Context, actor *domain.User, id, status string) (*domain.Memo, error)
	AssignInstruction(ctx context.Context, actor *domain.User, id, instruction string, officeIDs []string) (*domain.Memo, error)
}

// NotificationService covers a user's inbox.
type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error)
	Delete(ctx context.Context, userID, id string) (*domain.Notification, error)
}

// DocumentService covers puntos de cuenta, oficios and sent memos.
type DocumentService interface {
	CreatePuntoCuenta(ctx context.Context, actor *domain.User, in services.PuntoCuentaInput) (*domain.PuntoCuenta, error)
	ListPuntosCuenta(ctx context.Context) ([]domain.PuntoCuenta, error)
	GetPuntoCuenta(ctx context.Context, id string) (*domain.PuntoCuenta, error)
	UpdatePuntoCuentaStatus(ctx context.Context, id, status string) (*domain.PuntoCuenta, error)

	CreateOficio(ctx context.Context, actor *domain.User, in services.OficioInput) (*domain.OficioPresidencia, error)
	ListOficios(ctx context.Context, status string) ([]domain.OficioPresidencia, error)
	GetOficio(ctx context.Context, id string) (*domain.OficioPresidencia, error)
	UpdateOficioStatus(ctx context.Context, id, status string) (*domain.OficioPresidencia, error)

	CreateSentMemo(ctx context.Context, actor *domain.User, in services.SentMemoInput) (*domain.SentMemo, error)
	ListSentMemos(ctx context.Context) ([]domain.SentMemo, error)
	GetSentMemo(ctx context.Context, id string) (*domain.SentMemo, error)
}

// AccountService covers registration, login and acting-user resolution.
type AccountService interface {
	Register(ctx context.Context, actor *domain.User, in services.RegisterInput, trusted bool) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Verify(raw string) (*auth.Claims, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Actor(ctx context.Context, authenticatedID, claimedID string) (*domain.User, error)
}

// OfficeService lists the office catalog.
type OfficeService interface {
	List(ctx context.Context) ([]domain.Office, error)
	Get(ctx context.Context, id string) (*domain.Office, error)
}

//
// Handler wiring
//

// Services bundles the application services the handlers depend on.
type Services struct {
	Forums        ForumService
	Messages      MessageService
	Memos         MemoService
	Notifications NotificationService
	Documents     DocumentService
	Accounts      AccountService
	Offices       OfficeService
}

// Options tunes transport behavior.
type Options struct {
	// DB backs ETag statistics and idempotency records; nil disables both.
	DB *gorm.DB
	// IdempotencyTTL is how long a stored Idempotency-Key replays.
	IdempotencyTTL time.Duration
	// NotificationLimit caps GET /notifications; <= 0 means 100.
	NotificationLimit int
}

// Handlers groups every HTTP endpoint.
type Handlers struct {
	forums   ForumService
	messages MessageService
	memos    MemoService
	notes    NotificationService
	docs     DocumentService
	accounts AccountService
	offices  OfficeService

	db         *gorm.DB
	idemTTL    time.Duration
	notesLimit int
}

// New constructs a Handlers bound to svc.
func New(svc Services, opts Options) *Handlers {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 24 * time.Hour
	}
	if opts.NotificationLimit <= 0 {
		opts.NotificationLimit = 100
	}
	return &Handlers{
		forums:     svc.Forums,
		messages:   svc.Messages,
		memos:      svc.Memos,
		notes:      svc.Notifications,
		docs:       svc.Documents,
		accounts:   svc.Accounts,
		offices:    svc.Offices,
		db:         opts.DB,
		idemTTL:    opts.IdempotencyTTL,
		notesLimit: opts.NotificationLimit,
	}
}

//
// DTOs
//

// UserRef is the `user` object some payloads carry. Only the id is read;
// role and office always come from storage.
type UserRef struct {
	ID string `json:"id" example:"5b0c9a3e-2f4d-4e0a-9d7c-1b2a3c4d5e6f"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// actor loads the acting user: the bearer token's user, or claimedID when
// the request is anonymous. A mismatch between the two is forbidden.
func (h *Handlers) actor(c *gin.Context, claimedID string) (*domain.User, bool) {
	u, err := h.accounts.Actor(c.Request.Context(), middleware.UserID(c), claimedID)
	if err != nil {
		respond(c, err)
		return nil, false
	}
	c.Set(middleware.UserIDKey, u.ID)
	return u, true
}

// optionalActor returns the acting user when one can be identified and nil
// otherwise. Errors other than "no user" are still reported.
func (h *Handlers) optionalActor(c *gin.Context) (*domain.User, bool) {
	if middleware.UserID(c) == "" {
		return nil, true
	}
	return h.actor(c, "")
}

// clampPagination reads page and page_size from the query string.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.PageWindow(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

func pagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// notModified sets a weak ETag built from (kind, scope, count, latest) and
// reports whether the client's If-None-Match already matches it.
func notModified(c *gin.Context, kind, scope string, count int64, latest *time.Time) bool {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
	c.Header("ETag", etag)
	for _, candidate := range strings.Split(c.GetHeader("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == etag {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}
