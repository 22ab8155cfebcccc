package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ofitrack/ofitrack-backend/internal/auth"
	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/http/middleware"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

// env is a handler stack on a throwaway SQLite database with real services.
type env struct {
	t      *testing.T
	db     *gorm.DB
	tokens *auth.TokenManager
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := repo.OpenSQLite(filepath.Join(dir, "handlers_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SeedOffices(context.Background(), db); err != nil {
		t.Fatalf("seed offices: %v", err)
	}

	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	tokens := auth.NewTokenManager("handlers-test-secret-0123456789abcdef", time.Hour, "ofitrack-test")
	ev := authz.New(authz.DefaultOfficePolicy)
	notes := &services.NotificationService{DB: db}
	ann := &services.Announcer{
		Recipients: &services.RecipientResolver{DB: db, Policy: authz.DefaultOfficePolicy},
		Dispatcher: notes,
	}
	accounts := &services.AccountService{DB: db, Tokens: tokens}

	h := New(Services{
		Forums:        &services.ForumService{DB: db, Authz: ev, Announcer: ann},
		Messages:      &services.MessageService{DB: db, Authz: ev, Announcer: ann, Blobs: store},
		Memos:         &services.MemoService{DB: db, Authz: ev, Announcer: ann, Blobs: store},
		Notifications: notes,
		Documents:     &services.DocumentService{DB: db, Blobs: store},
		Accounts:      accounts,
		Offices:       &services.OfficeService{DB: db},
	}, Options{DB: db})

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Authenticate(accounts, false))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", h.Me)
	r.GET("/offices", h.ListOffices)
	r.GET("/offices/:id", h.GetOffice)

	r.POST("/forums", h.CreateForum)
	r.GET("/forums/check-existence/:memoId", h.CheckForumExistence)
	r.GET("/forums/:id", h.GetForum)
	r.PATCH("/forums/:id/status", h.UpdateForumStatus)
	r.POST("/forums/:id/messages", h.PostMessage)
	r.GET("/forums/:id/messages", h.ListMessages)
	r.DELETE("/forums/:id/messages/:messageId", h.DeleteMessage)

	r.POST("/memos", h.CreateMemo)
	r.GET("/memos", h.ListMemos)
	r.GET("/memos/:id", h.GetMemo)
	r.PATCH("/memos/:id/status", h.UpdateMemoStatus)
	r.PATCH("/memos/:id/instruction", h.AssignInstruction)

	r.GET("/notifications", h.ListNotifications)
	r.GET("/notifications/unread-count", h.UnreadNotifications)
	r.PATCH("/notifications/:id/read", h.MarkNotificationRead)
	r.DELETE("/notifications/:id", h.DeleteNotification)

	r.POST("/puntos-cuenta", h.CreatePuntoCuenta)
	r.GET("/puntos-cuenta", h.ListPuntosCuenta)
	r.GET("/puntos-cuenta/:id", h.GetPuntoCuenta)
	r.PATCH("/puntos-cuenta/:id/status", h.UpdatePuntoCuentaStatus)
	r.POST("/oficios-presidencia", h.CreateOficio)
	r.GET("/oficios-presidencia", h.ListOficios)
	r.GET("/oficios-presidencia/:id", h.GetOficio)
	r.PATCH("/oficios-presidencia/:id/status", h.UpdateOficioStatus)
	r.POST("/sent-memos", h.CreateSentMemo)
	r.GET("/sent-memos/all", h.ListSentMemos)
	r.GET("/sent-memos/verify/:id", h.VerifySentMemo)

	return &env{t: t, db: db, tokens: tokens, router: r}
}

// ---------- seeding ----------

func (e *env) user(id string, role domain.Role, office string) *domain.User {
	e.t.Helper()
	u := &domain.User{ID: id, CI: "ci-" + id, Username: "user-" + id, PasswordHash: "x", Role: role, OfficeID: office}
	if err := repo.CreateUser(context.Background(), e.db, u); err != nil {
		e.t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func (e *env) token(u *domain.User) string {
	e.t.Helper()
	tok, _, err := e.tokens.Issue(u)
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *env) memo(name string, offices ...string) *domain.Memo {
	e.t.Helper()
	m := &domain.Memo{
		Name:              name,
		Status:            domain.MemoPending,
		InstructionStatus: domain.InstructionPending,
		Urgency:           domain.UrgencyMedium,
		ReceptionImages:   []string{},
		Attachments:       []string{},
	}
	if err := repo.CreateMemo(context.Background(), e.db, m, offices); err != nil {
		e.t.Fatalf("seed memo: %v", err)
	}
	return m
}

func (e *env) forum(memoID string) *domain.Forum {
	e.t.Helper()
	f := &domain.Forum{Title: "forum", MemoID: memoID}
	if err := repo.CreateForum(context.Background(), e.db, f); err != nil {
		e.t.Fatalf("seed forum: %v", err)
	}
	return f
}

func (e *env) notificationsFor(userID string) []domain.Notification {
	e.t.Helper()
	var out []domain.Notification
	if err := e.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		e.t.Fatalf("load notifications: %v", err)
	}
	return out
}

// ---------- requests ----------

type reqOpt func(*http.Request)

func bearer(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func header(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (e *env) do(method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type filePart struct {
	field, name string
	data        []byte
}

func (e *env) doMultipart(path string, fields map[string][]string, files []filePart, opts ...reqOpt) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			e.t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(f.data)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code=%q want %q (body=%s)", er.Code, code, w.Body.String())
	}
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
