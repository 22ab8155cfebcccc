package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

// ---------- database ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc_test.db"))
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
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, role domain.Role, office string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, CI: "ci-" + id, Username: "user-" + id, PasswordHash: "x", Role: role, OfficeID: office}
	if err := repo.CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	loaded, err := repo.GetUser(context.Background(), db, id)
	if err != nil {
		t.Fatalf("reload user %s: %v", id, err)
	}
	return loaded
}

func seedMemo(t *testing.T, db *gorm.DB, name string, offices ...string) *domain.Memo {
	t.Helper()
	m := &domain.Memo{
		Name:              name,
		Status:            domain.MemoPending,
		InstructionStatus: domain.InstructionPending,
		Urgency:           domain.UrgencyMedium,
		ReceptionImages:   []string{},
		Attachments:       []string{},
	}
	if err := repo.CreateMemo(context.Background(), db, m, offices); err != nil {
		t.Fatalf("seed memo %s: %v", name, err)
	}
	return m
}

func seedForum(t *testing.T, db *gorm.DB, memoID string) *domain.Forum {
	t.Helper()
	f := &domain.Forum{Title: "forum " + memoID, MemoID: memoID}
	if err := repo.CreateForum(context.Background(), db, f); err != nil {
		t.Fatalf("seed forum: %v", err)
	}
	return f
}

func notificationsFor(t *testing.T, db *gorm.DB, userID string) []domain.Notification {
	t.Helper()
	var out []domain.Notification
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return out
}

func countNotifications(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Notification{}).Count(&n).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return n
}

// newAnnouncer wires the real resolver and a sequential dispatcher.
func newAnnouncer(db *gorm.DB) *Announcer {
	return &Announcer{
		Recipients: &RecipientResolver{DB: db, Policy: authz.DefaultOfficePolicy},
		Dispatcher: &NotificationService{DB: db},
	}
}

func newEvaluator() *authz.Evaluator { return authz.New(authz.DefaultOfficePolicy) }

func newStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func upload(name string, data []byte) storage.Upload {
	return storage.Upload{Name: name, Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}}
}

// ---------- fakes ----------

// recordingDispatcher captures Dispatch calls without touching storage.
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

type dispatchCall struct {
	recipients []domain.User
	message    string
	forumID    string
	memoID     string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, recipients []domain.User, message, forumID, memoID string) ([]domain.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{recipients, message, forumID, memoID})
	out := make([]domain.Notification, 0, len(recipients))
	for _, u := range recipients {
		out = append(out, domain.Notification{UserID: u.ID, Message: message})
	}
	return out, d.err
}

func ids(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
