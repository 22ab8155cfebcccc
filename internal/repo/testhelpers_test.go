package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

// newTestDB opens a migrated, seeded SQLite database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "repo_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := SeedOffices(context.Background(), db); err != nil {
		t.Fatalf("seed offices: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string, role domain.Role, office string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, CI: "ci-" + id, Username: "user-" + id, PasswordHash: "x", Role: role, OfficeID: office}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func seedMemo(t *testing.T, db *gorm.DB, name string, offices ...string) *domain.Memo {
	t.Helper()
	m := &domain.Memo{Name: name, Status: domain.MemoPending, InstructionStatus: domain.InstructionPending, Urgency: domain.UrgencyMedium}
	if err := CreateMemo(context.Background(), db, m, offices); err != nil {
		t.Fatalf("seed memo %s: %v", name, err)
	}
	return m
}

func seedForum(t *testing.T, db *gorm.DB, memoID string) *domain.Forum {
	t.Helper()
	f := &domain.Forum{Title: "forum " + memoID, MemoID: memoID}
	if err := CreateForum(context.Background(), db, f); err != nil {
		t.Fatalf("seed forum: %v", err)
	}
	return f
}

// at is a fixed UTC instant offset by d, for deterministic ordering tests.
func at(d time.Duration) time.Time {
	return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC).Add(d)
}
