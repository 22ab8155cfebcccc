package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

func TestCreateForum_UniquePerMemo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMemo(t, db, "Solicitud", "105")

	f := seedForum(t, db, m.ID)
	if f.Status != domain.ForumOpen {
		t.Fatalf("default status = %q", f.Status)
	}

	second := &domain.Forum{Title: "again", MemoID: m.ID}
	if err := CreateForum(ctx, db, second); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	byMemo, err := GetForumByMemo(ctx, db, m.ID)
	if err != nil || byMemo.ID != f.ID {
		t.Fatalf("GetForumByMemo = %+v, %v", byMemo, err)
	}
	if _, err := GetForumByMemo(ctx, db, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateForumStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	f := seedForum(t, db, seedMemo(t, db, "S", "105").ID)

	if err := UpdateForumStatus(ctx, db, f.ID, domain.ForumClosed); err != nil {
		t.Fatalf("UpdateForumStatus: %v", err)
	}
	got, err := GetForum(ctx, db, f.ID)
	if err != nil || got.Status != domain.ForumClosed {
		t.Fatalf("after update = %+v, %v", got, err)
	}
	if err := UpdateForumStatus(ctx, db, "missing", domain.ForumOpen); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessages_OrderCountAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", domain.RoleUser, "105")
	f := seedForum(t, db, seedMemo(t, db, "S", "105").ID)

	if ts, err := LastMessageAt(ctx, db, f.ID); err != nil || ts != nil {
		t.Fatalf("empty forum LastMessageAt = %v, %v", ts, err)
	}

	// Rows are inserted directly so timestamps are controlled.
	rows := []domain.Message{
		{ID: "b", ForumID: f.ID, UserID: "u1", Content: "second", CreatedAt: at(0)},
		{ID: "a", ForumID: f.ID, UserID: "u1", Content: "first", CreatedAt: at(0)},
		{ID: "c", ForumID: f.ID, UserID: "u1", Content: "third", CreatedAt: at(1e9)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("insert messages: %v", err)
	}

	list, err := ListMessages(ctx, db, f.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(list) != 3 || list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", list)
	}

	n, err := CountMessages(ctx, db, f.ID)
	if err != nil || n != 3 {
		t.Fatalf("CountMessages = %d, %v", n, err)
	}
	last, err := LastMessageAt(ctx, db, f.ID)
	if err != nil || last == nil || !last.Equal(at(1e9)) {
		t.Fatalf("LastMessageAt = %v, %v", last, err)
	}

	if _, err := GetMessage(ctx, db, "other-forum", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("message must be scoped to its forum, got %v", err)
	}
	if err := DeleteMessage(ctx, db, "a"); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if err := DeleteMessage(ctx, db, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestCreateMessage_AssignsIDAndTimestamps(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedUser(t, db, "u1", domain.RoleUser, "105")
	f := seedForum(t, db, seedMemo(t, db, "S", "105").ID)

	url, name := "/uploads/messages/x.pdf", "x.pdf"
	m := &domain.Message{ForumID: f.ID, UserID: "u1", FileURL: &url, FileName: &name}
	if err := CreateMessage(ctx, db, m); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	got, err := GetMessage(ctx, db, f.ID, m.ID)
	if err != nil || got.FileURL == nil || *got.FileURL != url || got.Content != "" {
		t.Fatalf("roundtrip = %+v, %v", got, err)
	}
}
