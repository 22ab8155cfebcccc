package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

func newMemoService(t *testing.T) (*MemoService, *recordingDispatcher) {
	t.Helper()
	db := newTestDB(t)
	d := &recordingDispatcher{}
	return &MemoService{
		DB:    db,
		Authz: newEvaluator(),
		Announcer: &Announcer{
			Recipients: &RecipientResolver{DB: db, Policy: newEvaluator().Policy},
			Dispatcher: d,
		},
		Blobs: newStore(t),
	}, d
}

func TestMemoCreate(t *testing.T) {
	s, d := newMemoService(t)
	ctx := context.Background()
	clerk := seedUser(t, s.DB, "clerk", domain.RoleUser, "108")
	seedUser(t, s.DB, "r1", domain.RoleUser, "103")

	if _, err := s.Create(ctx, clerk, MemoInput{Name: "x"}); !errors.Is(err, ErrNoOffices) {
		t.Fatalf("no offices: %v", err)
	}
	if _, err := s.Create(ctx, clerk, MemoInput{Name: "x", OfficeIDs: []string{"999"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown office: %v", err)
	}
	if _, err := s.Create(ctx, clerk, MemoInput{Name: " ", OfficeIDs: []string{"103"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: %v", err)
	}
	if _, err := s.Create(ctx, clerk, MemoInput{Name: "x", Urgency: "asap", OfficeIDs: []string{"103"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad urgency: %v", err)
	}
	if len(d.calls) != 0 {
		t.Fatalf("failed creates must not notify")
	}

	when := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	m, err := s.Create(ctx, clerk, MemoInput{
		Name:            "Solicitud de informe",
		Applicant:       "Ministerio",
		Urgency:         "high",
		ReceptionDate:   &when,
		OfficeIDs:       []string{"103", "104", "103"},
		ReceptionImages: []storage.Upload{upload("scan.pdf", pdfBytes)},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Status != domain.MemoPending || m.InstructionStatus != domain.InstructionPending || m.Urgency != domain.UrgencyHigh {
		t.Fatalf("unexpected defaults: %+v", m)
	}
	if !reflect.DeepEqual(m.OfficeIDs(), []string{"103", "104"}) {
		t.Fatalf("offices = %v", m.OfficeIDs())
	}
	if len(m.ReceptionImages) != 1 || !strings.HasPrefix(m.ReceptionImages[0], "/uploads/memos/") || len(m.Attachments) != 0 {
		t.Fatalf("files = %v / %v", m.ReceptionImages, m.Attachments)
	}
	if len(d.calls) != 1 || d.calls[0].memoID != m.ID || d.calls[0].forumID != "" {
		t.Fatalf("dispatch = %+v", d.calls)
	}
	if got := ids(d.calls[0].recipients); !reflect.DeepEqual(got, []string{"r1"}) {
		t.Fatalf("recipients = %v", got)
	}
}

func TestMemoCreate_RejectedUploadStoresNothing(t *testing.T) {
	s, _ := newMemoService(t)
	clerk := seedUser(t, s.DB, "clerk", domain.RoleUser, "108")

	_, err := s.Create(context.Background(), clerk, MemoInput{
		Name:        "x",
		OfficeIDs:   []string{"103"},
		Attachments: []storage.Upload{upload("ok.pdf", pdfBytes), upload("empty.pdf", nil)},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var n int64
	s.DB.Model(&domain.Memo{}).Count(&n)
	if n != 0 {
		t.Fatalf("memo persisted despite upload failure")
	}
}

func TestMemoUpdateStatus_Scenarios(t *testing.T) {
	s, _ := newMemoService(t)
	ctx := context.Background()
	m := seedMemo(t, s.DB, "M1", "103")
	outsider := seedUser(t, s.DB, "o", domain.RoleUser, "105")
	follow := seedUser(t, s.DB, "f", domain.RoleUser, "110")
	admin := seedUser(t, s.DB, "a", domain.RoleAdmin, "105")

	if _, err := s.UpdateStatus(ctx, outsider, m.ID, "COMPLETED"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("office 105 user: %v", err)
	}
	got, _ := s.Get(ctx, m.ID)
	if got.Status != domain.MemoPending {
		t.Fatalf("status changed by forbidden user")
	}

	updated, err := s.UpdateStatus(ctx, follow, m.ID, "COMPLETED")
	if err != nil || updated.Status != domain.MemoCompleted {
		t.Fatalf("office 110 user: %+v %v", updated, err)
	}
	if _, err := s.UpdateStatus(ctx, admin, m.ID, "ARCHIVED"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, admin, m.ID, "DONE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid status: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, nil, m.ID, "COMPLETED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing user: %v", err)
	}
	if _, err := s.UpdateStatus(ctx, admin, "missing", "COMPLETED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing memo: %v", err)
	}
}

func TestMemoAssignInstruction(t *testing.T) {
	s, d := newMemoService(t)
	ctx := context.Background()
	m := seedMemo(t, s.DB, "M1", "103")
	vp := seedUser(t, s.DB, "vp", domain.RoleUser, "101")
	clerk := seedUser(t, s.DB, "c", domain.RoleUser, "105")

	got, err := s.AssignInstruction(ctx, clerk, m.ID, "Responder", []string{"106"})
	if err != nil {
		t.Fatalf("clerk instruction: %v", err)
	}
	if got.Instruction != "Responder" || got.InstructionStatus != domain.InstructionAssigned {
		t.Fatalf("instruction not stored: %+v", got)
	}
	if !reflect.DeepEqual(got.OfficeIDs(), []string{"103"}) {
		t.Fatalf("clerk must not re-route, offices = %v", got.OfficeIDs())
	}

	got, err = s.AssignInstruction(ctx, vp, m.ID, "Atender", []string{"106", "107"})
	if err != nil {
		t.Fatalf("vp instruction: %v", err)
	}
	if !reflect.DeepEqual(got.OfficeIDs(), []string{"106", "107"}) {
		t.Fatalf("offices not replaced: %v", got.OfficeIDs())
	}

	if _, err := s.AssignInstruction(ctx, vp, m.ID, "x", []string{"999"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown office: %v", err)
	}
	if _, err := s.AssignInstruction(ctx, vp, m.ID, " ", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank instruction: %v", err)
	}
	if _, err := s.AssignInstruction(ctx, vp, "missing", "x", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing memo: %v", err)
	}

	if len(d.calls) != 2 {
		t.Fatalf("dispatches = %d", len(d.calls))
	}
	if d.calls[1].memoID != m.ID || !strings.Contains(d.calls[1].message, "Atender") {
		t.Fatalf("unexpected dispatch %+v", d.calls[1])
	}
}

func TestMemoList_FiltersAndPaging(t *testing.T) {
	s, _ := newMemoService(t)
	ctx := context.Background()
	a := seedMemo(t, s.DB, "A", "103")
	time.Sleep(2 * time.Millisecond)
	seedMemo(t, s.DB, "B", "104")
	time.Sleep(2 * time.Millisecond)
	c := seedMemo(t, s.DB, "C", "103", "104")

	items, total, err := s.List(ctx, "", "", 1, 2)
	if err != nil || total != 3 || len(items) != 2 || items[0].ID != c.ID {
		t.Fatalf("page 1: %d %d %v", total, len(items), err)
	}

	items, total, err = s.List(ctx, "", "103", 1, 10)
	if err != nil || total != 2 || items[0].ID != c.ID || items[1].ID != a.ID {
		t.Fatalf("office filter: total=%d err=%v", total, err)
	}
	if len(items[0].Offices) != 2 {
		t.Fatalf("offices not preloaded")
	}

	items, total, err = s.List(ctx, "completed", "", 1, 10)
	if err != nil || total != 0 || items == nil {
		t.Fatalf("status filter: %v %d %v", items, total, err)
	}
	if _, _, err := s.List(ctx, "bogus", "", 1, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid status filter: %v", err)
	}
}
