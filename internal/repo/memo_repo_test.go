package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

func TestCreateMemo_WithOffices(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := seedMemo(t, db, "Solicitud", "106", "105")
	if m.ID == "" || m.CreatedAt.IsZero() {
		t.Fatalf("id/timestamps not assigned: %+v", m)
	}

	got, err := GetMemo(ctx, db, m.ID)
	if err != nil {
		t.Fatalf("GetMemo: %v", err)
	}
	ids := got.OfficeIDs()
	if len(ids) != 2 || ids[0] != "105" || ids[1] != "106" {
		t.Fatalf("offices = %v", ids)
	}
	if got.Status != domain.MemoPending || got.InstructionStatus != domain.InstructionPending {
		t.Fatalf("unexpected statuses: %+v", got)
	}
}

func TestReplaceMemoOffices_Wholesale(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMemo(t, db, "Solicitud", "105", "106")

	if err := ReplaceMemoOffices(ctx, db, m.ID, []string{"107"}); err != nil {
		t.Fatalf("ReplaceMemoOffices: %v", err)
	}
	ids, err := MemoOfficeIDs(ctx, db, m.ID)
	if err != nil || len(ids) != 1 || ids[0] != "107" {
		t.Fatalf("after replace = %v, %v", ids, err)
	}
}

func TestUpdateMemoStatusAndInstruction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := seedMemo(t, db, "Solicitud", "105")

	if err := UpdateMemoStatus(ctx, db, m.ID, domain.MemoCompleted); err != nil {
		t.Fatalf("UpdateMemoStatus: %v", err)
	}
	if err := UpdateMemoInstruction(ctx, db, m.ID, "Atender"); err != nil {
		t.Fatalf("UpdateMemoInstruction: %v", err)
	}
	got, _ := GetMemo(ctx, db, m.ID)
	if got.Status != domain.MemoCompleted || got.Instruction != "Atender" || got.InstructionStatus != domain.InstructionAssigned {
		t.Fatalf("unexpected memo: %+v", got)
	}

	if err := UpdateMemoStatus(ctx, db, "missing", domain.MemoArchived); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := UpdateMemoInstruction(ctx, db, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMemosPage_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedMemo(t, db, "A", "105")
	seedMemo(t, db, "B", "106")
	c := seedMemo(t, db, "C", "105", "106")
	if err := UpdateMemoStatus(ctx, db, c.ID, domain.MemoArchived); err != nil {
		t.Fatalf("status: %v", err)
	}

	total, err := CountMemos(ctx, db, MemoFilter{OfficeID: "105"})
	if err != nil || total != 2 {
		t.Fatalf("CountMemos(105) = %d, %v", total, err)
	}
	items, err := ListMemosPage(ctx, db, MemoFilter{OfficeID: "105", Status: domain.MemoPending}, 0, 10)
	if err != nil || len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("filtered list = %+v, %v", items, err)
	}
	if len(items[0].Offices) != 1 {
		t.Fatalf("offices not preloaded: %+v", items[0])
	}

	all, err := ListMemosPage(ctx, db, MemoFilter{}, 0, 2)
	if err != nil || len(all) != 2 {
		t.Fatalf("page of 2 = %d, %v", len(all), err)
	}
}
