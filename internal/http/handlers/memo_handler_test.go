package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

func TestCreateMemo_JSONNotifiesOffices(t *testing.T) {
	e := newEnv(t)
	clerk := e.user("clerk", domain.RoleUser, "108")
	legal := e.user("legal", domain.RoleUser, "103")
	other := e.user("other", domain.RoleUser, "105")

	w := e.do(http.MethodPost, "/memos", gin.H{
		"name":             "Solicitud de información",
		"applicant":        "Ministerio",
		"urgency":          "HIGH",
		"response_require": true,
		"reception_date":   "2024-05-13",
		"officeIds":        []string{"103", "103"},
	}, bearer(e.token(clerk)))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decode[domain.Memo](t, w)
	if m.Status != domain.MemoPending || m.Urgency != domain.UrgencyHigh || !m.ResponseRequire || len(m.Offices) != 1 || m.Offices[0].ID != "103" {
		t.Fatalf("unexpected memo: %+v", m)
	}
	if m.ReceptionDate == nil || m.ReceptionDate.Format("2006-01-02") != "2024-05-13" {
		t.Fatalf("reception date: %v", m.ReceptionDate)
	}
	if n := e.notificationsFor(legal.ID); len(n) != 1 || n[0].MemoID == nil || *n[0].MemoID != m.ID {
		t.Fatalf("legal notifications: %+v", n)
	}
	if n := e.notificationsFor(other.ID); len(n) != 0 {
		t.Fatalf("unrelated office notified: %+v", n)
	}
}

func TestCreateMemo_Validation(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.user("clerk", domain.RoleUser, "108"))

	cases := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"officeIds": []string{"103"}}},
		{"no offices", gin.H{"name": "x", "officeIds": []string{}}},
		{"unknown office", gin.H{"name": "x", "officeIds": []string{"999"}}},
		{"bad urgency", gin.H{"name": "x", "urgency": "NOW", "officeIds": []string{"103"}}},
		{"bad date", gin.H{"name": "x", "reception_date": "13/05/2024", "officeIds": []string{"103"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, e.do(http.MethodPost, "/memos", tc.body, bearer(tok)), http.StatusBadRequest, ErrCodeBadRequest)
		})
	}
}

func TestCreateMemo_MultipartWithFiles(t *testing.T) {
	e := newEnv(t)
	clerk := e.user("clerk", domain.RoleUser, "108")

	w := e.doMultipart("/memos",
		map[string][]string{
			"name":      {"Oficio escaneado"},
			"officeIds": {`["103","110"]`},
			"urgency":   {"LOW"},
		},
		[]filePart{
			{field: "receptionImages", name: "scan.pdf", data: pdfBytes},
			{field: "attachments", name: "anexo.pdf", data: pdfBytes},
		},
		bearer(e.token(clerk)))
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	m := decode[domain.Memo](t, w)
	if len(m.ReceptionImages) != 1 || len(m.Attachments) != 1 || !strings.HasPrefix(m.ReceptionImages[0], "/uploads/memos/") {
		t.Fatalf("files: %+v %+v", m.ReceptionImages, m.Attachments)
	}
	if len(m.Offices) != 2 {
		t.Fatalf("offices: %+v", m.Offices)
	}

	w = e.doMultipart("/memos",
		map[string][]string{"name": {"x"}, "officeIds": {"103", "104"}},
		nil, bearer(e.token(clerk)))
	if w.Code != http.StatusCreated || len(decode[domain.Memo](t, w).Offices) != 2 {
		t.Fatalf("repeated officeIds: %d %s", w.Code, w.Body.String())
	}

	w = e.doMultipart("/memos",
		map[string][]string{"name": {"x"}, "officeIds": {`["103"`}},
		nil, bearer(e.token(clerk)))
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestListAndGetMemos(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		e.memo("legal", "103")
	}
	archived := e.memo("planning", "104")
	e.db.Model(&domain.Memo{}).Where("id = ?", archived.ID).Update("status", domain.MemoArchived)

	w := e.do(http.MethodGet, "/memos?page=1&page_size=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	page := decode[ListMemosResponse](t, w)
	if len(page.Memos) != 2 || page.Pagination.Total != 4 || page.Pagination.TotalPages != 2 || !page.Pagination.HasNext {
		t.Fatalf("page: %+v", page.Pagination)
	}

	w = e.do(http.MethodGet, "/memos?office_id=104", nil)
	if got := decode[ListMemosResponse](t, w); got.Pagination.Total != 1 || got.Memos[0].ID != archived.ID {
		t.Fatalf("office filter: %+v", got)
	}
	w = e.do(http.MethodGet, "/memos?status=ARCHIVED", nil)
	if got := decode[ListMemosResponse](t, w); got.Pagination.Total != 1 {
		t.Fatalf("status filter: %+v", got.Pagination)
	}
	expectError(t, e.do(http.MethodGet, "/memos?status=LOST", nil), http.StatusBadRequest, ErrCodeInvalidStatus)

	w = e.do(http.MethodGet, "/memos/"+archived.ID, nil)
	if w.Code != http.StatusOK || decode[domain.Memo](t, w).Name != "planning" {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	expectError(t, e.do(http.MethodGet, "/memos/missing", nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestUpdateMemoStatus_Scenarios(t *testing.T) {
	e := newEnv(t)
	m1 := e.memo("M1", "103")
	unrelated := e.user("u105", domain.RoleUser, "105")
	follow := e.user("u110", domain.RoleUser, "110")

	t.Run("user outside follow-up office is forbidden", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/memos/"+m1.ID+"/status", gin.H{
			"status": "COMPLETED",
			"user":   gin.H{"id": unrelated.ID, "role": "ADMIN", "office_id": "110"},
		})
		expectError(t, w, http.StatusForbidden, ErrCodeForbidden)
	})
	t.Run("follow-up office user completes", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/memos/"+m1.ID+"/status", gin.H{"status": "COMPLETED", "user": gin.H{"id": follow.ID}})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if got := decode[domain.Memo](t, w); got.Status != domain.MemoCompleted {
			t.Fatalf("memo status=%s", got.Status)
		}
	})
	t.Run("token user", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/memos/"+m1.ID+"/status", gin.H{"status": "ARCHIVED"}, bearer(e.token(follow)))
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	})
	t.Run("missing user", func(t *testing.T) {
		expectError(t, e.do(http.MethodPatch, "/memos/"+m1.ID+"/status", gin.H{"status": "COMPLETED"}), http.StatusBadRequest, ErrCodeBadRequest)
	})
	t.Run("invalid status", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/memos/"+m1.ID+"/status", gin.H{"status": "DONE", "user_id": follow.ID})
		expectError(t, w, http.StatusBadRequest, ErrCodeInvalidStatus)
	})
	t.Run("unknown memo", func(t *testing.T) {
		w := e.do(http.MethodPatch, "/memos/missing/status", gin.H{"status": "COMPLETED", "user_id": follow.ID})
		expectError(t, w, http.StatusNotFound, ErrCodeNotFound)
	})
}

func TestAssignInstruction(t *testing.T) {
	e := newEnv(t)
	m := e.memo("Oficio", "103")
	vp := e.user("vp", domain.RoleUser, "101")
	clerk := e.user("clerk", domain.RoleUser, "108")
	planner := e.user("planner", domain.RoleUser, "104")

	w := e.do(http.MethodPatch, "/memos/"+m.ID+"/instruction", gin.H{
		"instruction": "Coordinar respuesta",
		"officeIds":   []string{"104"},
	}, bearer(e.token(clerk)))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got := decode[domain.Memo](t, w)
	if got.Instruction != "Coordinar respuesta" || got.InstructionStatus != domain.InstructionAssigned || len(got.Offices) != 1 || got.Offices[0].ID != "103" {
		t.Fatalf("clerk must not reroute: %+v", got)
	}

	w = e.do(http.MethodPatch, "/memos/"+m.ID+"/instruction", gin.H{
		"instruction": "Responder",
		"officeIds":   []string{"104"},
		"user":        gin.H{"id": vp.ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	got = decode[domain.Memo](t, w)
	if len(got.Offices) != 1 || got.Offices[0].ID != "104" {
		t.Fatalf("vice-presidency reroute: %+v", got.Offices)
	}
	if n := e.notificationsFor(planner.ID); len(n) != 1 || !strings.Contains(n[0].Message, "Responder") {
		t.Fatalf("planner notifications: %+v", n)
	}

	expectError(t, e.do(http.MethodPatch, "/memos/"+m.ID+"/instruction", gin.H{"user_id": vp.ID}), http.StatusBadRequest, ErrCodeBadRequest)
}
