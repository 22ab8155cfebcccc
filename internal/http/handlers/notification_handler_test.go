package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
)

func (e *env) notify(userID, msg string) *domain.Notification {
	e.t.Helper()
	n := &domain.Notification{UserID: userID, Message: msg}
	if err := repo.CreateNotification(context.Background(), e.db, n); err != nil {
		e.t.Fatalf("seed notification: %v", err)
	}
	return n
}

func TestNotifications_InboxFlow(t *testing.T) {
	e := newEnv(t)
	u := e.user("u", domain.RoleUser, "103")
	other := e.user("other", domain.RoleUser, "103")
	tok := e.token(u)

	first := e.notify(u.ID, "uno")
	second := e.notify(u.ID, "dos")
	e.notify(other.ID, "ajena")

	w := e.do(http.MethodGet, "/notifications", nil, bearer(tok))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if list := decode[[]domain.Notification](t, w); len(list) != 2 {
		t.Fatalf("len=%d", len(list))
	}

	w = e.do(http.MethodGet, "/notifications/unread-count", nil, bearer(tok))
	if got := decode[UnreadCountResponse](t, w); got.Unread != 2 {
		t.Fatalf("unread=%d", got.Unread)
	}

	w = e.do(http.MethodPatch, "/notifications/"+first.ID+"/read", nil, bearer(tok))
	if w.Code != http.StatusOK || !decode[domain.Notification](t, w).Read {
		t.Fatalf("mark read: %d %s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodGet, "/notifications/unread-count", nil, bearer(tok))
	if got := decode[UnreadCountResponse](t, w); got.Unread != 1 {
		t.Fatalf("unread after read=%d", got.Unread)
	}

	w = e.do(http.MethodDelete, "/notifications/"+second.ID, nil, bearer(tok))
	if w.Code != http.StatusOK || !decode[domain.Notification](t, w).Deleted {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodGet, "/notifications", nil, bearer(tok))
	if list := decode[[]domain.Notification](t, w); len(list) != 1 || list[0].ID != first.ID {
		t.Fatalf("after delete: %+v", list)
	}
	expectError(t, e.do(http.MethodDelete, "/notifications/"+second.ID, nil, bearer(tok)), http.StatusNotFound, ErrCodeNotFound)
}

func TestNotifications_OtherUserIsForbidden(t *testing.T) {
	e := newEnv(t)
	owner := e.user("owner", domain.RoleUser, "103")
	intruder := e.user("intruder", domain.RoleAdmin, "100")
	n := e.notify(owner.ID, "privada")

	expectError(t, e.do(http.MethodPatch, "/notifications/"+n.ID+"/read", nil, bearer(e.token(intruder))), http.StatusForbidden, ErrCodeForbidden)
	expectError(t, e.do(http.MethodDelete, "/notifications/"+n.ID, nil, bearer(e.token(intruder))), http.StatusForbidden, ErrCodeForbidden)
	expectError(t, e.do(http.MethodPatch, "/notifications/missing/read", nil, bearer(e.token(owner))), http.StatusNotFound, ErrCodeNotFound)

	// anonymous callers name themselves through the query string
	w := e.do(http.MethodGet, "/notifications/unread-count?user_id="+owner.ID, nil)
	if got := decode[UnreadCountResponse](t, w); got.Unread != 1 {
		t.Fatalf("unread=%d", got.Unread)
	}
	expectError(t, e.do(http.MethodGet, "/notifications", nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestListNotifications_ETag(t *testing.T) {
	e := newEnv(t)
	u := e.user("u", domain.RoleUser, "103")
	tok := e.token(u)
	e.notify(u.ID, "uno")

	w := e.do(http.MethodGet, "/notifications", nil, bearer(tok))
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	w = e.do(http.MethodGet, "/notifications", nil, bearer(tok), header("If-None-Match", etag))
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	e.notify(u.ID, "dos")
	w = e.do(http.MethodGet, "/notifications", nil, bearer(tok), header("If-None-Match", etag))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after new notification, got %d", w.Code)
	}
}
