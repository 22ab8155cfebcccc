package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ofitrack/ofitrack-backend/internal/auth"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
)

func newAccountService(t *testing.T) *AccountService {
	t.Helper()
	return &AccountService{DB: newTestDB(t), Tokens: auth.NewTokenManager("test-secret", time.Hour, "test")}
}

func TestRegisterLoginVerify(t *testing.T) {
	s := newAccountService(t)
	ctx := context.Background()

	u, err := s.Register(ctx, nil, RegisterInput{
		CI: "V-123", Username: " Ana ", Password: "supersecret",
		FirstName: "maría  JOSÉ", LastName: "pérez", OfficeID: "103",
	}, false)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "ana" || u.Role != domain.RoleUser || u.FirstName != "María José" || u.LastName != "Pérez" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Office == nil || u.Office.ID != "103" || u.PasswordHash == "supersecret" {
		t.Fatalf("office not loaded or password stored in clear")
	}

	if _, err := s.Login(ctx, "ana", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("bad password: %v", err)
	}
	if _, err := s.Login(ctx, "nobody", "supersecret"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown user: %v", err)
	}
	sess, err := s.Login(ctx, "ANA", "supersecret")
	if err != nil || sess.Token == "" || sess.User.ID != u.ID {
		t.Fatalf("Login: %+v %v", sess, err)
	}

	claims, err := s.Verify(sess.Token)
	if err != nil || claims.UserID != u.ID || claims.Role != "USER" {
		t.Fatalf("Verify: %+v %v", claims, err)
	}
	if _, err := s.Verify("garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token: %v", err)
	}
}

func TestRegister_Rules(t *testing.T) {
	s := newAccountService(t)
	ctx := context.Background()
	base := RegisterInput{CI: "1", Username: "u1", Password: "longenough", OfficeID: "103"}

	short := base
	short.Password = "short"
	if _, err := s.Register(ctx, nil, short, false); !errors.Is(err, ErrValidation) {
		t.Fatalf("short password: %v", err)
	}
	badOffice := base
	badOffice.OfficeID = "999"
	if _, err := s.Register(ctx, nil, badOffice, false); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown office: %v", err)
	}
	admin := base
	admin.Role = "admin"
	if _, err := s.Register(ctx, nil, admin, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("self-granted admin: %v", err)
	}
	created, err := s.Register(ctx, nil, admin, true)
	if err != nil || created.Role != domain.RoleAdmin {
		t.Fatalf("trusted admin: %+v %v", created, err)
	}

	second := RegisterInput{CI: "2", Username: "u2", Password: "longenough", OfficeID: "103", Role: "ADMIN"}
	if _, err := s.Register(ctx, created, second, false); err != nil {
		t.Fatalf("admin granting admin: %v", err)
	}
	dup := base
	dup.Username = "other"
	if _, err := s.Register(ctx, nil, dup, false); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate ci: %v", err)
	}
}

func TestActor(t *testing.T) {
	s := newAccountService(t)
	ctx := context.Background()
	seedUser(t, s.DB, "u1", domain.RoleUser, "110")

	if _, err := s.Actor(ctx, "", ""); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("no ids: %v", err)
	}
	if _, err := s.Actor(ctx, "u1", "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("mismatch: %v", err)
	}
	if _, err := s.Actor(ctx, "", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown: %v", err)
	}
	for _, pair := range [][2]string{{"u1", ""}, {"", "u1"}, {"u1", "u1"}} {
		u, err := s.Actor(ctx, pair[0], pair[1])
		if err != nil || u.ID != "u1" || u.OfficeID != "110" {
			t.Fatalf("Actor%v: %+v %v", pair, u, err)
		}
	}
}

func TestOfficeService(t *testing.T) {
	s := &OfficeService{DB: newTestDB(t)}
	list, err := s.List(context.Background())
	if err != nil || len(list) != 17 {
		t.Fatalf("List: %d %v", len(list), err)
	}
	o, err := s.Get(context.Background(), "110")
	if err != nil || o.Abrev != "OSC" {
		t.Fatalf("Get: %+v %v", o, err)
	}
	if _, err := s.Get(context.Background(), "999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}
