// Package services – AccountService
//
// AccountService registers users, checks credentials, issues bearer tokens
// and resolves the acting user of a request. Role and office always come
// from storage; nothing the client sends about them is trusted.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/auth"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	CI        string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      string
	OfficeID  string
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// AccountService manages users and credentials.
type AccountService struct {
	DB     *gorm.DB
	Tokens *auth.TokenManager

	// NameLocale drives capitalization of first and last names.
	NameLocale language.Tag
}

// Register creates an account. actor is the requesting user; granting the
// ADMIN role requires an ADMIN actor unless trusted is set (CLI use).
func (s *AccountService) Register(ctx context.Context, actor *domain.User, in RegisterInput, trusted bool) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(
			attribute.String("username", in.Username),
			attribute.String("office.id", in.OfficeID),
		),
	)
	defer span.End()

	u := &domain.User{
		CI:        strings.TrimSpace(in.CI),
		Username:  strings.ToLower(strings.TrimSpace(in.Username)),
		FirstName: s.properName(in.FirstName),
		LastName:  s.properName(in.LastName),
		OfficeID:  strings.TrimSpace(in.OfficeID),
		Role:      domain.RoleUser,
	}
	if err := missing(
		field{"ci", u.CI == ""},
		field{"username", u.Username == ""},
		field{"password", in.Password == ""},
		field{"office_id", u.OfficeID == ""},
	); err != nil {
		return nil, err
	}
	if err := auth.ValidPassword(in.Password); err != nil {
		return nil, validationf("%v", err)
	}
	if strings.TrimSpace(in.Role) != "" {
		role, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, validationf("invalid role %q", in.Role)
		}
		if role == domain.RoleAdmin && !trusted && !actor.IsAdmin() {
			return nil, ErrForbiddenRole
		}
		u.Role = role
	}

	if _, err := repo.GetOffice(ctx, s.DB, u.OfficeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, validationf("unknown office %q", u.OfficeID)
		}
		return nil, err
	}
	exists, err := repo.UserExists(ctx, s.DB, u.CI, u.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return repo.GetUser(ctx, s.DB, u.ID)
}

// Login checks credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Session, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Login", trace.WithAttributes(attribute.String("username", username)))
	defer span.End()

	u, err := repo.GetUserByUsername(ctx, s.DB, strings.ToLower(strings.TrimSpace(username)))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	tok, exp, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: exp, User: u}, nil
}

// Verify decodes a bearer token.
func (s *AccountService) Verify(raw string) (*auth.Claims, error) {
	if s.Tokens == nil {
		return nil, ErrInvalidToken
	}
	c, err := s.Tokens.Verify(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// Get returns user id with its office.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.User, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Actor resolves the acting user of a request from the authenticated id
// and the id claimed in the payload. They must agree when both are present.
func (s *AccountService) Actor(ctx context.Context, authenticatedID, claimedID string) (*domain.User, error) {
	authenticatedID = strings.TrimSpace(authenticatedID)
	claimedID = strings.TrimSpace(claimedID)

	id := authenticatedID
	switch {
	case id != "" && claimedID != "" && claimedID != id:
		return nil, ErrActorMismatch
	case id == "":
		id = claimedID
	}
	if id == "" {
		return nil, ErrMissingUser
	}
	return s.Get(ctx, id)
}

func (s *AccountService) properName(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return ""
	}
	tag := s.NameLocale
	if tag == language.Und {
		tag = language.Spanish
	}
	return cases.Title(tag).String(strings.ToLower(v))
}

// OfficeService exposes the office catalog.
type OfficeService struct {
	DB *gorm.DB
}

// List returns every office ordered by name.
func (s *OfficeService) List(ctx context.Context) ([]domain.Office, error) {
	tr := otel.Tracer("services/OfficeService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	out, err := repo.ListOffices(ctx, s.DB)
	if out == nil && err == nil {
		out = []domain.Office{}
	}
	return out, err
}

// Get returns office id.
func (s *OfficeService) Get(ctx context.Context, id string) (*domain.Office, error) {
	tr := otel.Tracer("services/OfficeService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("office.id", id)))
	defer span.End()

	o, err := repo.GetOffice(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOfficeNotFound
	}
	return o, err
}
