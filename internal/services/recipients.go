// Package services – RecipientResolver
//
// RecipientResolver computes who is notified for a memo event: everyone in
// the memo's offices plus the special users (ADMINs and members of the
// policy offices), deduplicated by user id, optionally minus one user.
package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/ofitrack/ofitrack-backend/internal/authz"
	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserDirectory is the user lookup contract required by RecipientResolver.
type UserDirectory interface {
	// ListUsersByOffices returns users whose office is one of officeIDs.
	ListUsersByOffices(ctx context.Context, db *gorm.DB, officeIDs []string) ([]domain.User, error)
	// ListSpecialUsers returns ADMINs and users whose office is one of officeIDs.
	ListSpecialUsers(ctx context.Context, db *gorm.DB, officeIDs []string) ([]domain.User, error)
}

type repoUsers struct{}

func (repoUsers) ListUsersByOffices(ctx context.Context, db *gorm.DB, ids []string) ([]domain.User, error) {
	return repo.ListUsersByOffices(ctx, db, ids)
}

func (repoUsers) ListSpecialUsers(ctx context.Context, db *gorm.DB, ids []string) ([]domain.User, error) {
	return repo.ListSpecialUsers(ctx, db, ids)
}

// RecipientResolver resolves notification recipients.
type RecipientResolver struct {
	DB     *gorm.DB
	Users  UserDirectory // nil means the repo package
	Policy authz.OfficePolicy
}

// Resolve returns the related users of officeIDs united with the special
// users, without excludeUserID. The result is sorted by user id.
func (r *RecipientResolver) Resolve(ctx context.Context, officeIDs []string, excludeUserID string) ([]domain.User, error) {
	tr := otel.Tracer("services/RecipientResolver")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.StringSlice("office.ids", officeIDs),
			attribute.String("exclude.user_id", excludeUserID),
		),
	)
	defer span.End()

	users := r.Users
	if users == nil {
		users = repoUsers{}
	}

	related, err := users.ListUsersByOffices(ctx, r.DB, officeIDs)
	if err != nil {
		return nil, err
	}
	special, err := users.ListSpecialUsers(ctx, r.DB, r.Policy.SpecialOffices())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]domain.User, len(related)+len(special))
	for _, set := range [][]domain.User{related, special} {
		for _, u := range set {
			if u.ID == "" || u.ID == excludeUserID {
				continue
			}
			if _, dup := seen[u.ID]; !dup {
				seen[u.ID] = u
			}
		}
	}

	out := make([]domain.User, 0, len(seen))
	for _, u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	span.SetAttributes(attribute.Int("recipients", len(out)))
	return out, nil
}
