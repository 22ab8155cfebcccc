// Package authz evaluates the office/role rules that gate memo and forum
// actions. Every check is a pure function of an already-loaded User (role
// and office come from storage, never from the request) plus the target's
// data, so callers can evaluate them before touching the database.
package authz

import "github.com/ofitrack/ofitrack-backend/internal/domain"

// OfficePolicy names the offices that carry special privileges. The ids are
// configuration, not literals scattered through the services.
type OfficePolicy struct {
	// Presidencia receives every notification.
	Presidencia string
	// Vicepresidencia receives every notification and may re-route memos.
	Vicepresidencia string
	// Seguimiento receives every notification and may change memo status.
	Seguimiento string
}

// DefaultOfficePolicy matches the seeded organization chart.
var DefaultOfficePolicy = OfficePolicy{
	Presidencia:     "100",
	Vicepresidencia: "101",
	Seguimiento:     "110",
}

// SpecialOffices returns the offices whose members are always notified.
func (p OfficePolicy) SpecialOffices() []string {
	out := make([]string, 0, 3)
	for _, id := range []string{p.Presidencia, p.Vicepresidencia, p.Seguimiento} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Evaluator answers authorization questions for a given OfficePolicy.
// The zero value denies everything except ADMIN and ownership checks.
type Evaluator struct {
	Policy OfficePolicy
}

// New returns an Evaluator bound to p.
func New(p OfficePolicy) *Evaluator { return &Evaluator{Policy: p} }

// CanCreateForum allows ADMINs, and users whose office is routed to the
// memo. An empty office set admits only ADMINs.
func (e *Evaluator) CanCreateForum(u *domain.User, memoOfficeIDs []string) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, id := range memoOfficeIDs {
		if id == u.OfficeID {
			return true
		}
	}
	return false
}

// CanChangeMemoStatus allows ADMINs, and USERs of the follow-up office. The
// target status is validated by the caller and does not change the answer.
func (e *Evaluator) CanChangeMemoStatus(u *domain.User, _ domain.MemoStatus) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return e.Policy.Seguimiento != "" && u.OfficeID == e.Policy.Seguimiento && u.Role == domain.RoleUser
}

// CanEditMemoOffices allows ADMINs and members of the vice-presidency.
func (e *Evaluator) CanEditMemoOffices(u *domain.User) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	return e.Policy.Vicepresidencia != "" && u.OfficeID == e.Policy.Vicepresidencia
}

// CanDeleteMessage allows only the author. There is no ADMIN override.
func (e *Evaluator) CanDeleteMessage(u *domain.User, m *domain.Message) bool {
	if u == nil || m == nil {
		return false
	}
	return u.ID != "" && m.UserID == u.ID
}
