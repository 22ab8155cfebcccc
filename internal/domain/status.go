package domain

import "strings"

// Role is the authorization role of a User.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// MemoStatus is the lifecycle state of a Memo.
type MemoStatus string

const (
	MemoPending   MemoStatus = "PENDING"
	MemoCompleted MemoStatus = "COMPLETED"
	MemoArchived  MemoStatus = "ARCHIVED"
)

// InstructionStatus tracks whether a Memo has an assigned instruction.
type InstructionStatus string

const (
	InstructionPending  InstructionStatus = "PENDING"
	InstructionAssigned InstructionStatus = "ASSIGNED"
)

// ForumStatus is the state of a Forum thread.
type ForumStatus string

const (
	ForumOpen   ForumStatus = "OPEN"
	ForumClosed ForumStatus = "CLOSED"
)

// DocumentStatus is shared by puntos de cuenta and oficios de presidencia.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDIENTE"
	DocumentFinished DocumentStatus = "FINALIZADO"
)

// Urgency classifies how fast a Memo must be handled.
type Urgency string

const (
	UrgencyLow    Urgency = "LOW"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyHigh   Urgency = "HIGH"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(norm(s)); r {
	case RoleAdmin, RoleUser:
		return r, true
	}
	return "", false
}

// ParseMemoStatus normalizes s and reports whether it names a memo status.
func ParseMemoStatus(s string) (MemoStatus, bool) {
	switch st := MemoStatus(norm(s)); st {
	case MemoPending, MemoCompleted, MemoArchived:
		return st, true
	}
	return "", false
}

// ParseForumStatus normalizes s and reports whether it names a forum status.
func ParseForumStatus(s string) (ForumStatus, bool) {
	switch st := ForumStatus(norm(s)); st {
	case ForumOpen, ForumClosed:
		return st, true
	}
	return "", false
}

// ParseDocumentStatus normalizes s and reports whether it names a document status.
func ParseDocumentStatus(s string) (DocumentStatus, bool) {
	switch st := DocumentStatus(norm(s)); st {
	case DocumentPending, DocumentFinished:
		return st, true
	}
	return "", false
}

// ParseUrgency normalizes s; an empty value yields UrgencyMedium.
func ParseUrgency(s string) (Urgency, bool) {
	if strings.TrimSpace(s) == "" {
		return UrgencyMedium, true
	}
	switch u := Urgency(norm(s)); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u, true
	}
	return "", false
}

func norm(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
