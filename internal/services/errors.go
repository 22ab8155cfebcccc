// Package services implements the memo, forum, notification, document and
// account workflows on top of the repo layer.
//
// This file centralizes service-level errors. Every error returned by a
// service either wraps one of the five kinds below or is an unexpected
// failure; handlers branch with errors.Is on the kind only.
package services

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// kindError carries a caller-facing message and unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

// validationf builds an ErrValidation with a formatted message.
func validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// Not found.
var (
	ErrMemoNotFound         = newError(ErrNotFound, "memo not found")
	ErrForumNotFound        = newError(ErrNotFound, "forum not found")
	ErrMessageNotFound      = newError(ErrNotFound, "message not found")
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrOfficeNotFound       = newError(ErrNotFound, "office not found")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
	ErrDocumentNotFound     = newError(ErrNotFound, "document not found")
)

// Forbidden.
var (
	ErrForbiddenForum        = newError(ErrForbidden, "user cannot create a forum for this memo")
	ErrForbiddenMemoStatus   = newError(ErrForbidden, "user cannot change the memo status")
	ErrForbiddenMessage      = newError(ErrForbidden, "user cannot delete this message")
	ErrForbiddenNotification = newError(ErrForbidden, "notification belongs to another user")
	ErrForbiddenRole         = newError(ErrForbidden, "only administrators can grant the ADMIN role")
	ErrActorMismatch         = newError(ErrForbidden, "user id does not match the authenticated user")
)

// Conflict.
var (
	ErrForumExists     = newError(ErrConflict, "a forum already exists for this memo")
	ErrDuplicateUser   = newError(ErrConflict, "a user with that ci or username already exists")
	ErrDuplicateNumero = newError(ErrConflict, "a document with that numero already exists")
)

// Validation.
var (
	ErrEmptyMessage  = newError(ErrValidation, "message content is empty")
	ErrInvalidStatus = newError(ErrValidation, "invalid status")
	ErrNoOffices     = newError(ErrValidation, "at least one office is required")
	ErrMissingUser   = newError(ErrValidation, "user id is required")
)

// Unauthorized.
var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid username or password")
	ErrInvalidToken       = newError(ErrUnauthorized, "invalid or expired token")
)
