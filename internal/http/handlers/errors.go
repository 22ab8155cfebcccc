// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them.
// Service errors are translated by respond(), which inspects the error kind
// with errors.Is:
//
//	ErrValidation   -> 400 bad_request
//	ErrUnauthorized -> 401 unauthorized
//	ErrForbidden    -> 403 forbidden
//	ErrNotFound     -> 404 not_found
//	ErrConflict     -> 400 conflict
//	anything else   -> 500 internal_error (logged)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidUpload = "invalid_upload"
	ErrCodeInvalidStatus = "invalid_status"
)

// respond writes the error envelope matching err's kind.
func respond(c *gin.Context, err error) {
	switch {
	case storage.IsRejected(err):
		fail(c, http.StatusBadRequest, ErrCodeInvalidUpload, err.Error())
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error())
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusBadRequest, ErrCodeConflict, err.Error())
	default:
		// Internal detail stays in the log, not the body.
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
