// Forum HTTP handlers.
//
//   - POST  /forums                              (create, one per memo)
//   - GET   /forums/{id}                         (details)
//   - GET   /forums/check-existence/{memoId}     (lookup by memo)
//   - PATCH /forums/{id}/status                  (open/close)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/services"
)

// CreateForumRequest is the JSON payload for opening a forum on a memo.
type CreateForumRequest struct {
	Title       string `json:"title" binding:"required,max=255" example:"Seguimiento del oficio 2024-118"`
	Description string `json:"description" example:"Coordinación entre oficinas"`
	MemoID      string `json:"memo_id" binding:"required" example:"3f0a6d4e-8c1b-4b7e-9a55-0c7f3e2d1a90"`
	// UserID is only honored on anonymous requests; it must match the token otherwise.
	UserID string `json:"user_id" example:"5b0c9a3e-2f4d-4e0a-9d7c-1b2a3c4d5e6f"`
}

// UpdateForumStatusRequest is the JSON payload for PATCH /forums/{id}/status.
type UpdateForumStatusRequest struct {
	Status string `json:"status" binding:"required" enums:"OPEN,CLOSED" example:"CLOSED"`
}

// CreateForum godoc
// @ID          createForum
// @Summary     Open a forum for a memo
// @Description Creates the discussion forum of a memo. Only administrators and members of the memo's offices may do so; a memo has at most one forum.
// @Description Every user of the memo's offices, plus administrators and the presidency, vice-presidency and follow-up offices, is notified.
// @Tags        Forums
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreateForumRequest  true  "Forum payload"
// @Success     201   {object}  domain.Forum
// @Failure     400   {object}  handlers.ErrorResponse  "Bad request or forum already exists (code=conflict)"
// @Failure     403   {object}  handlers.ErrorResponse  "Not allowed for this memo"
// @Failure     404   {object}  handlers.ErrorResponse  "Memo or user not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums [post]
func (h *Handlers) CreateForum(c *gin.Context) {
	var req CreateForumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title and memo_id are required")
		return
	}
	actor, okActor := h.actor(c, req.UserID)
	if !okActor {
		return
	}

	f, err := h.forums.Create(c.Request.Context(), actor, services.ForumInput{
		Title:       req.Title,
		Description: req.Description,
		MemoID:      strings.TrimSpace(req.MemoID),
	})
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, f)
}

// GetForum godoc
// @ID          getForum
// @Summary     Get a forum
// @Description Returns the forum with its memo, the memo's offices, the message count and the time of the last message.
// @Tags        Forums
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Forum ID"  format(uuid)
// @Success     200  {object}  services.ForumDetails
// @Failure     404  {object}  handlers.ErrorResponse  "Forum not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/{id} [get]
func (h *Handlers) GetForum(c *gin.Context) {
	d, err := h.forums.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}

// CheckForumExistence godoc
// @ID          checkForumExistence
// @Summary     Check whether a memo has a forum
// @Tags        Forums
// @Produce     json
// @Security    BearerAuth
// @Param       memoId  path      string  true  "Memo ID"  format(uuid)
// @Success     200     {object}  services.ForumExistence
// @Failure     500     {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/check-existence/{memoId} [get]
func (h *Handlers) CheckForumExistence(c *gin.Context) {
	res, err := h.forums.CheckExistence(c.Request.Context(), c.Param("memoId"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// UpdateForumStatus godoc
// @ID          updateForumStatus
// @Summary     Open or close a forum
// @Tags        Forums
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                             true  "Forum ID"  format(uuid)
// @Param       body  body      handlers.UpdateForumStatusRequest  true  "New status"
// @Success     200   {object}  domain.Forum
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404   {object}  handlers.ErrorResponse  "Forum not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/{id}/status [patch]
func (h *Handlers) UpdateForumStatus(c *gin.Context) {
	var req UpdateForumStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be OPEN or CLOSED")
		return
	}
	f, err := h.forums.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}
