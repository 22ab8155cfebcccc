// Message HTTP handlers.
//
// This file exposes REST endpoints for forum messages:
//   - POST   /forums/{id}/messages               (post text and/or one attachment)
//   - GET    /forums/{id}/messages               (full thread, oldest first)
//   - DELETE /forums/{id}/messages/{messageId}   (author only)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// post exists for (user, forum, key), the handler returns that message and
// sets `Idempotency-Replayed: true` without notifying anyone again.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ofitrack/ofitrack-backend/internal/http/middleware"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

//
// DTOs
//

// PostMessageRequest is the JSON (or multipart) payload for a forum post.
// Content may be empty when a file is attached.
type PostMessageRequest struct {
	Content string `json:"content" form:"content" example:"Adjunto la respuesta firmada."`
	UserID  string `json:"user_id" form:"user_id" example:"5b0c9a3e-2f4d-4e0a-9d7c-1b2a3c4d5e6f"`
}

// DeleteMessageRequest carries the acting user for anonymous deployments.
type DeleteMessageRequest struct {
	UserID string `json:"user_id" example:"5b0c9a3e-2f4d-4e0a-9d7c-1b2a3c4d5e6f"`
}

// DeleteMessageResponse confirms a removed message.
type DeleteMessageResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Post a message to a forum
// @Description Stores a message with text, an optional attachment, or both, and notifies the memo's recipients except the author.
// @Description Supports idempotency via the Idempotency-Key header (same key, same message, no second notification).
// @Tags        Messages
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header    string  false  "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path      string  true   "Forum ID"  format(uuid)
// @Param       body             body      handlers.PostMessageRequest  false  "JSON payload"
// @Param       file             formData  file    false  "Attachment (PDF, image, DOCX/XLSX or text)"
//
// @Success     201  {object}  services.MessageView  "Created message"
// @Success     200  {object}  services.MessageView  "Replayed message"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty message or rejected upload"
// @Failure     404  {object}  handlers.ErrorResponse  "Forum not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	forumID := c.Param("id")

	var req PostMessageRequest
	var file *storage.Upload
	if isMultipart(c) {
		if err := c.ShouldBind(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form")
			return
		}
		if fh, err := c.FormFile("file"); err == nil {
			u := storage.FromFileHeader(fh)
			file = &u
		} else if !errors.Is(err, http.ErrMissingFile) {
			fail(c, http.StatusBadRequest, ErrCodeInvalidUpload, "could not read file")
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	actor, okActor := h.actor(c, req.UserID)
	if !okActor {
		return
	}

	// Replay path.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, actor.ID, forumID, idemKey, time.Now().UTC()); err == nil {
			if prev, err := h.messages.Get(ctx, forumID, rec.ResourceID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, prev)
				return
			}
		}
	}

	m, err := h.messages.Post(ctx, actor, forumID, req.Content, file)
	if err != nil {
		respond(c, err)
		return
	}

	// Store path, best effort.
	if idemKey != "" && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, actor.ID, forumID, idemKey, m.ID, http.StatusCreated, h.idemTTL); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("forum_id", forumID).Msg("store idempotency key")
		}
	}

	ok(c, http.StatusCreated, m)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List the messages of a forum
// @Description Returns every message in ascending creation order, each with its author and the author's office.
// @Description Responds 304 when If-None-Match matches the current weak ETag.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
//
// @Param       id             path    string  true   "Forum ID"  format(uuid)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
//
// @Success     200  {array}   services.MessageView
// @Success     304  "Not modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Forum not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	forumID := c.Param("id")

	if h.db != nil {
		if count, latest, err := repo.MessagesStats(ctx, h.db, forumID); err == nil && count > 0 {
			if notModified(c, "messages", forumID, count, latest) {
				return
			}
		}
	}

	items, err := h.messages.List(ctx, forumID)
	if err != nil {
		c.Writer.Header().Del("ETag")
		respond(c, err)
		return
	}
	if items == nil {
		items = []services.MessageView{}
	}
	ok(c, http.StatusOK, items)
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete a message
// @Description Removes a message and its attachment. Only the author may delete it, administrators included.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id         path  string  true   "Forum ID"    format(uuid)
// @Param       messageId  path  string  true   "Message ID"  format(uuid)
// @Param       body       body  handlers.DeleteMessageRequest  false  "Acting user (anonymous deployments only)"
//
// @Success     200  {object}  handlers.DeleteMessageResponse
// @Failure     403  {object}  handlers.ErrorResponse  "Not the author"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found in this forum"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /forums/{id}/messages/{messageId} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	var req DeleteMessageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	actor, okActor := h.actor(c, req.UserID)
	if !okActor {
		return
	}

	messageID := c.Param("messageId")
	if err := h.messages.Delete(c.Request.Context(), actor, c.Param("id"), messageID); err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, DeleteMessageResponse{ID: messageID, Deleted: true})
}
