// Notification HTTP handlers: the acting user's inbox.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/repo"
)

// UnreadCountResponse is the body of GET /notifications/unread-count.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// ListNotifications godoc
// @ID          listNotifications
// @Summary     List my notifications
// @Description Returns the acting user's non-deleted notifications, newest first, with their forum and memo.
// @Description Responds 304 when If-None-Match matches the current weak ETag.
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       user_id        query   string  false  "Acting user (anonymous deployments only)"
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {array}   domain.Notification
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing user"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /notifications [get]
func (h *Handlers) ListNotifications(c *gin.Context) {
	actor, okActor := h.actor(c, c.Query("user_id"))
	if !okActor {
		return
	}
	ctx := c.Request.Context()

	if h.db != nil {
		if count, latest, err := repo.NotificationsStats(ctx, h.db, actor.ID); err == nil {
			if notModified(c, "notifications", actor.ID, count, latest) {
				return
			}
		}
	}

	items, err := h.notes.List(ctx, actor.ID, h.notesLimit)
	if err != nil {
		c.Writer.Header().Del("ETag")
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	ok(c, http.StatusOK, items)
}

// UnreadNotifications godoc
// @ID          countUnreadNotifications
// @Summary     Count my unread notifications
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       user_id  query     string  false  "Acting user (anonymous deployments only)"
// @Success     200      {object}  handlers.UnreadCountResponse
// @Failure     400      {object}  handlers.ErrorResponse  "Missing user"
// @Router      /notifications/unread-count [get]
func (h *Handlers) UnreadNotifications(c *gin.Context) {
	actor, okActor := h.actor(c, c.Query("user_id"))
	if !okActor {
		return
	}
	n, err := h.notes.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkNotificationRead godoc
// @ID          markNotificationRead
// @Summary     Mark a notification as read
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id       path      string  true   "Notification ID"  format(uuid)
// @Param       user_id  query     string  false  "Acting user (anonymous deployments only)"
// @Success     200      {object}  domain.Notification
// @Failure     403      {object}  handlers.ErrorResponse  "Addressed to another user"
// @Failure     404      {object}  handlers.ErrorResponse  "Not found"
// @Router      /notifications/{id}/read [patch]
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	actor, okActor := h.actor(c, c.Query("user_id"))
	if !okActor {
		return
	}
	n, err := h.notes.MarkRead(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, n)
}

// DeleteNotification godoc
// @ID          deleteNotification
// @Summary     Delete a notification
// @Description Soft-deletes the notification; it no longer appears in the inbox.
// @Tags        Notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id       path      string  true   "Notification ID"  format(uuid)
// @Param       user_id  query     string  false  "Acting user (anonymous deployments only)"
// @Success     200      {object}  domain.Notification
// @Failure     403      {object}  handlers.ErrorResponse  "Addressed to another user"
// @Failure     404      {object}  handlers.ErrorResponse  "Not found"
// @Router      /notifications/{id} [delete]
func (h *Handlers) DeleteNotification(c *gin.Context) {
	actor, okActor := h.actor(c, c.Query("user_id"))
	if !okActor {
		return
	}
	n, err := h.notes.Delete(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, n)
}
