// Memo HTTP handlers.
//
//   - POST  /memos                    (JSON or multipart with files)
//   - GET   /memos                    (paginated, filter by status/office)
//   - GET   /memos/{id}
//   - PATCH /memos/{id}/status
//   - PATCH /memos/{id}/instruction
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

//
// DTOs
//

// CreateMemoRequest is the JSON payload for registering an incoming memo.
// Multipart requests use the same field names plus receptionImages and
// attachments file parts.
type CreateMemoRequest struct {
	Name            string   `json:"name" binding:"required" example:"Solicitud de información presupuestaria"`
	Applicant       string   `json:"applicant" example:"Ministerio de Finanzas"`
	ReceptionMethod string   `json:"reception_method" example:"Físico"`
	ResponseRequire bool     `json:"response_require"`
	Urgency         string   `json:"urgency" enums:"LOW,MEDIUM,HIGH" example:"HIGH"`
	Observation     string   `json:"observation"`
	ReceptionDate   string   `json:"reception_date" example:"2024-05-13"`
	ReceptionHour   string   `json:"reception_hour" example:"09:30"`
	Instruction     string   `json:"instruction"`
	OfficeIDs       []string `json:"officeIds" binding:"required" example:"103,110"`
	UserID          string   `json:"user_id"`
}

// UpdateMemoStatusRequest is the JSON payload for PATCH /memos/{id}/status.
// The acting user is read from user.id or user_id.
type UpdateMemoStatusRequest struct {
	Status string   `json:"status" binding:"required" enums:"PENDING,COMPLETED,ARCHIVED" example:"COMPLETED"`
	User   *UserRef `json:"user"`
	UserID string   `json:"user_id"`
}

// AssignInstructionRequest is the JSON payload for PATCH /memos/{id}/instruction.
type AssignInstructionRequest struct {
	Instruction string   `json:"instruction" binding:"required" example:"Responder antes del viernes"`
	OfficeIDs   []string `json:"officeIds" example:"103,104"`
	User        *UserRef `json:"user"`
	UserID      string   `json:"user_id"`
}

// ListMemosResponse is a page of memos with pagination metadata.
type ListMemosResponse struct {
	Memos      []domain.Memo `json:"memos"`
	Pagination Pagination    `json:"pagination"`
}

func claimedID(ref *UserRef, id string) string {
	if ref != nil && ref.ID != "" {
		return ref.ID
	}
	return id
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

// formOfficeIDs reads officeIds either as repeated form fields or as one
// JSON array value.
func formOfficeIDs(c *gin.Context) ([]string, error) {
	vals := c.PostFormArray("officeIds")
	if len(vals) == 0 {
		vals = c.PostFormArray("officeIds[]")
	}
	if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(vals[0]), "[") {
		var ids []string
		if err := json.Unmarshal([]byte(vals[0]), &ids); err != nil {
			return nil, fmt.Errorf("officeIds: %w", err)
		}
		return ids, nil
	}
	return vals, nil
}

func (h *Handlers) bindMemo(c *gin.Context) (*CreateMemoRequest, []storage.Upload, []storage.Upload, bool) {
	if !isMultipart(c) {
		var req CreateMemoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and officeIds are required")
			return nil, nil, nil, false
		}
		return &req, nil, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
		return nil, nil, nil, false
	}
	ids, err := formOfficeIDs(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return nil, nil, nil, false
	}
	respReq, _ := strconv.ParseBool(c.PostForm("response_require"))
	req := &CreateMemoRequest{
		Name:            c.PostForm("name"),
		Applicant:       c.PostForm("applicant"),
		ReceptionMethod: c.PostForm("reception_method"),
		ResponseRequire: respReq,
		Urgency:         c.PostForm("urgency"),
		Observation:     c.PostForm("observation"),
		ReceptionDate:   c.PostForm("reception_date"),
		ReceptionHour:   c.PostForm("reception_hour"),
		Instruction:     c.PostForm("instruction"),
		OfficeIDs:       ids,
		UserID:          c.PostForm("user_id"),
	}
	return req,
		storage.FromFileHeaders(form.File["receptionImages"]),
		storage.FromFileHeaders(form.File["attachments"]),
		true
}

//
// Handlers
//

// CreateMemo godoc
// @ID          createMemo
// @Summary     Register an incoming memo
// @Description Stores a memo routed to the given offices, with optional reception images and attachments, and notifies those offices.
// @Tags        Memos
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       body             body      handlers.CreateMemoRequest  false  "JSON payload"
// @Param       receptionImages  formData  file  false  "Scanned reception images"
// @Param       attachments      formData  file  false  "Attachments"
// @Success     201  {object}  domain.Memo
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload, unknown office or rejected upload"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /memos [post]
func (h *Handlers) CreateMemo(c *gin.Context) {
	req, images, attachments, good := h.bindMemo(c)
	if !good {
		return
	}
	date, err := parseDate(req.ReceptionDate)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	actor, okActor := h.actor(c, req.UserID)
	if !okActor {
		return
	}

	m, err := h.memos.Create(c.Request.Context(), actor, services.MemoInput{
		Name:            req.Name,
		Applicant:       req.Applicant,
		ReceptionMethod: req.ReceptionMethod,
		ResponseRequire: req.ResponseRequire,
		Urgency:         req.Urgency,
		Observation:     req.Observation,
		ReceptionDate:   date,
		ReceptionHour:   req.ReceptionHour,
		Instruction:     req.Instruction,
		OfficeIDs:       req.OfficeIDs,
		ReceptionImages: images,
		Attachments:     attachments,
	})
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ListMemos godoc
// @ID          listMemos
// @Summary     List memos
// @Description Returns memos newest first with their offices.
// @Tags        Memos
// @Produce     json
// @Security    BearerAuth
// @Param       status     query  string  false  "Filter by status"  Enums(PENDING,COMPLETED,ARCHIVED)
// @Param       office_id  query  string  false  "Filter by routed office"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMemosResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status filter"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /memos [get]
func (h *Handlers) ListMemos(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.memos.List(c.Request.Context(), c.Query("status"), c.Query("office_id"), page, pageSize)
	if err != nil {
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.Memo{}
	}
	ok(c, http.StatusOK, ListMemosResponse{Memos: items, Pagination: pagination(page, pageSize, total)})
}

// GetMemo godoc
// @ID          getMemo
// @Summary     Get a memo
// @Tags        Memos
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Memo ID"  format(uuid)
// @Success     200  {object}  domain.Memo
// @Failure     404  {object}  handlers.ErrorResponse  "Memo not found"
// @Router      /memos/{id} [get]
func (h *Handlers) GetMemo(c *gin.Context) {
	m, err := h.memos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// UpdateMemoStatus godoc
// @ID          updateMemoStatus
// @Summary     Change a memo's status
// @Description Allowed for administrators and for users of the follow-up office.
// @Tags        Memos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                            true  "Memo ID"  format(uuid)
// @Param       body  body      handlers.UpdateMemoStatusRequest  true  "New status and acting user"
// @Success     200   {object}  domain.Memo
// @Failure     400   {object}  handlers.ErrorResponse  "Missing user or invalid status"
// @Failure     403   {object}  handlers.ErrorResponse  "Transition not allowed"
// @Failure     404   {object}  handlers.ErrorResponse  "Memo not found"
// @Router      /memos/{id}/status [patch]
func (h *Handlers) UpdateMemoStatus(c *gin.Context) {
	var req UpdateMemoStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status is required")
		return
	}
	actor, okActor := h.actor(c, claimedID(req.User, req.UserID))
	if !okActor {
		return
	}
	m, err := h.memos.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// AssignInstruction godoc
// @ID          assignMemoInstruction
// @Summary     Assign an instruction to a memo
// @Description Sets the instruction and, when officeIds is given and the actor may route memos, replaces the memo's offices. The memo's offices are notified.
// @Tags        Memos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                             true  "Memo ID"  format(uuid)
// @Param       body  body      handlers.AssignInstructionRequest  true  "Instruction, offices and acting user"
// @Success     200   {object}  domain.Memo
// @Failure     400   {object}  handlers.ErrorResponse  "Missing instruction or unknown office"
// @Failure     404   {object}  handlers.ErrorResponse  "Memo not found"
// @Router      /memos/{id}/instruction [patch]
func (h *Handlers) AssignInstruction(c *gin.Context) {
	var req AssignInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "instruction is required")
		return
	}
	actor, okActor := h.actor(c, claimedID(req.User, req.UserID))
	if !okActor {
		return
	}
	m, err := h.memos.AssignInstruction(c.Request.Context(), actor, c.Param("id"), req.Instruction, req.OfficeIDs)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, m)
}
