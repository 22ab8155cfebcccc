// Document HTTP handlers: puntos de cuenta, oficios de presidencia and
// sent memos.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/services"
	"github.com/ofitrack/ofitrack-backend/internal/storage"
)

// CreatePuntoCuentaRequest is the JSON payload for POST /puntos-cuenta.
// Every field is required.
type CreatePuntoCuentaRequest struct {
	Numero      string `json:"numero" example:"PC-2024-031"`
	Tipo        string `json:"tipo" example:"Administrativo"`
	Fecha       string `json:"fecha" example:"2024-05-13"`
	Presentante string `json:"presentante"`
	Asunto      string `json:"asunto"`
	Decision    string `json:"decision"`
	Observacion string `json:"observacion"`
}

// CreateOficioRequest is the payload for POST /oficios-presidencia, sent as
// JSON or as a multipart form with documento_escaneado file parts.
type CreateOficioRequest struct {
	Numero            string `json:"numero"`
	Institucion       string `json:"institucion"`
	Destinatario      string `json:"destinatario"`
	Asunto            string `json:"asunto"`
	FechaElaboracion  string `json:"fechaElaboracion" example:"2024-05-10"`
	FechaEntrega      string `json:"fechaEntrega" example:"2024-05-14"`
	// RequiereRespuesta accepts a JSON boolean or its string form.
	RequiereRespuesta any    `json:"requiereRespuesta" swaggertype:"boolean"`
	Status            string `json:"status" enums:"PENDIENTE,FINALIZADO"`
}

// UpdateDocumentStatusRequest is the JSON payload for document status changes.
type UpdateDocumentStatusRequest struct {
	Status string `json:"status" binding:"required" enums:"PENDIENTE,FINALIZADO" example:"FINALIZADO"`
}

func asBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		if b == "" {
			return false, nil
		}
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("not a boolean: %v", v)
	}
}

//
// Puntos de cuenta
//

// CreatePuntoCuenta godoc
// @ID          createPuntoCuenta
// @Summary     Register a punto de cuenta
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.CreatePuntoCuentaRequest  true  "Punto de cuenta"
// @Success     201   {object}  domain.PuntoCuenta
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields or duplicate numero (code=conflict)"
// @Router      /puntos-cuenta [post]
func (h *Handlers) CreatePuntoCuenta(c *gin.Context) {
	var req CreatePuntoCuentaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	fecha, err := parseDate(req.Fecha)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	actor, okActor := h.optionalActor(c)
	if !okActor {
		return
	}

	in := services.PuntoCuentaInput{
		Numero:      req.Numero,
		Tipo:        req.Tipo,
		Presentante: req.Presentante,
		Asunto:      req.Asunto,
		Decision:    req.Decision,
		Observacion: req.Observacion,
	}
	if fecha != nil {
		in.Fecha = *fecha
	}
	p, err := h.docs.CreatePuntoCuenta(c.Request.Context(), actor, in)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListPuntosCuenta godoc
// @ID          listPuntosCuenta
// @Summary     List puntos de cuenta
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.PuntoCuenta
// @Router      /puntos-cuenta [get]
func (h *Handlers) ListPuntosCuenta(c *gin.Context) {
	items, err := h.docs.ListPuntosCuenta(c.Request.Context())
	if err != nil {
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.PuntoCuenta{}
	}
	ok(c, http.StatusOK, items)
}

// GetPuntoCuenta godoc
// @ID          getPuntoCuenta
// @Summary     Get a punto de cuenta
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Punto de cuenta ID"  format(uuid)
// @Success     200  {object}  domain.PuntoCuenta
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /puntos-cuenta/{id} [get]
func (h *Handlers) GetPuntoCuenta(c *gin.Context) {
	p, err := h.docs.GetPuntoCuenta(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePuntoCuentaStatus godoc
// @ID          updatePuntoCuentaStatus
// @Summary     Change a punto de cuenta's status
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                                true  "Punto de cuenta ID"  format(uuid)
// @Param       body  body      handlers.UpdateDocumentStatusRequest  true  "New status"
// @Success     200   {object}  domain.PuntoCuenta
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404   {object}  handlers.ErrorResponse  "Not found"
// @Router      /puntos-cuenta/{id}/status [patch]
func (h *Handlers) UpdatePuntoCuentaStatus(c *gin.Context) {
	var req UpdateDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be PENDIENTE or FINALIZADO")
		return
	}
	p, err := h.docs.UpdatePuntoCuentaStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

//
// Oficios de presidencia
//

// CreateOficio godoc
// @ID          createOficioPresidencia
// @Summary     Register an oficio de presidencia
// @Description Stores an outgoing letter. Only the first documento_escaneado file is kept. An empty numero is generated.
// @Tags        Documents
// @Accept      json
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       body                 body      handlers.CreateOficioRequest  false  "JSON payload"
// @Param       documento_escaneado  formData  file  false  "Scanned document"
// @Success     201  {object}  domain.OficioPresidencia
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields, invalid status or rejected upload"
// @Router      /oficios-presidencia [post]
func (h *Handlers) CreateOficio(c *gin.Context) {
	var req CreateOficioRequest
	var docs []storage.Upload
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
			return
		}
		req = CreateOficioRequest{
			Numero:            c.PostForm("numero"),
			Institucion:       c.PostForm("institucion"),
			Destinatario:      c.PostForm("destinatario"),
			Asunto:            c.PostForm("asunto"),
			FechaElaboracion:  c.PostForm("fechaElaboracion"),
			FechaEntrega:      c.PostForm("fechaEntrega"),
			RequiereRespuesta: c.PostForm("requiereRespuesta"),
			Status:            c.PostForm("status"),
		}
		docs = storage.FromFileHeaders(form.File["documento_escaneado"])
	} else if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	elaboracion, err := parseDate(req.FechaElaboracion)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	entrega, err := parseDate(req.FechaEntrega)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	requiere, err := asBool(req.RequiereRespuesta)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "requiereRespuesta must be a boolean")
		return
	}
	actor, okActor := h.optionalActor(c)
	if !okActor {
		return
	}

	in := services.OficioInput{
		Numero:            req.Numero,
		Institucion:       req.Institucion,
		Destinatario:      req.Destinatario,
		Asunto:            req.Asunto,
		FechaEntrega:      entrega,
		RequiereRespuesta: requiere,
		Status:            req.Status,
		Documentos:        docs,
	}
	if elaboracion != nil {
		in.FechaElaboracion = *elaboracion
	}
	o, err := h.docs.CreateOficio(c.Request.Context(), actor, in)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, o)
}

// ListOficios godoc
// @ID          listOficiosPresidencia
// @Summary     List oficios de presidencia
// @Description Ordered by delivery date, then elaboration date, newest first.
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Param       status  query  string  false  "Filter by status"  Enums(PENDIENTE,FINALIZADO)
// @Success     200  {array}   domain.OficioPresidencia
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status filter"
// @Router      /oficios-presidencia [get]
func (h *Handlers) ListOficios(c *gin.Context) {
	items, err := h.docs.ListOficios(c.Request.Context(), c.Query("status"))
	if err != nil {
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.OficioPresidencia{}
	}
	ok(c, http.StatusOK, items)
}

// GetOficio godoc
// @ID          getOficioPresidencia
// @Summary     Get an oficio de presidencia
// @Tags        Documents
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Oficio ID"  format(uuid)
// @Success     200  {object}  domain.OficioPresidencia
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /oficios-presidencia/{id} [get]
func (h *Handlers) GetOficio(c *gin.Context) {
	o, err := h.docs.GetOficio(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

// UpdateOficioStatus godoc
// @ID          updateOficioPresidenciaStatus
// @Summary     Change an oficio's status
// @Tags        Documents
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string                                true  "Oficio ID"  format(uuid)
// @Param       body  body      handlers.UpdateDocumentStatusRequest  true  "New status"
// @Success     200   {object}  domain.OficioPresidencia
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     404   {object}  handlers.ErrorResponse  "Not found"
// @Router      /oficios-presidencia/{id}/status [patch]
func (h *Handlers) UpdateOficioStatus(c *gin.Context) {
	var req UpdateDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "status must be PENDIENTE or FINALIZADO")
		return
	}
	o, err := h.docs.UpdateOficioStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}

//
// Sent memos
//

// CreateSentMemo godoc
// @ID          createSentMemo
// @Summary     Register a sent memo
// @Description Stores an outgoing memo with its scanned reception proof.
// @Tags        Documents
// @Accept      mpfd
// @Produce     json
// @Param       title           formData  string  true  "Title"
// @Param       registeredBy    formData  string  true  "Who registered the delivery"
// @Param       receptionImage  formData  file    true  "Reception proof"
// @Success     201  {object}  domain.SentMemo
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields or rejected upload"
// @Router      /sent-memos [post]
func (h *Handlers) CreateSentMemo(c *gin.Context) {
	var image *storage.Upload
	if isMultipart(c) {
		fh, err := c.FormFile("receptionImage")
		switch {
		case err == nil:
			u := storage.FromFileHeader(fh)
			image = &u
		case !errors.Is(err, http.ErrMissingFile):
			fail(c, http.StatusBadRequest, ErrCodeInvalidUpload, "could not read receptionImage")
			return
		}
	}
	actor, okActor := h.optionalActor(c)
	if !okActor {
		return
	}

	sm, err := h.docs.CreateSentMemo(c.Request.Context(), actor, services.SentMemoInput{
		Title:          c.PostForm("title"),
		RegisteredBy:   c.PostForm("registeredBy"),
		ReceptionImage: image,
	})
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, sm)
}

// ListSentMemos godoc
// @ID          listSentMemos
// @Summary     List sent memos
// @Tags        Documents
// @Produce     json
// @Success     200  {array}  domain.SentMemo
// @Router      /sent-memos/all [get]
func (h *Handlers) ListSentMemos(c *gin.Context) {
	items, err := h.docs.ListSentMemos(c.Request.Context())
	if err != nil {
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.SentMemo{}
	}
	ok(c, http.StatusOK, items)
}

// VerifySentMemo godoc
// @ID          verifySentMemo
// @Summary     Verify a sent memo
// @Description Public lookup used by the printed verification code.
// @Tags        Documents
// @Produce     json
// @Param       id   path      string  true  "Sent memo ID"  format(uuid)
// @Success     200  {object}  domain.SentMemo
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /sent-memos/verify/{id} [get]
func (h *Handlers) VerifySentMemo(c *gin.Context) {
	sm, err := h.docs.GetSentMemo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, sm)
}
