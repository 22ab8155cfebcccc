// Account and office HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ofitrack/ofitrack-backend/internal/domain"
	"github.com/ofitrack/ofitrack-backend/internal/http/middleware"
	"github.com/ofitrack/ofitrack-backend/internal/services"
)

// RegisterRequest is the JSON payload for POST /auth/register.
type RegisterRequest struct {
	CI        string `json:"ci" binding:"required" example:"V-12345678"`
	Username  string `json:"username" binding:"required" example:"mperez"`
	Password  string `json:"password" binding:"required" example:"s3cret-pass"`
	FirstName string `json:"first_name" example:"María"`
	LastName  string `json:"last_name" example:"Pérez"`
	Role      string `json:"role" enums:"USER,ADMIN" example:"USER"`
	OfficeID  string `json:"office_id" binding:"required" example:"103"`
}

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"mperez"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Creates a user in an existing office. Only an authenticated administrator may grant the ADMIN role.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account"
// @Success     201   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid payload, unknown office or taken ci/username (code=conflict)"
// @Failure     403   {object}  handlers.ErrorResponse  "ADMIN role requires an administrator"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ci, username, password and office_id are required")
		return
	}
	actor, okActor := h.optionalActor(c)
	if !okActor {
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), actor, services.RegisterInput{
		CI:        req.CI,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		OfficeID:  req.OfficeID,
	}, false)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Exchanges credentials for a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  services.Session
// @Failure     400   {object}  handlers.ErrorResponse  "Missing credentials"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}
	s, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respond(c, err)
		return
	}
	c.Set(middleware.UserIDKey, s.User.ID)
	ok(c, http.StatusOK, s)
}

// Me godoc
// @ID          me
// @Summary     Current user
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Not authenticated"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	id := middleware.UserID(c)
	if id == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	u, err := h.accounts.Get(c.Request.Context(), id)
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListOffices godoc
// @ID          listOffices
// @Summary     List offices
// @Tags        Offices
// @Produce     json
// @Security    BearerAuth
// @Success     200  {array}  domain.Office
// @Router      /offices [get]
func (h *Handlers) ListOffices(c *gin.Context) {
	items, err := h.offices.List(c.Request.Context())
	if err != nil {
		respond(c, err)
		return
	}
	if items == nil {
		items = []domain.Office{}
	}
	ok(c, http.StatusOK, items)
}

// GetOffice godoc
// @ID          getOffice
// @Summary     Get an office
// @Tags        Offices
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Office ID"  example(103)
// @Success     200  {object}  domain.Office
// @Failure     404  {object}  handlers.ErrorResponse  "Office not found"
// @Router      /offices/{id} [get]
func (h *Handlers) GetOffice(c *gin.Context) {
	o, err := h.offices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond(c, err)
		return
	}
	ok(c, http.StatusOK, o)
}
