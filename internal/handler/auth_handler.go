package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, sess service.SessionContext, meta models.LoginRequest) error
}

type sessionForgetter interface {
	Forget(sessionID string)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	views   sessionForgetter
}

// NewAuthHandler creates a new handler. views may be nil.
func NewAuthHandler(svc authService, views sessionForgetter) *AuthHandler {
	return &AuthHandler{service: svc, views: views}
}

// CurrentUser is the payload of GET /auth/me.
type CurrentUser struct {
	Username    string             `json:"username"`
	Role        models.Role        `json:"role"`
	Affordances models.Affordances `json:"affordances"`
}

// Login godoc
// @Summary Sign in to the console
// @Description Forwards the credentials to the backend and opens a console session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Sign out
// @Description Clears the console session and its backend credential
// @Tags Authentication
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	meta := models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if err := h.service.Logout(c.Request.Context(), sess, meta); err != nil {
		response.Error(c, err)
		return
	}
	if h.views != nil {
		h.views.Forget(sess.ID())
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current session
// @Description Returns the signed-in user and the actions the console may offer
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, CurrentUser{
		Username:    sess.Username(),
		Role:        sess.Role(),
		Affordances: service.AffordancesFor(sess.Role()),
	})
}
