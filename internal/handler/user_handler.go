package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type userLister interface {
	List(ctx context.Context, sess service.SessionContext) ([]models.User, error)
}

// UserHandler exposes the read-only account listing.
type UserHandler struct {
	users userLister
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users userLister) *UserHandler {
	return &UserHandler{users: users}
}

// List godoc
// @Summary List console accounts
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}
