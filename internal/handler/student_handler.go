package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ivc-chiapas/folios-console/internal/models"
	"github.com/ivc-chiapas/folios-console/internal/service"
	appErrors "github.com/ivc-chiapas/folios-console/pkg/errors"
	"github.com/ivc-chiapas/folios-console/pkg/response"
)

type studentQueries interface {
	SearchStudents(ctx context.Context, sess service.SessionContext, field, value string) ([]models.Student, bool, error)
	ListStudents(ctx context.Context, sess service.SessionContext, level *string) ([]models.Student, bool, error)
	EducationLevels(ctx context.Context, sess service.SessionContext) []string
	FindStudent(ctx context.Context, sess service.SessionContext, id string) (*models.Student, error)
}

type studentCommands interface {
	Create(ctx context.Context, sess service.SessionContext, req service.StudentRequest) (*models.SubmitResult, error)
	Update(ctx context.Context, sess service.SessionContext, id string, req service.StudentRequest) (*models.SubmitResult, error)
	Delete(ctx context.Context, sess service.SessionContext, id string) (*models.SubmitResult, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	queries  studentQueries
	commands studentCommands
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(queries studentQueries, commands studentCommands) *StudentHandler {
	return &StudentHandler{queries: queries, commands: commands}
}

// List godoc
// @Summary List students
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param nivel_educativo query string false "Education level"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	students, cacheHit, err := h.queries.ListStudents(c.Request.Context(), sess, optionalQuery(c, "nivel_educativo"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithCache(c, http.StatusOK, students, cacheHit)
}

// Search godoc
// @Summary Search students by field
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param field query string true "nombre, apellido_paterno, apellido_materno or telefono"
// @Param value query string false "Search term; blank lists every student"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/search [get]
func (h *StudentHandler) Search(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	students, cacheHit, err := h.queries.SearchStudents(c.Request.Context(), sess, strings.TrimSpace(c.Query("field")), c.Query("value"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithCache(c, http.StatusOK, students, cacheHit)
}

// Levels godoc
// @Summary Education levels
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/levels [get]
func (h *StudentHandler) Levels(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.queries.EducationLevels(c.Request.Context(), sess))
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	student, err := h.queries.FindStudent(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope "Cancelled duplicate submission"
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.commands.Create(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSubmit(c, http.StatusCreated, result)
}

// Update godoc
// @Summary Update a student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.commands.Update(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSubmit(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	sess, ok := sessionFromContext(c)
	if !ok {
		return
	}
	result, err := h.commands.Delete(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondSubmit(c, http.StatusOK, result)
}

// respondSubmit writes a form outcome. A cancelled submission is not an
// error; it answers 200 so the console can silently drop it.
func respondSubmit(c *gin.Context, successStatus int, result *models.SubmitResult) {
	if result == nil || result.Outcome != models.OutcomeSuccess {
		response.JSON(c, http.StatusOK, models.Cancelled())
		return
	}
	response.JSON(c, successStatus, result)
}
