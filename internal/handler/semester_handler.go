package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/middleware"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/response"
	"github.com/stemsi/sgpa-planner/internal/semester"
	"github.com/stemsi/sgpa-planner/internal/service"
	"github.com/stemsi/sgpa-planner/internal/validator"
)

// SemesterHandler exposes the student's semester sheets over REST.
type SemesterHandler struct {
	planner *service.PlannerService
	log     zerolog.Logger
}

// NewSemesterHandler creates a new SemesterHandler.
func NewSemesterHandler(planner *service.PlannerService, log zerolog.Logger) *SemesterHandler {
	return &SemesterHandler{
		planner: planner,
		log:     log.With().Str("component", "semester_handler").Logger(),
	}
}

// GetOverview godoc
// GET /api/v1/planner/semesters
// Lists every semester with its SGPA, plus the CGPA.
func (h *SemesterHandler) GetOverview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	overview, _, err := h.planner.Overview(c.Request.Context(), claims.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, overview)
}

// GetSemester godoc
// GET /api/v1/planner/semesters/:number
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	claims, number, ok := h.target(c)
	if !ok {
		return
	}

	view, err := h.planner.GetSemester(c.Request.Context(), claims.UserID, number)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"semester": view})
}

// AddRow godoc
// POST /api/v1/planner/semesters/:number/rows
func (h *SemesterHandler) AddRow(c *gin.Context) {
	h.apply(c, http.StatusCreated, semester.AddRowCommand{})
}

// UpdateRow godoc
// PATCH /api/v1/planner/semesters/:number/rows/:index
// Merges the posted fields into one row. An unknown index leaves the sheet
// as it was and reports changed=false.
func (h *SemesterHandler) UpdateRow(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}

	var req model.UpdateRowRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.apply(c, http.StatusOK, semester.UpdateRowCommand{Index: index, Patch: req.Patch()})
}

// RemoveRow godoc
// DELETE /api/v1/planner/semesters/:number/rows/:index
// The last remaining row is never removed.
func (h *SemesterHandler) RemoveRow(c *gin.Context) {
	index, ok := rowIndex(c)
	if !ok {
		return
	}
	h.apply(c, http.StatusOK, semester.RemoveRowCommand{Index: index})
}

// ResetSemester godoc
// POST /api/v1/planner/semesters/:number/reset
func (h *SemesterHandler) ResetSemester(c *gin.Context) {
	h.apply(c, http.StatusOK, semester.ResetCommand{})
}

func (h *SemesterHandler) apply(c *gin.Context, status int, cmd semester.Command) {
	claims, number, ok := h.target(c)
	if !ok {
		return
	}

	view, err := h.planner.Apply(c.Request.Context(), claims.UserID, number, cmd, "")
	if err != nil {
		h.fail(c, err)
		return
	}
	if !view.Changed {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"semester": view})
}

// target resolves the caller and the :number path param.
func (h *SemesterHandler) target(c *gin.Context) (*service.Claims, int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, 0, false
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSemester)
		return nil, 0, false
	}
	return claims, number, true
}

func (h *SemesterHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSemester):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSemester)
	case errors.Is(err, service.ErrTooManyRows):
		response.Fail(c, http.StatusConflict, response.ErrTooManyRows)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Planner request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func rowIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return index, true
}
