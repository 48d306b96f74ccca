package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/sgpa-planner/internal/grade"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/response"
	"github.com/stemsi/sgpa-planner/internal/semester"
	"github.com/stemsi/sgpa-planner/internal/validator"
)

// GradeHandler serves the grade scale and stateless SGPA computation.
type GradeHandler struct{}

// NewGradeHandler creates a new GradeHandler.
func NewGradeHandler() *GradeHandler {
	return &GradeHandler{}
}

// ListGrades godoc
// GET /api/v1/grades
// Returns the grade scale in display order.
func (h *GradeHandler) ListGrades(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"grades": grade.Entries()})
}

// ComputeSGPA godoc
// POST /api/v1/sgpa
// Computes the SGPA of the posted rows without storing anything.
func (h *GradeHandler) ComputeSGPA(c *gin.Context) {
	var req model.ComputeSGPARequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rows := model.ToRows(req.Rows)
	response.Success(c, http.StatusOK, gin.H{
		"rows":          rows,
		"sgpa":          semester.ComputeSGPA(rows),
		"total_credits": rows.TotalCredits(),
	})
}
