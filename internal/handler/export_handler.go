package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/middleware"
	"github.com/stemsi/sgpa-planner/internal/response"
	"github.com/stemsi/sgpa-planner/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves the spreadsheet download.
type ExportHandler struct {
	exportService *service.ExportService
	log           zerolog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exportService *service.ExportService, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		log:           log.With().Str("component", "export_handler").Logger(),
	}
}

// ExportWorkbook godoc
// GET /api/v1/planner/export.xlsx
// Downloads every semester as an .xlsx workbook.
func (h *ExportHandler) ExportWorkbook(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	data, err := h.exportService.ExportWorkbook(c.Request.Context(), claims.UserID)
	if err != nil {
		h.log.Error().Err(err).Int("student_id", claims.UserID).Msg("Export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("sgpa-%s-%s.xlsx", claims.StudentNumber, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
