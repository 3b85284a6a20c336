package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/response"
)

type reportService interface {
	ExportFees(ctx context.Context, actor *models.JWTClaims, query dto.FeeReportQuery) (*dto.ReportFile, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// FeeLedger godoc
// @Summary Export the fee ledger
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param student_id query string false "Student"
// @Param fee_type query string false "Fee type"
// @Param status query string false "pending, paid or overdue"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/fees [get]
func (h *ReportHandler) FeeLedger(c *gin.Context) {
	var query dto.FeeReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report parameters"))
		return
	}
	file, err := h.reports.ExportFees(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
