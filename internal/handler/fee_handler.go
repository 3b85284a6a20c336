package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/service"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/response"
)

type feeService interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.FeeQuery) ([]models.FeeDetail, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.FeeDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateFeeRequest) (*models.FeeDetail, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateFeeRequest) (*models.FeeDetail, error)
	Pay(ctx context.Context, actor *models.JWTClaims, id string, req dto.PayFeeRequest) (*models.FeeDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	SweepOverdue(ctx context.Context, actor *models.JWTClaims) (*dto.OverdueSweepResult, error)
}

type feeCalculator interface {
	Calculate(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.FeeCalculation, error)
}

var feeTypes = map[models.FeeType]struct{}{
	models.FeeTypeHostel:   {},
	models.FeeTypeMess:     {},
	models.FeeTypeSecurity: {},
	models.FeeTypeFine:     {},
}

// FeeHandler exposes the fee ledger.
type FeeHandler struct {
	fees       feeService
	calculator feeCalculator
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees feeService, calculator feeCalculator) *FeeHandler {
	return &FeeHandler{fees: fees, calculator: calculator}
}

// List godoc
// @Summary List fees
// @Description Students only see their own fees. Status overdue includes pending fees past due.
// @Tags Fees
// @Produce json
// @Param student_id query string false "Student"
// @Param fee_type query string false "hostel, mess, security or fine"
// @Param status query string false "pending, paid or overdue"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	query := dto.FeeQuery{
		HostelID:  c.Query("hostel_id"),
		StudentID: c.Query("student_id"),
		FeeType:   models.FeeType(c.Query("fee_type")),
		Status:    models.FeeStatus(c.Query("status")),
	}
	query.Page, query.PageSize = pageParams(c)

	fees, pagination, err := h.fees.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Get godoc
// @Summary Get fee
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Calculate godoc
// @Summary Propose a hostel fee from the student's room type
// @Description The amount is informational; POST /fees stores whatever amount is submitted.
// @Tags Fees
// @Produce json
// @Param studentId path string true "Student ID"
// @Param fee_type query string false "Withholds the amount unless hostel"
// @Success 200 {object} response.Envelope
// @Router /fees/calculate/{studentId} [get]
func (h *FeeHandler) Calculate(c *gin.Context) {
	feeType := models.FeeType(c.Query("fee_type"))
	if feeType != "" {
		if _, ok := feeTypes[feeType]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown fee_type"))
			return
		}
	}
	calc, err := h.calculator.Calculate(c.Request.Context(), claimsFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if feeType != "" {
		calc = service.ForFeeType(feeType, calc)
	}
	response.JSON(c, http.StatusOK, calc, nil)
}

// Create godoc
// @Summary Record fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body dto.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req dto.CreateFeeRequest
	if !bindJSON(c, &req, "invalid fee payload") {
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Update pending fee
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body dto.UpdateFeeRequest true "Fee payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req dto.UpdateFeeRequest
	if !bindJSON(c, &req, "invalid fee payload") {
		return
	}
	fee, err := h.fees.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Pay godoc
// @Summary Mark fee paid
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body dto.PayFeeRequest false "Paid date"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /fees/{id}/pay [post]
func (h *FeeHandler) Pay(c *gin.Context) {
	var req dto.PayFeeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	fee, err := h.fees.Pay(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete pending fee
// @Tags Fees
// @Param id path string true "Fee ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SweepOverdue godoc
// @Summary Persist overdue status
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/overdue/sweep [post]
func (h *FeeHandler) SweepOverdue(c *gin.Context) {
	result, err := h.fees.SweepOverdue(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
