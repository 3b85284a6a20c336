package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type feeServiceMock struct {
	payErr     error
	lastQuery  dto.FeeQuery
	lastCreate dto.CreateFeeRequest
	lastPay    dto.PayFeeRequest
	swept      bool
}

func (m *feeServiceMock) List(ctx context.Context, actor *models.JWTClaims, query dto.FeeQuery) ([]models.FeeDetail, *models.Pagination, error) {
	m.lastQuery = query
	return []models.FeeDetail{}, models.NewPagination(query.Page, query.PageSize, 0), nil
}

func (m *feeServiceMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.FeeDetail, error) {
	return &models.FeeDetail{Fee: models.Fee{ID: id}}, nil
}

func (m *feeServiceMock) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateFeeRequest) (*models.FeeDetail, error) {
	m.lastCreate = req
	amount := 0.0
	if req.Amount != nil {
		amount = *req.Amount
	}
	return &models.FeeDetail{Fee: models.Fee{ID: "fee-1", FeeType: req.FeeType, Amount: amount, Status: models.FeeStatusPending}}, nil
}

func (m *feeServiceMock) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateFeeRequest) (*models.FeeDetail, error) {
	return &models.FeeDetail{Fee: models.Fee{ID: id, Amount: req.Amount}}, nil
}

func (m *feeServiceMock) Pay(ctx context.Context, actor *models.JWTClaims, id string, req dto.PayFeeRequest) (*models.FeeDetail, error) {
	m.lastPay = req
	if m.payErr != nil {
		return nil, m.payErr
	}
	return &models.FeeDetail{Fee: models.Fee{ID: id, Status: models.FeeStatusPaid}}, nil
}

func (m *feeServiceMock) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func (m *feeServiceMock) SweepOverdue(ctx context.Context, actor *models.JWTClaims) (*dto.OverdueSweepResult, error) {
	m.swept = true
	return &dto.OverdueSweepResult{Updated: 3}, nil
}

type calculatorMock struct {
	calc          *dto.FeeCalculation
	lastStudentID string
}

func (m *calculatorMock) Calculate(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.FeeCalculation, error) {
	m.lastStudentID = studentID
	return m.calc, nil
}

func proposal(amount float64) *dto.FeeCalculation {
	return &dto.FeeCalculation{HasRoom: true, CalculatedAmount: &amount, RoomNumber: "101", RoomType: "Quad"}
}

func TestFeeHandlerCalculateHostelFee(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calc := &calculatorMock{calc: proposal(5000)}
	handler := NewFeeHandler(&feeServiceMock{}, calc)

	c, w := newGinContext(http.MethodGet, "/fees/calculate/stu-1?fee_type=hostel", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Calculate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", calc.lastStudentID)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, float64(5000), envelope.Data["calculated_amount"])
	assert.Equal(t, "Quad", envelope.Data["room_type"])
}

func TestFeeHandlerCalculateWithholdsAmountForOtherTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeeHandler(&feeServiceMock{}, &calculatorMock{calc: proposal(5000)})

	c, w := newGinContext(http.MethodGet, "/fees/calculate/stu-1?fee_type=mess", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Calculate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	_, present := envelope.Data["calculated_amount"]
	assert.False(t, present)
	assert.Equal(t, true, envelope.Data["has_room"])
}

func TestFeeHandlerCalculateUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeeHandler(&feeServiceMock{}, &calculatorMock{calc: proposal(5000)})

	c, w := newGinContext(http.MethodGet, "/fees/calculate/stu-1?fee_type=parking", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Calculate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerCreateKeepsSubmittedAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &feeServiceMock{}
	handler := NewFeeHandler(svc, &calculatorMock{})

	c, w := newGinContext(http.MethodPost, "/fees", []byte(`{"student_id":"stu-1","fee_type":"hostel","amount":4500}`))
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastCreate.Amount)
	assert.Equal(t, 4500.0, *svc.lastCreate.Amount)
}

func TestFeeHandlerPay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &feeServiceMock{}
	handler := NewFeeHandler(svc, &calculatorMock{})

	c, w := newGinContext(http.MethodPost, "/fees/fee-1/pay", []byte(`{"paid_date":"2026-05-03T00:00:00Z"}`))
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Pay(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastPay.PaidDate)
	assert.True(t, svc.lastPay.PaidDate.Equal(time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)))
}

func TestFeeHandlerPayConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeeHandler(&feeServiceMock{payErr: appErrors.Clone(appErrors.ErrConflict, "fee is already paid")}, &calculatorMock{})

	c, w := newGinContext(http.MethodPost, "/fees/fee-1/pay", nil)
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.Pay(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFeeHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &feeServiceMock{}
	handler := NewFeeHandler(svc, &calculatorMock{})

	c, w := newGinContext(http.MethodGet, "/fees?status=overdue&fee_type=mess&student_id=stu-9", nil)
	c.Set(middleware.ContextUserKey, adminContextClaims())

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FeeStatusOverdue, svc.lastQuery.Status)
	assert.Equal(t, models.FeeTypeMess, svc.lastQuery.FeeType)
	assert.Equal(t, "stu-9", svc.lastQuery.StudentID)
}
