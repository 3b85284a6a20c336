package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/pkg/response"
)

type roomTransferService interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.RoomTransferQuery) ([]models.RoomTransferDetail, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RoomTransferDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomTransferRequest) (*models.RoomTransferDetail, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomTransferRequest) (*models.RoomTransferDetail, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewRoomTransferRequest) (*dto.TransferResult, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewRoomTransferRequest) (*models.RoomTransferDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// RoomTransferHandler exposes the transfer request workflow.
type RoomTransferHandler struct {
	transfers roomTransferService
}

// NewRoomTransferHandler constructs RoomTransferHandler.
func NewRoomTransferHandler(transfers roomTransferService) *RoomTransferHandler {
	return &RoomTransferHandler{transfers: transfers}
}

// List godoc
// @Summary List transfer requests
// @Tags Room Transfers
// @Produce json
// @Param student_id query string false "Student"
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /room-transfers [get]
func (h *RoomTransferHandler) List(c *gin.Context) {
	query := dto.RoomTransferQuery{
		HostelID:  c.Query("hostel_id"),
		StudentID: c.Query("student_id"),
		Status:    models.TransferStatus(c.Query("status")),
	}
	query.Page, query.PageSize = pageParams(c)

	transfers, pagination, err := h.transfers.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfers, pagination)
}

// Get godoc
// @Summary Get transfer request
// @Tags Room Transfers
// @Produce json
// @Param id path string true "Transfer ID"
// @Success 200 {object} response.Envelope
// @Router /room-transfers/{id} [get]
func (h *RoomTransferHandler) Get(c *gin.Context) {
	transfer, err := h.transfers.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfer, nil)
}

// Create godoc
// @Summary File transfer request
// @Tags Room Transfers
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomTransferRequest true "Transfer payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-transfers [post]
func (h *RoomTransferHandler) Create(c *gin.Context) {
	var req dto.CreateRoomTransferRequest
	if !bindJSON(c, &req, "invalid transfer payload") {
		return
	}
	transfer, err := h.transfers.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transfer)
}

// Update godoc
// @Summary Edit pending transfer request
// @Tags Room Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param payload body dto.UpdateRoomTransferRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Router /room-transfers/{id} [put]
func (h *RoomTransferHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomTransferRequest
	if !bindJSON(c, &req, "invalid transfer payload") {
		return
	}
	transfer, err := h.transfers.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfer, nil)
}

// Approve godoc
// @Summary Approve and execute transfer
// @Tags Room Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param payload body dto.ReviewRoomTransferRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-transfers/{id}/approve [post]
func (h *RoomTransferHandler) Approve(c *gin.Context) {
	var req dto.ReviewRoomTransferRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid review payload") {
		return
	}
	result, err := h.transfers.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject transfer
// @Tags Room Transfers
// @Accept json
// @Produce json
// @Param id path string true "Transfer ID"
// @Param payload body dto.ReviewRoomTransferRequest false "Reviewer note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /room-transfers/{id}/reject [post]
func (h *RoomTransferHandler) Reject(c *gin.Context) {
	var req dto.ReviewRoomTransferRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid review payload") {
		return
	}
	transfer, err := h.transfers.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfer, nil)
}

// Delete godoc
// @Summary Delete transfer request
// @Tags Room Transfers
// @Param id path string true "Transfer ID"
// @Success 204
// @Router /room-transfers/{id} [delete]
func (h *RoomTransferHandler) Delete(c *gin.Context) {
	if err := h.transfers.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
