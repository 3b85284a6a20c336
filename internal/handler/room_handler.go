package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/pkg/response"
)

type roomService interface {
	List(ctx context.Context, actor *models.JWTClaims, filter models.RoomFilter) ([]models.RoomDetail, *models.Pagination, error)
	Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RoomDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomRequest) (*models.RoomDetail, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomRequest) (*models.RoomDetail, error)
	SetMaintenance(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetMaintenanceRequest) (*models.RoomDetail, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

type roomTypeService interface {
	List(ctx context.Context) ([]models.RoomType, error)
	Get(ctx context.Context, id string) (*models.RoomType, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomTypeRequest) (*models.RoomType, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomTypeRequest) (*models.RoomType, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

type allocationService interface {
	Allocate(ctx context.Context, actor *models.JWTClaims, req dto.AllocateRoomRequest) (*dto.AllocationResult, error)
	Vacate(ctx context.Context, actor *models.JWTClaims, req dto.VacateRoomRequest) (*dto.AllocationResult, error)
}

// RoomHandler exposes rooms, room types and the allocation workflow.
type RoomHandler struct {
	rooms       roomService
	types       roomTypeService
	allocations allocationService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms roomService, types roomTypeService, allocations allocationService) *RoomHandler {
	return &RoomHandler{rooms: rooms, types: types, allocations: allocations}
}

// List godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param hostel_id query string false "Hostel (super admin only)"
// @Param status query string false "available, occupied or maintenance"
// @Param room_type_id query string false "Room type"
// @Param available_only query bool false "Only rooms with free beds"
// @Param search query string false "Room number prefix"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	filter := models.RoomFilter{
		HostelID:      c.Query("hostel_id"),
		RoomTypeID:    c.Query("room_type_id"),
		Status:        models.RoomStatus(c.Query("status")),
		AvailableOnly: c.Query("available_only") == "true",
		Search:        strings.TrimSpace(c.Query("search")),
		SortBy:        c.Query("sort"),
		SortOrder:     c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	rooms, pagination, err := h.rooms.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// Get godoc
// @Summary Get room detail
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Register room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if !bindJSON(c, &req, "invalid room payload") {
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.UpdateRoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if !bindJSON(c, &req, "invalid room payload") {
		return
	}
	room, err := h.rooms.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// SetMaintenance godoc
// @Summary Toggle maintenance flag
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.SetMaintenanceRequest true "Maintenance flag"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/maintenance [patch]
func (h *RoomHandler) SetMaintenance(c *gin.Context) {
	var req dto.SetMaintenanceRequest
	if !bindJSON(c, &req, "invalid maintenance payload") {
		return
	}
	room, err := h.rooms.SetMaintenance(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Rooms
// @Param id path string true "Room ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /rooms/{id} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTypes godoc
// @Summary List room types
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms/types/all [get]
func (h *RoomHandler) ListTypes(c *gin.Context) {
	types, err := h.types.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// GetType godoc
// @Summary Get room type
// @Tags Rooms
// @Produce json
// @Param id path string true "Room type ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/types/{id} [get]
func (h *RoomHandler) GetType(c *gin.Context) {
	roomType, err := h.types.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roomType, nil)
}

// CreateType godoc
// @Summary Create room type
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomTypeRequest true "Room type payload"
// @Success 201 {object} response.Envelope
// @Router /rooms/types [post]
func (h *RoomHandler) CreateType(c *gin.Context) {
	var req dto.CreateRoomTypeRequest
	if !bindJSON(c, &req, "invalid room type payload") {
		return
	}
	roomType, err := h.types.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, roomType)
}

// UpdateType godoc
// @Summary Update room type
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room type ID"
// @Param payload body dto.UpdateRoomTypeRequest true "Room type payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /rooms/types/{id} [put]
func (h *RoomHandler) UpdateType(c *gin.Context) {
	var req dto.UpdateRoomTypeRequest
	if !bindJSON(c, &req, "invalid room type payload") {
		return
	}
	roomType, err := h.types.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roomType, nil)
}

// DeleteType godoc
// @Summary Delete room type
// @Tags Rooms
// @Param id path string true "Room type ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /rooms/types/{id} [delete]
func (h *RoomHandler) DeleteType(c *gin.Context) {
	if err := h.types.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Allocate godoc
// @Summary Allocate a room to a student
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.AllocateRoomRequest true "Allocation"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rooms/allocate [post]
func (h *RoomHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRoomRequest
	if !bindJSON(c, &req, "invalid allocation payload") {
		return
	}
	result, err := h.allocations.Allocate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Vacate godoc
// @Summary Release a student's room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.VacateRoomRequest true "Vacate"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rooms/vacate [post]
func (h *RoomHandler) Vacate(c *gin.Context) {
	var req dto.VacateRoomRequest
	if !bindJSON(c, &req, "invalid vacate payload") {
		return
	}
	result, err := h.allocations.Vacate(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
