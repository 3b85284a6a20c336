package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Room, error)
	ExistsByNumber(ctx context.Context, hostelID, roomNumber, excludeID string) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error
	SetMaintenanceTx(ctx context.Context, tx *sqlx.Tx, id string, underMaintenance bool) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type roomTypeReader interface {
	FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error)
}

type pendingTransferCounter interface {
	CountPendingForRoom(ctx context.Context, tx *sqlx.Tx, roomID string) (int, error)
}

// RoomService manages physical rooms. Occupancy is owned by the allocation and transfer workflows.
type RoomService struct {
	tx        txProvider
	rooms     roomRepository
	types     roomTypeReader
	transfers pendingTransferCounter
	audit     auditLogWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the room service.
func NewRoomService(tx txProvider, rooms roomRepository, types roomTypeReader, transfers pendingTransferCounter, audit auditLogWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{
		tx:        tx,
		rooms:     rooms,
		types:     types,
		transfers: transfers,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// List returns rooms visible to the caller with derived status.
func (s *RoomService) List(ctx context.Context, actor *models.JWTClaims, filter models.RoomFilter) ([]models.RoomDetail, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown room status")
	}
	filter.HostelID = actor.ScopeHostel(filter.HostelID)
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, wrapInternal(err, "failed to list rooms")
	}
	return rooms, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a room with derived status.
func (s *RoomService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RoomDetail, error) {
	room, err := s.rooms.FindDetailByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	if err := authorizeHostel(actor, room.HostelID); err != nil {
		return nil, err
	}
	return room, nil
}

// Create registers an empty room. Capacity defaults to the room type capacity. The room type is
// share-locked until commit so a concurrent type edit cannot shrink it below the new room.
func (s *RoomService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomRequest) (result *models.RoomDetail, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	hostelID, err := resolveHostel(actor, req.HostelID)
	if err != nil {
		return nil, err
	}
	if err = s.ensureUniqueNumber(ctx, hostelID, req.RoomNumber, ""); err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rt, err := s.types.FindByIDTx(ctx, tx, req.RoomTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "room type not found")
		}
		return nil, wrapInternal(err, "failed to load room type")
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = rt.Capacity
	}
	if err = ValidateRoomCapacity(capacity, *rt, 0); err != nil {
		return nil, err
	}

	room := &models.Room{
		HostelID:   hostelID,
		RoomNumber: req.RoomNumber,
		RoomTypeID: rt.ID,
		Floor:      req.Floor,
		Capacity:   capacity,
	}
	if err = s.rooms.CreateTx(ctx, tx, room); err != nil {
		return nil, wrapInternal(err, "failed to create room")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit room")
	}
	invalidateDashboard(ctx, s.cache)

	detail := models.RoomDetail{Room: *room, RoomTypeName: rt.Name, RoomTypeCapacity: rt.Capacity, PricePerMonth: rt.PricePerMonth}
	detail.Refresh()
	return &detail, nil
}

// Update edits a room. Capacity must fit the room type and hold the current occupants.
func (s *RoomService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomRequest) (result *models.RoomDetail, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordLedgerOperation(LedgerOpCapacityEdit, err) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	if err = authorizeHostel(actor, room.HostelID); err != nil {
		return nil, err
	}
	rt, err := s.types.FindByIDTx(ctx, tx, req.RoomTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "room type not found")
		}
		return nil, wrapInternal(err, "failed to load room type")
	}
	if err = ValidateRoomCapacity(req.Capacity, *rt, room.OccupancyCount); err != nil {
		return nil, err
	}
	if err = s.ensureUniqueNumber(ctx, room.HostelID, req.RoomNumber, room.ID); err != nil {
		return nil, err
	}

	previousCapacity := room.Capacity
	room.RoomNumber = req.RoomNumber
	room.RoomTypeID = rt.ID
	room.Floor = req.Floor
	room.Capacity = req.Capacity
	if err = s.rooms.UpdateTx(ctx, tx, room); err != nil {
		return nil, wrapInternal(err, "failed to update room")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit room")
	}

	invalidateDashboard(ctx, s.cache)
	if previousCapacity != room.Capacity {
		recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRoomCapacity, "room", room.ID, map[string]interface{}{
			"previous_capacity": previousCapacity,
			"capacity":          room.Capacity,
		})
	}
	detail := loadRoomDetail(ctx, s.rooms, s.logger, *room)
	return &detail, nil
}

// SetMaintenance toggles the maintenance flag. Occupants stay; new allocations are refused.
func (s *RoomService) SetMaintenance(ctx context.Context, actor *models.JWTClaims, id string, req dto.SetMaintenanceRequest) (result *models.RoomDetail, err error) {
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	if err = authorizeHostel(actor, room.HostelID); err != nil {
		return nil, err
	}
	if err = s.rooms.SetMaintenanceTx(ctx, tx, id, req.UnderMaintenance); err != nil {
		return nil, wrapInternal(err, "failed to update maintenance flag")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit maintenance flag")
	}
	invalidateDashboard(ctx, s.cache)

	room.UnderMaintenance = req.UnderMaintenance
	detail := loadRoomDetail(ctx, s.rooms, s.logger, *room)
	return &detail, nil
}

// Delete removes an empty room that no pending transfer references.
func (s *RoomService) Delete(ctx context.Context, actor *models.JWTClaims, id string) (err error) {
	if err = requireAdmin(actor); err != nil {
		return err
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.LockByID(ctx, tx, id)
	if err != nil {
		return notFoundOr(err, "room not found", "failed to load room")
	}
	if err = authorizeHostel(actor, room.HostelID); err != nil {
		return err
	}
	if room.OccupancyCount > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "room is occupied; vacate it before deleting")
	}
	pending, err := s.transfers.CountPendingForRoom(ctx, tx, id)
	if err != nil {
		return wrapInternal(err, "failed to check pending transfers")
	}
	if pending > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "room is referenced by pending transfer requests")
	}
	if err = s.rooms.DeleteTx(ctx, tx, id); err != nil {
		return wrapInternal(err, "failed to delete room")
	}
	if err = tx.Commit(); err != nil {
		return wrapInternal(err, "failed to commit room deletion")
	}
	invalidateDashboard(ctx, s.cache)
	return nil
}

func (s *RoomService) ensureUniqueNumber(ctx context.Context, hostelID, roomNumber, excludeID string) error {
	exists, err := s.rooms.ExistsByNumber(ctx, hostelID, roomNumber, excludeID)
	if err != nil {
		return wrapInternal(err, "failed to validate room number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "room number already used in this hostel")
	}
	return nil
}
