package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type roomTypeRepository interface {
	List(ctx context.Context) ([]models.RoomType, error)
	FindByID(ctx context.Context, id string) (*models.RoomType, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, rt *models.RoomType) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, rt *models.RoomType) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type roomTypeUsage interface {
	MaxCapacityForType(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error)
	CountByTypeTx(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error)
}

// RoomTypeService manages room templates.
type RoomTypeService struct {
	tx        txProvider
	repo      roomTypeRepository
	rooms     roomTypeUsage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomTypeService constructs the room type service.
func NewRoomTypeService(tx txProvider, repo roomTypeRepository, rooms roomTypeUsage, validate *validator.Validate, logger *zap.Logger) *RoomTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomTypeService{tx: tx, repo: repo, rooms: rooms, validator: validate, logger: logger}
}

// List returns all room types ordered by name.
func (s *RoomTypeService) List(ctx context.Context) ([]models.RoomType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrapInternal(err, "failed to list room types")
	}
	return types, nil
}

// Get returns a room type.
func (s *RoomTypeService) Get(ctx context.Context, id string) (*models.RoomType, error) {
	rt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "room type not found", "failed to load room type")
	}
	return rt, nil
}

// Create defines a new room type.
func (s *RoomTypeService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomTypeRequest) (*models.RoomType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room type payload")
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}
	rt := &models.RoomType{
		Name:          req.Name,
		Capacity:      req.Capacity,
		PricePerMonth: req.PricePerMonth,
		Description:   req.Description,
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, wrapInternal(err, "failed to create room type")
	}
	return rt, nil
}

// Update edits a room type. Capacity may not drop below the capacity of any room using it.
func (s *RoomTypeService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomTypeRequest) (result *models.RoomType, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room type payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	if err = s.ensureUniqueName(ctx, req.Name, id); err != nil {
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

	rt, err := s.repo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room type not found", "failed to load room type")
	}
	largest, err := s.rooms.MaxCapacityForType(ctx, tx, id)
	if err != nil {
		return nil, wrapInternal(err, "failed to check room capacities")
	}
	if req.Capacity < largest {
		return nil, appErrors.Clone(appErrors.ErrInvalidCapacity, fmt.Sprintf("capacity %d is below existing rooms of this type (%d)", req.Capacity, largest))
	}

	rt.Name = req.Name
	rt.Capacity = req.Capacity
	rt.PricePerMonth = req.PricePerMonth
	rt.Description = req.Description
	if err = s.repo.UpdateTx(ctx, tx, rt); err != nil {
		return nil, wrapInternal(err, "failed to update room type")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit room type")
	}
	return rt, nil
}

// Delete removes a room type no room references. The type row stays locked while usage is counted,
// which blocks room creation against it until commit.
func (s *RoomTypeService) Delete(ctx context.Context, actor *models.JWTClaims, id string) (err error) {
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

	if _, err = s.repo.LockByID(ctx, tx, id); err != nil {
		return notFoundOr(err, "room type not found", "failed to load room type")
	}
	count, err := s.rooms.CountByTypeTx(ctx, tx, id)
	if err != nil {
		return wrapInternal(err, "failed to check room type usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("room type is used by %d rooms", count))
	}
	if err = s.repo.DeleteTx(ctx, tx, id); err != nil {
		return wrapInternal(err, "failed to delete room type")
	}
	if err = tx.Commit(); err != nil {
		return wrapInternal(err, "failed to commit room type deletion")
	}
	return nil
}

func (s *RoomTypeService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return wrapInternal(err, "failed to validate room type name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "room type name already used")
	}
	return nil
}
