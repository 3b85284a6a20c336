package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type ledgerRoomRepository interface {
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Room, error)
	UpdateOccupancy(ctx context.Context, tx *sqlx.Tx, id string, occupancy int) error
	FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error)
}

type ledgerStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error)
	SetRoom(ctx context.Context, tx *sqlx.Tx, studentID string, roomID *string) error
}

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AllocationService binds students to rooms and releases them.
type AllocationService struct {
	tx        txProvider
	rooms     ledgerRoomRepository
	students  ledgerStudentRepository
	audit     auditLogWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAllocationService constructs the allocation service.
func NewAllocationService(tx txProvider, rooms ledgerRoomRepository, students ledgerStudentRepository, audit auditLogWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{tx: tx, rooms: rooms, students: students, audit: audit, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Allocate assigns a student without a room to an eligible room in one transaction.
func (s *AllocationService) Allocate(ctx context.Context, actor *models.JWTClaims, req dto.AllocateRoomRequest) (result *dto.AllocationResult, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordLedgerOperation(LedgerOpAllocate, err) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	room, err := s.rooms.LockByID(ctx, tx, req.RoomID)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	if err = authorizeHostel(actor, room.HostelID); err != nil {
		return nil, err
	}
	student, err := s.students.LockByID(ctx, tx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.HostelID != room.HostelID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and room belong to different hostels")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is inactive")
	}
	if err = CheckAllocatable(*room); err != nil {
		return nil, err
	}
	if student.HasRoom() {
		return nil, appErrors.Clone(appErrors.ErrAlreadyAssigned, "student already holds a room; request a transfer instead")
	}

	if err = Occupy(room); err != nil {
		return nil, err
	}
	if err = s.rooms.UpdateOccupancy(ctx, tx, room.ID, room.OccupancyCount); err != nil {
		return nil, wrapInternal(err, "failed to update room occupancy")
	}
	if err = s.students.SetRoom(ctx, tx, student.ID, &room.ID); err != nil {
		return nil, wrapInternal(err, "failed to assign room")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit allocation")
	}

	student.RoomID = &room.ID
	s.afterLedgerChange(ctx, actor, models.AuditActionRoomAllocate, student.ID, map[string]interface{}{
		"room_id":         room.ID,
		"occupancy_count": room.OccupancyCount,
	})
	s.logger.Info("room allocated", zap.String("student_id", student.ID), zap.String("room_id", room.ID), zap.Int("occupancy", room.OccupancyCount))

	return &dto.AllocationResult{Student: *student, Room: s.roomDetail(ctx, *room)}, nil
}

// Vacate releases the room held by a student.
func (s *AllocationService) Vacate(ctx context.Context, actor *models.JWTClaims, req dto.VacateRoomRequest) (result *dto.AllocationResult, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vacate payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordLedgerOperation(LedgerOpVacate, err) }()

	current, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err = authorizeHostel(actor, current.HostelID); err != nil {
		return nil, err
	}
	if !current.HasRoom() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student does not hold a room")
	}
	roomID := *current.RoomID

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Rooms are always locked before students.
	room, err := s.rooms.LockByID(ctx, tx, roomID)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	student, err := s.students.LockByID(ctx, tx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.RoomID == nil || *student.RoomID != room.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student room changed concurrently; retry")
	}

	Release(room)
	if err = s.rooms.UpdateOccupancy(ctx, tx, room.ID, room.OccupancyCount); err != nil {
		return nil, wrapInternal(err, "failed to update room occupancy")
	}
	if err = s.students.SetRoom(ctx, tx, student.ID, nil); err != nil {
		return nil, wrapInternal(err, "failed to clear room")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit vacate")
	}

	student.RoomID = nil
	s.afterLedgerChange(ctx, actor, models.AuditActionRoomVacate, student.ID, map[string]interface{}{
		"room_id":         room.ID,
		"occupancy_count": room.OccupancyCount,
	})

	return &dto.AllocationResult{Student: *student, Room: s.roomDetail(ctx, *room)}, nil
}

func (s *AllocationService) roomDetail(ctx context.Context, room models.Room) models.RoomDetail {
	return loadRoomDetail(ctx, s.rooms, s.logger, room)
}

func (s *AllocationService) afterLedgerChange(ctx context.Context, actor *models.JWTClaims, action, studentID string, values map[string]interface{}) {
	invalidateDashboard(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, actor, action, "student", studentID, values)
}

// loadRoomDetail re-reads a room after commit, falling back to the locked copy.
func loadRoomDetail(ctx context.Context, rooms interface {
	FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error)
}, logger *zap.Logger, room models.Room) models.RoomDetail {
	detail, err := rooms.FindDetailByID(ctx, room.ID)
	if err != nil || detail == nil {
		if err != nil {
			logger.Warn("failed to reload room after ledger change", zap.String("room_id", room.ID), zap.Error(err))
		}
		fallback := models.RoomDetail{Room: room}
		fallback.Refresh()
		return fallback
	}
	return *detail
}

func invalidateDashboard(ctx context.Context, cache *CacheService) {
	if cache == nil {
		return
	}
	_ = cache.InvalidateOccupancy(ctx)
}

func recordAudit(ctx context.Context, audit auditLogWriter, logger *zap.Logger, actor *models.JWTClaims, action, resource, resourceID string, values map[string]interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: resource, ResourceID: &resourceID}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if values != nil {
		if payload, err := json.Marshal(values); err == nil {
			entry.NewValues = payload
		}
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return wrapInternal(err, internal)
}
