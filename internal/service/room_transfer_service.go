package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/repository"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type roomTransferRepository interface {
	Create(ctx context.Context, transfer *models.RoomTransfer) error
	FindByID(ctx context.Context, id string) (*models.RoomTransferDetail, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomTransfer, error)
	List(ctx context.Context, filter models.RoomTransferFilter) ([]models.RoomTransferDetail, int, error)
	UpdatePending(ctx context.Context, id, toRoomID, reason string) error
	MarkReviewed(ctx context.Context, tx *sqlx.Tx, params repository.ReviewParams) error
	Delete(ctx context.Context, id string) error
	HasPendingForStudent(ctx context.Context, studentID string) (bool, error)
}

type transferStudentRepository interface {
	ledgerStudentRepository
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// RoomTransferService runs the transfer request workflow: pending, then approved or rejected.
type RoomTransferService struct {
	tx        txProvider
	transfers roomTransferRepository
	rooms     ledgerRoomRepository
	students  transferStudentRepository
	audit     auditLogWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRoomTransferService constructs the service.
func NewRoomTransferService(tx txProvider, transfers roomTransferRepository, rooms ledgerRoomRepository, students transferStudentRepository, audit auditLogWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RoomTransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomTransferService{
		tx:        tx,
		transfers: transfers,
		rooms:     rooms,
		students:  students,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns transfer requests visible to the caller.
func (s *RoomTransferService) List(ctx context.Context, actor *models.JWTClaims, query dto.RoomTransferQuery) ([]models.RoomTransferDetail, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	filter := models.RoomTransferFilter{
		HostelID:  actor.ScopeHostel(query.HostelID),
		StudentID: query.StudentID,
		Status:    query.Status,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if !actor.IsAdmin() {
		self, err := s.selfStudent(ctx, actor)
		if err != nil {
			return nil, nil, err
		}
		filter.StudentID = self.ID
	}
	transfers, total, err := s.transfers.List(ctx, filter)
	if err != nil {
		return nil, nil, wrapInternal(err, "failed to list room transfers")
	}
	return transfers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single transfer request.
func (s *RoomTransferService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.RoomTransferDetail, error) {
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

// Create files a pending transfer from the student's current room.
func (s *RoomTransferService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateRoomTransferRequest) (*models.RoomTransferDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var student *models.Student
	if actor.IsAdmin() {
		if req.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
		}
		detail, err := s.students.FindByID(ctx, req.StudentID)
		if err != nil {
			return nil, notFoundOr(err, "student not found", "failed to load student")
		}
		student = &detail.Student
	} else {
		self, err := s.selfStudent(ctx, actor)
		if err != nil {
			return nil, err
		}
		if req.StudentID != "" && req.StudentID != self.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only request transfers for themselves")
		}
		student = self
	}
	if err := authorizeStudent(actor, *student); err != nil {
		return nil, err
	}
	if !student.HasRoom() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student holds no room; allocate one instead")
	}
	fromRoomID := *student.RoomID
	if req.FromRoomID != "" && req.FromRoomID != fromRoomID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from_room_id must be the student's current room")
	}
	if err := s.checkDestination(ctx, student.HostelID, fromRoomID, req.ToRoomID); err != nil {
		return nil, err
	}

	pending, err := s.transfers.HasPendingForStudent(ctx, student.ID)
	if err != nil {
		return nil, wrapInternal(err, "failed to check pending transfers")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a pending transfer request")
	}

	transfer := &models.RoomTransfer{
		StudentID:   student.ID,
		FromRoomID:  fromRoomID,
		ToRoomID:    req.ToRoomID,
		Reason:      req.Reason,
		RequestedBy: actor.UserID,
		RequestedAt: s.now().UTC(),
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		return nil, wrapInternal(err, "failed to create room transfer")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionTransferRequest, "room_transfer", transfer.ID, map[string]interface{}{
		"student_id":   transfer.StudentID,
		"from_room_id": transfer.FromRoomID,
		"to_room_id":   transfer.ToRoomID,
	})
	invalidateDashboard(ctx, s.cache)

	detail, err := s.transfers.FindByID(ctx, transfer.ID)
	if err != nil {
		s.logger.Warn("failed to reload room transfer", zap.String("id", transfer.ID), zap.Error(err))
		return &models.RoomTransferDetail{RoomTransfer: *transfer, HostelID: student.HostelID, StudentName: student.FullName}, nil
	}
	return detail, nil
}

// Update changes the destination or reason of a pending request.
func (s *RoomTransferService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateRoomTransferRequest) (*models.RoomTransferDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, detail); err != nil {
		return nil, err
	}
	if detail.Status != models.TransferStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending transfer requests can be edited")
	}
	if err := s.checkDestination(ctx, detail.HostelID, detail.FromRoomID, req.ToRoomID); err != nil {
		return nil, err
	}
	if err := s.transfers.UpdatePending(ctx, id, req.ToRoomID, req.Reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transfer request is no longer pending")
		}
		return nil, wrapInternal(err, "failed to update room transfer")
	}
	return s.load(ctx, id)
}

// Approve applies a pending transfer: source loses a bed, destination gains one, the student moves.
// Nothing changes and the request stays pending when any check fails.
func (s *RoomTransferService) Approve(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewRoomTransferRequest) (result *dto.TransferResult, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordLedgerOperation(LedgerOpTransferApprove, err) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrapInternal(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	transfer, err := s.transfers.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room transfer not found", "failed to load room transfer")
	}
	if transfer.Status != models.TransferStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "transfer request is already "+string(transfer.Status))
	}

	source, destination, err := s.lockRoomPair(ctx, tx, transfer.FromRoomID, transfer.ToRoomID)
	if err != nil {
		return nil, err
	}
	if err = authorizeHostel(actor, source.HostelID); err != nil {
		return nil, err
	}
	student, err := s.students.LockByID(ctx, tx, transfer.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if student.RoomID == nil || *student.RoomID != source.ID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student no longer occupies the source room")
	}
	if err = Occupy(destination); err != nil {
		return nil, err
	}
	Release(source)

	if err = s.rooms.UpdateOccupancy(ctx, tx, source.ID, source.OccupancyCount); err != nil {
		return nil, wrapInternal(err, "failed to update source room")
	}
	if err = s.rooms.UpdateOccupancy(ctx, tx, destination.ID, destination.OccupancyCount); err != nil {
		return nil, wrapInternal(err, "failed to update destination room")
	}
	if err = s.students.SetRoom(ctx, tx, student.ID, &destination.ID); err != nil {
		return nil, wrapInternal(err, "failed to move student")
	}

	now := s.now().UTC()
	params := repository.ReviewParams{
		ID:           transfer.ID,
		Status:       models.TransferStatusApproved,
		ReviewedBy:   actor.UserID,
		ReviewedAt:   now,
		TransferDate: &now,
		Note:         optionalString(req.Note),
	}
	if err = s.transfers.MarkReviewed(ctx, tx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transfer request is no longer pending")
		}
		return nil, wrapInternal(err, "failed to approve room transfer")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit room transfer")
	}

	transfer.Status = models.TransferStatusApproved
	transfer.TransferDate = &now
	transfer.ReviewedAt = &now
	transfer.ReviewedBy = &actor.UserID
	transfer.ReviewNote = params.Note

	invalidateDashboard(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionTransferApprove, "room_transfer", transfer.ID, map[string]interface{}{
		"student_id":   student.ID,
		"from_room_id": source.ID,
		"to_room_id":   destination.ID,
	})
	s.logger.Info("room transfer approved", zap.String("transfer_id", transfer.ID), zap.String("student_id", student.ID))

	return &dto.TransferResult{
		Transfer: *transfer,
		FromRoom: loadRoomDetail(ctx, s.rooms, s.logger, *source),
		ToRoom:   loadRoomDetail(ctx, s.rooms, s.logger, *destination),
	}, nil
}

// Reject closes a pending request without touching rooms or students.
func (s *RoomTransferService) Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.ReviewRoomTransferRequest) (result *models.RoomTransferDetail, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = authorizeHostel(actor, detail.HostelID); err != nil {
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

	transfer, err := s.transfers.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "room transfer not found", "failed to load room transfer")
	}
	if transfer.Status != models.TransferStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "transfer request is already "+string(transfer.Status))
	}
	now := s.now().UTC()
	params := repository.ReviewParams{
		ID:         id,
		Status:     models.TransferStatusRejected,
		ReviewedBy: actor.UserID,
		ReviewedAt: now,
		Note:       optionalString(req.Note),
	}
	if err = s.transfers.MarkReviewed(ctx, tx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "transfer request is no longer pending")
		}
		return nil, wrapInternal(err, "failed to reject room transfer")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit room transfer")
	}

	detail.Status = models.TransferStatusRejected
	detail.ReviewedBy = &actor.UserID
	detail.ReviewedAt = &now
	detail.ReviewNote = params.Note
	invalidateDashboard(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionTransferReject, "room_transfer", id, nil)
	return detail, nil
}

// Delete removes a transfer record in any state. Applied moves are not undone.
func (s *RoomTransferService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	detail, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeHostel(actor, detail.HostelID); err != nil {
		return err
	}
	if err := s.transfers.Delete(ctx, id); err != nil {
		return wrapInternal(err, "failed to delete room transfer")
	}
	invalidateDashboard(ctx, s.cache)
	return nil
}

// lockRoomPair locks both rooms in ascending id order and returns them as (source, destination).
func (s *RoomTransferService) lockRoomPair(ctx context.Context, tx *sqlx.Tx, sourceID, destinationID string) (*models.Room, *models.Room, error) {
	firstID, secondID := sourceID, destinationID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.rooms.LockByID(ctx, tx, firstID)
	if err != nil {
		return nil, nil, notFoundOr(err, "room not found", "failed to load room")
	}
	second, err := s.rooms.LockByID(ctx, tx, secondID)
	if err != nil {
		return nil, nil, notFoundOr(err, "room not found", "failed to load room")
	}
	if first.ID == sourceID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *RoomTransferService) checkDestination(ctx context.Context, hostelID, fromRoomID, toRoomID string) error {
	if toRoomID == fromRoomID {
		return appErrors.Clone(appErrors.ErrValidation, "destination room must differ from the current room")
	}
	destination, err := s.rooms.FindDetailByID(ctx, toRoomID)
	if err != nil {
		return notFoundOr(err, "destination room not found", "failed to load destination room")
	}
	if destination.HostelID != hostelID {
		return appErrors.Clone(appErrors.ErrValidation, "destination room belongs to another hostel")
	}
	return CheckAllocatable(destination.Room)
}

func (s *RoomTransferService) load(ctx context.Context, id string) (*models.RoomTransferDetail, error) {
	detail, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "room transfer not found", "failed to load room transfer")
	}
	return detail, nil
}

func (s *RoomTransferService) authorize(ctx context.Context, actor *models.JWTClaims, detail *models.RoomTransferDetail) error {
	if err := authorizeHostel(actor, detail.HostelID); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	self, err := s.selfStudent(ctx, actor)
	if err != nil {
		return err
	}
	if self.ID != detail.StudentID {
		return appErrors.Clone(appErrors.ErrForbidden, "students may only access their own transfer requests")
	}
	return nil
}

func (s *RoomTransferService) selfStudent(ctx context.Context, actor *models.JWTClaims) (*models.Student, error) {
	student, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student record")
		}
		return nil, wrapInternal(err, "failed to resolve student record")
	}
	return student, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
