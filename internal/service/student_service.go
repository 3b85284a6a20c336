package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByNumber(ctx context.Context, studentNumber, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error)
	DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	tx        txProvider
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(tx txProvider, repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{tx: tx, repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, actor *models.JWTClaims, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	filter.HostelID = actor.ScopeHostel(filter.HostelID)
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, wrapInternal(err, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err := authorizeStudent(actor, student.Student); err != nil {
		return nil, err
	}
	return student, nil
}

// Create registers a new resident without a room.
func (s *StudentService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	hostelID, err := resolveHostel(actor, req.HostelID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueNumber(ctx, req.StudentNumber, ""); err != nil {
		return nil, err
	}
	student := &models.Student{
		HostelID:      hostelID,
		UserID:        req.UserID,
		StudentNumber: req.StudentNumber,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Status:        models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, wrapInternal(err, "failed to create student")
	}
	return student, nil
}

// Update modifies profile fields. The room assignment only changes through allocation and transfer.
// The student row is locked so a status change cannot interleave with an allocation.
func (s *StudentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateStudentRequest) (result *models.Student, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err = requireAdmin(actor); err != nil {
		return nil, err
	}
	if err = s.ensureUniqueNumber(ctx, req.StudentNumber, id); err != nil {
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

	student, err := s.repo.LockByID(ctx, tx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err = authorizeHostel(actor, student.HostelID); err != nil {
		return nil, err
	}
	if req.Status == models.StudentStatusInactive && student.HasRoom() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student still holds a room; vacate it first")
	}
	student.StudentNumber = req.StudentNumber
	student.FullName = req.FullName
	student.Email = req.Email
	student.Phone = req.Phone
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.Status = req.Status
	if err = s.repo.UpdateTx(ctx, tx, student); err != nil {
		return nil, wrapInternal(err, "failed to update student")
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapInternal(err, "failed to commit student")
	}
	return student, nil
}

// Deactivate marks a student inactive. Students holding a room must be vacated first.
func (s *StudentService) Deactivate(ctx context.Context, actor *models.JWTClaims, id string) (err error) {
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

	student, err := s.repo.LockByID(ctx, tx, id)
	if err != nil {
		return notFoundOr(err, "student not found", "failed to load student")
	}
	if err = authorizeHostel(actor, student.HostelID); err != nil {
		return err
	}
	if student.HasRoom() {
		return appErrors.Clone(appErrors.ErrConflict, "student still holds a room; vacate it first")
	}
	if err = s.repo.DeactivateTx(ctx, tx, id); err != nil {
		return wrapInternal(err, "failed to deactivate student")
	}
	if err = tx.Commit(); err != nil {
		return wrapInternal(err, "failed to commit student deactivation")
	}
	return nil
}

func (s *StudentService) ensureUniqueNumber(ctx context.Context, studentNumber, excludeID string) error {
	exists, err := s.repo.ExistsByNumber(ctx, studentNumber, excludeID)
	if err != nil {
		return wrapInternal(err, "failed to validate student number")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student number already used")
	}
	return nil
}
