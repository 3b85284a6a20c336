package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type feeRepository interface {
	List(ctx context.Context, filter models.FeeFilter) ([]models.FeeDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.FeeDetail, error)
	Create(ctx context.Context, fee *models.Fee) error
	Update(ctx context.Context, fee *models.Fee) (bool, error)
	MarkPaid(ctx context.Context, id string, paidDate time.Time) (bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type feeStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type feeProposer interface {
	Calculate(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.FeeCalculation, error)
}

// FeeServiceConfig tunes fee defaults.
type FeeServiceConfig struct {
	DefaultDueDays int
}

// FeeService records fees and their payment lifecycle.
type FeeService struct {
	fees       feeRepository
	students   feeStudentRepository
	calculator feeProposer
	audit      auditLogWriter
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        FeeServiceConfig
	now        func() time.Time
}

// NewFeeService constructs the fee service.
func NewFeeService(fees feeRepository, students feeStudentRepository, calculator feeProposer, audit auditLogWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg FeeServiceConfig) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultDueDays <= 0 {
		cfg.DefaultDueDays = 30
	}
	return &FeeService{
		fees:       fees,
		students:   students,
		calculator: calculator,
		audit:      audit,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// List returns fees with derived overdue status applied.
func (s *FeeService) List(ctx context.Context, actor *models.JWTClaims, query dto.FeeQuery) ([]models.FeeDetail, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	now := s.now()
	filter := models.FeeFilter{
		HostelID:  actor.ScopeHostel(query.HostelID),
		StudentID: query.StudentID,
		FeeType:   query.FeeType,
		Status:    query.Status,
		AsOf:      now,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if !actor.IsAdmin() {
		self, err := s.students.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, nil, notFoundOr(err, "account is not linked to a student record", "failed to resolve student record")
		}
		filter.StudentID = self.ID
	}
	fees, total, err := s.fees.List(ctx, filter)
	if err != nil {
		return nil, nil, wrapInternal(err, "failed to list fees")
	}
	for i := range fees {
		fees[i].Status = fees[i].EffectiveStatus(now)
	}
	return fees, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a fee with derived overdue status applied.
func (s *FeeService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.FeeDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	fee, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		if err := authorizeHostel(actor, fee.HostelID); err != nil {
			return nil, err
		}
	} else {
		student, err := s.students.FindByID(ctx, fee.StudentID)
		if err != nil {
			return nil, notFoundOr(err, "student not found", "failed to load student")
		}
		if err := authorizeStudent(actor, student.Student); err != nil {
			return nil, err
		}
	}
	return fee, nil
}

// Create records a fee. A submitted amount is stored as given; hostel fees without one take the
// calculator's proposal.
func (s *FeeService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateFeeRequest) (*models.FeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err := authorizeHostel(actor, student.HostelID); err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == nil {
		if req.FeeType == models.FeeTypeHostel && s.calculator != nil {
			calc, err := s.calculator.Calculate(ctx, actor, req.StudentID)
			if err != nil {
				return nil, err
			}
			amount = ProposedAmount(req.FeeType, calc)
		}
		if amount == nil || *amount <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount is required when no room-type price applies")
		}
	}

	now := s.now().UTC()
	dueDate := now.AddDate(0, 0, s.cfg.DefaultDueDays)
	if req.DueDate != nil {
		dueDate = req.DueDate.UTC()
	}
	fee := &models.Fee{
		StudentID:   req.StudentID,
		FeeType:     req.FeeType,
		Amount:      *amount,
		DueDate:     dueDate,
		Status:      models.FeeStatusPending,
		Description: req.Description,
	}
	if err := s.fees.Create(ctx, fee); err != nil {
		return nil, wrapInternal(err, "failed to create fee")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionFeeCreate, "fee", fee.ID, map[string]interface{}{
		"student_id": fee.StudentID,
		"fee_type":   fee.FeeType,
		"amount":     fee.Amount,
	})
	invalidateDashboard(ctx, s.cache)
	return &models.FeeDetail{
		Fee:           *fee,
		StudentName:   student.FullName,
		StudentNumber: student.StudentNumber,
		HostelID:      student.HostelID,
	}, nil
}

// Update edits a pending fee.
func (s *FeeService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateFeeRequest) (*models.FeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	existing, err := s.loadForAdmin(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.FeeStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending fees can be edited")
	}
	existing.FeeType = req.FeeType
	existing.Amount = req.Amount
	existing.DueDate = req.DueDate.UTC()
	existing.Description = req.Description
	updated, err := s.fees.Update(ctx, &existing.Fee)
	if err != nil {
		return nil, wrapInternal(err, "failed to update fee")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only pending fees can be edited")
	}
	invalidateDashboard(ctx, s.cache)
	existing.Status = existing.EffectiveStatus(s.now())
	return existing, nil
}

// Pay settles a pending or overdue fee.
func (s *FeeService) Pay(ctx context.Context, actor *models.JWTClaims, id string, req dto.PayFeeRequest) (*models.FeeDetail, error) {
	existing, err := s.loadForAdmin(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.FeeStatusPaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "fee is already paid")
	}
	paidDate := s.now().UTC()
	if req.PaidDate != nil {
		paidDate = req.PaidDate.UTC()
	}
	changed, err := s.fees.MarkPaid(ctx, id, paidDate)
	if err != nil {
		return nil, wrapInternal(err, "failed to mark fee paid")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "fee is already paid")
	}
	existing.Status = models.FeeStatusPaid
	existing.PaidDate = &paidDate
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionFeePay, "fee", id, map[string]interface{}{
		"amount":    existing.Amount,
		"paid_date": paidDate,
	})
	invalidateDashboard(ctx, s.cache)
	return existing, nil
}

// Delete removes a pending fee.
func (s *FeeService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	existing, err := s.loadForAdmin(ctx, actor, id)
	if err != nil {
		return err
	}
	if existing.Status != models.FeeStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "only pending fees can be deleted")
	}
	deleted, err := s.fees.Delete(ctx, id)
	if err != nil {
		return wrapInternal(err, "failed to delete fee")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrConflict, "only pending fees can be deleted")
	}
	invalidateDashboard(ctx, s.cache)
	return nil
}

// SweepOverdue persists overdue status for pending fees due before today.
func (s *FeeService) SweepOverdue(ctx context.Context, actor *models.JWTClaims) (*dto.OverdueSweepResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	updated, err := s.fees.MarkOverdue(ctx, today)
	if err != nil {
		return nil, wrapInternal(err, "failed to sweep overdue fees")
	}
	if updated > 0 {
		invalidateDashboard(ctx, s.cache)
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionOverdueSweep, "fee", "", map[string]interface{}{"updated": updated})
	s.logger.Info("overdue sweep completed", zap.Int64("updated", updated), zap.Time("as_of", today))
	return &dto.OverdueSweepResult{Updated: updated, AsOf: today}, nil
}

func (s *FeeService) load(ctx context.Context, id string) (*models.FeeDetail, error) {
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "fee not found", "failed to load fee")
	}
	fee.Status = fee.EffectiveStatus(s.now())
	return fee, nil
}

// loadForAdmin reads the stored row without deriving status so lifecycle checks see persisted state.
func (s *FeeService) loadForAdmin(ctx context.Context, actor *models.JWTClaims, id string) (*models.FeeDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	fee, err := s.fees.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "fee not found", "failed to load fee")
	}
	if err := authorizeHostel(actor, fee.HostelID); err != nil {
		return nil, err
	}
	return fee, nil
}
