package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-api/internal/models"
)

// FeeRepository persists fee records.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

const (
	feeDetailColumns = `f.id, f.student_id, f.fee_type, f.amount, f.due_date, f.status, f.paid_date, f.description, f.created_at, f.updated_at,
        s.full_name AS student_name, s.student_number, s.hostel_id`
	feeDetailFrom = `FROM fees f JOIN students s ON s.id = f.student_id`
)

func feeConditions(filter models.FeeFilter) (string, []interface{}) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.HostelID != "" {
		args = append(args, filter.HostelID)
		conditions = append(conditions, fmt.Sprintf("s.hostel_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("f.student_id = $%d", len(args)))
	}
	if filter.FeeType != "" {
		args = append(args, filter.FeeType)
		conditions = append(conditions, fmt.Sprintf("f.fee_type = $%d", len(args)))
	}
	asOf := filter.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	switch filter.Status {
	case models.FeeStatusPaid:
		conditions = append(conditions, "f.status = 'paid'")
	case models.FeeStatusPending:
		args = append(args, today)
		conditions = append(conditions, fmt.Sprintf("f.status = 'pending' AND f.due_date >= $%d", len(args)))
	case models.FeeStatusOverdue:
		args = append(args, today)
		conditions = append(conditions, fmt.Sprintf("(f.status = 'overdue' OR (f.status = 'pending' AND f.due_date < $%d))", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

// List returns fees matching the filter, newest due date first.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.FeeDetail, int, error) {
	where, args := feeConditions(filter)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY f.due_date DESC, f.created_at DESC LIMIT %d OFFSET %d", feeDetailColumns, feeDetailFrom, where, size, offset)
	var fees []models.FeeDetail
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", feeDetailFrom, where), args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// ListForExport returns up to limit fees matching the filter without pagination.
func (r *FeeRepository) ListForExport(ctx context.Context, filter models.FeeFilter, limit int) ([]models.FeeDetail, error) {
	where, args := feeConditions(filter)
	if limit <= 0 {
		limit = 5000
	}
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY s.student_number ASC, f.due_date ASC LIMIT %d", feeDetailColumns, feeDetailFrom, where, limit)
	var fees []models.FeeDetail
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, fmt.Errorf("export fees: %w", err)
	}
	return fees, nil
}

// FindByID fetches a fee with student context.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.FeeDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE f.id = $1", feeDetailColumns, feeDetailFrom)
	var fee models.FeeDetail
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create inserts a new fee.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	if fee.Status == "" {
		fee.Status = models.FeeStatusPending
	}
	now := time.Now().UTC()
	fee.CreatedAt = now
	fee.UpdatedAt = now
	const query = `INSERT INTO fees (id, student_id, fee_type, amount, due_date, status, paid_date, description, created_at, updated_at)
        VALUES (:id, :student_id, :fee_type, :amount, :due_date, :status, :paid_date, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// Update modifies a pending fee. It reports false when the fee is no longer pending.
func (r *FeeRepository) Update(ctx context.Context, fee *models.Fee) (bool, error) {
	fee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fees SET fee_type = :fee_type, amount = :amount, due_date = :due_date, description = :description, updated_at = :updated_at
        WHERE id = :id AND status = 'pending'`
	res, err := r.db.NamedExecContext(ctx, query, fee)
	if err != nil {
		return false, fmt.Errorf("update fee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update fee rows: %w", err)
	}
	return affected > 0, nil
}

// MarkPaid transitions an unpaid fee to paid. It reports false when nothing changed.
func (r *FeeRepository) MarkPaid(ctx context.Context, id string, paidDate time.Time) (bool, error) {
	const query = `UPDATE fees SET status = 'paid', paid_date = $2, updated_at = $3 WHERE id = $1 AND status <> 'paid'`
	res, err := r.db.ExecContext(ctx, query, id, paidDate, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark fee paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark fee paid rows: %w", err)
	}
	return affected > 0, nil
}

// MarkOverdue persists overdue status for pending fees due before asOf. Re-running it is a no-op.
func (r *FeeRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	const query = `UPDATE fees SET status = 'overdue', updated_at = $2 WHERE status = 'pending' AND due_date < $1`
	res, err := r.db.ExecContext(ctx, query, asOf, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark fees overdue: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes a pending fee. It reports false when the fee is settled, overdue or missing.
func (r *FeeRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fees WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, fmt.Errorf("delete fee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete fee rows: %w", err)
	}
	return affected > 0, nil
}

// Totals sums outstanding fees for a hostel (all hostels when empty).
func (r *FeeRepository) Totals(ctx context.Context, hostelID string, asOf time.Time) (*models.FeeTotals, error) {
	const query = `SELECT
        COALESCE(SUM(CASE WHEN f.status = 'pending' AND f.due_date >= $2 THEN f.amount END), 0) AS pending,
        COALESCE(SUM(CASE WHEN f.status = 'overdue' OR (f.status = 'pending' AND f.due_date < $2) THEN f.amount END), 0) AS overdue
        FROM fees f JOIN students s ON s.id = f.student_id
        WHERE ($1::text = '' OR s.hostel_id::text = $1::text)`
	today := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	var totals models.FeeTotals
	if err := r.db.GetContext(ctx, &totals, query, hostelID, today); err != nil {
		return nil, fmt.Errorf("fee totals: %w", err)
	}
	return &totals, nil
}
