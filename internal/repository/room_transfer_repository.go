package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-api/internal/models"
)

// RoomTransferRepository persists room transfer requests.
type RoomTransferRepository struct {
	db *sqlx.DB
}

// NewRoomTransferRepository constructs the repository.
func NewRoomTransferRepository(db *sqlx.DB) *RoomTransferRepository {
	return &RoomTransferRepository{db: db}
}

const (
	transferColumns       = `id, student_id, from_room_id, to_room_id, reason, status, requested_by, requested_at, transfer_date, reviewed_by, reviewed_at, review_note`
	transferDetailColumns = `t.id, t.student_id, t.from_room_id, t.to_room_id, t.reason, t.status, t.requested_by, t.requested_at, t.transfer_date, t.reviewed_by, t.reviewed_at, t.review_note,
        s.full_name AS student_name, s.hostel_id, fr.room_number AS from_room_number, tr.room_number AS to_room_number`
	transferDetailFrom = `FROM room_transfers t
        JOIN students s ON s.id = t.student_id
        JOIN rooms fr ON fr.id = t.from_room_id
        JOIN rooms tr ON tr.id = t.to_room_id`
)

// Create inserts a pending transfer request.
func (r *RoomTransferRepository) Create(ctx context.Context, transfer *models.RoomTransfer) error {
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}
	transfer.Status = models.TransferStatusPending
	if transfer.RequestedAt.IsZero() {
		transfer.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO room_transfers
        (id, student_id, from_room_id, to_room_id, reason, status, requested_by, requested_at, transfer_date, reviewed_by, reviewed_at, review_note)
        VALUES (:id, :student_id, :from_room_id, :to_room_id, :reason, :status, :requested_by, :requested_at, :transfer_date, :reviewed_by, :reviewed_at, :review_note)`
	if _, err := r.db.NamedExecContext(ctx, query, transfer); err != nil {
		return fmt.Errorf("create room transfer: %w", err)
	}
	return nil
}

// FindByID fetches a transfer request with labels.
func (r *RoomTransferRepository) FindByID(ctx context.Context, id string) (*models.RoomTransferDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.id = $1", transferDetailColumns, transferDetailFrom)
	var detail models.RoomTransferDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LockByID reads a transfer request with a row lock.
func (r *RoomTransferRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomTransfer, error) {
	query := fmt.Sprintf("SELECT %s FROM room_transfers WHERE id = $1 FOR UPDATE", transferColumns)
	var transfer models.RoomTransfer
	if err := tx.GetContext(ctx, &transfer, query, id); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// List returns transfer requests matching the filter, newest first.
func (r *RoomTransferRepository) List(ctx context.Context, filter models.RoomTransferFilter) ([]models.RoomTransferDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.HostelID != "" {
		args = append(args, filter.HostelID)
		conditions = append(conditions, fmt.Sprintf("s.hostel_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("t.student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY t.requested_at DESC LIMIT %d OFFSET %d", transferDetailColumns, transferDetailFrom, where, size, offset)
	var transfers []models.RoomTransferDetail
	if err := r.db.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list room transfers: %w", err)
	}
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM room_transfers t JOIN students s ON s.id = t.student_id WHERE %s", where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count room transfers: %w", err)
	}
	return transfers, total, nil
}

// UpdatePending edits the destination and reason of a pending request.
// It returns sql.ErrNoRows when the request is no longer pending.
func (r *RoomTransferRepository) UpdatePending(ctx context.Context, id, toRoomID, reason string) error {
	const query = `UPDATE room_transfers SET to_room_id = $2, reason = $3 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, toRoomID, reason)
	if err != nil {
		return fmt.Errorf("update room transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update room transfer rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReviewParams carries the outcome of an approval or rejection.
type ReviewParams struct {
	ID           string
	Status       models.TransferStatus
	ReviewedBy   string
	ReviewedAt   time.Time
	TransferDate *time.Time
	Note         *string
}

// MarkReviewed closes a pending request inside the caller's transaction.
// It returns sql.ErrNoRows when the request was already reviewed.
func (r *RoomTransferRepository) MarkReviewed(ctx context.Context, tx *sqlx.Tx, params ReviewParams) error {
	const query = `UPDATE room_transfers SET status = $2, reviewed_by = $3, reviewed_at = $4, transfer_date = $5, review_note = $6
        WHERE id = $1 AND status = 'pending'`
	res, err := tx.ExecContext(ctx, query, params.ID, params.Status, params.ReviewedBy, params.ReviewedAt, params.TransferDate, params.Note)
	if err != nil {
		return fmt.Errorf("review room transfer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review room transfer rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a transfer record. Room and student state are not touched.
func (r *RoomTransferRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM room_transfers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room transfer: %w", err)
	}
	return nil
}

// HasPendingForStudent reports whether the student already has an open request.
func (r *RoomTransferRepository) HasPendingForStudent(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM room_transfers WHERE student_id = $1 AND status = 'pending')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check pending transfer: %w", err)
	}
	return exists, nil
}

// CountPendingForRoom counts open requests that start or end at the room.
func (r *RoomTransferRepository) CountPendingForRoom(ctx context.Context, tx *sqlx.Tx, roomID string) (int, error) {
	const query = `SELECT COUNT(*) FROM room_transfers WHERE status = 'pending' AND (from_room_id = $1 OR to_room_id = $1)`
	var count int
	if err := tx.GetContext(ctx, &count, query, roomID); err != nil {
		return 0, fmt.Errorf("count pending transfers for room: %w", err)
	}
	return count, nil
}

// CountPending counts open requests for a hostel (all hostels when empty).
func (r *RoomTransferRepository) CountPending(ctx context.Context, hostelID string) (int, error) {
	const query = `SELECT COUNT(*) FROM room_transfers t JOIN students s ON s.id = t.student_id
        WHERE t.status = 'pending' AND ($1::text = '' OR s.hostel_id::text = $1::text)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, hostelID); err != nil {
		return 0, fmt.Errorf("count pending transfers: %w", err)
	}
	return count, nil
}
