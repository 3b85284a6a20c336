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

// RoomRepository manages persistence for rooms and their occupancy counters.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const (
	roomColumns       = `id, hostel_id, room_number, room_type_id, floor, capacity, occupancy_count, under_maintenance, created_at, updated_at`
	roomDetailColumns = `r.id, r.hostel_id, r.room_number, r.room_type_id, r.floor, r.capacity, r.occupancy_count, r.under_maintenance, r.created_at, r.updated_at,
        rt.name AS room_type_name, rt.capacity AS room_type_capacity, rt.price_per_month`
	roomDetailFrom = `FROM rooms r JOIN room_types rt ON rt.id = r.room_type_id`
)

// statusCondition translates a derived status into the equivalent SQL predicate.
func statusCondition(status models.RoomStatus) string {
	switch status {
	case models.RoomStatusMaintenance:
		return "r.under_maintenance = TRUE"
	case models.RoomStatusAvailable:
		return "r.under_maintenance = FALSE AND r.occupancy_count = 0"
	case models.RoomStatusPartiallyOccupied:
		return "r.under_maintenance = FALSE AND r.occupancy_count > 0 AND r.occupancy_count < r.capacity"
	case models.RoomStatusOccupied:
		return "r.under_maintenance = FALSE AND r.occupancy_count > 0 AND r.occupancy_count >= r.capacity"
	}
	return ""
}

// List returns rooms matching the filter together with the total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.HostelID != "" {
		args = append(args, filter.HostelID)
		conditions = append(conditions, fmt.Sprintf("r.hostel_id = $%d", len(args)))
	}
	if filter.RoomTypeID != "" {
		args = append(args, filter.RoomTypeID)
		conditions = append(conditions, fmt.Sprintf("r.room_type_id = $%d", len(args)))
	}
	if cond := statusCondition(filter.Status); cond != "" {
		conditions = append(conditions, cond)
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "r.under_maintenance = FALSE AND r.occupancy_count < r.capacity")
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(r.room_number) LIKE $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"room_number": "r.room_number",
		"floor":       "r.floor",
		"capacity":    "r.capacity",
		"created_at":  "r.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "r.room_number"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d", roomDetailColumns, roomDetailFrom, where, column, order, size, offset)
	var rooms []models.RoomDetail
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}
	for i := range rooms {
		rooms[i].Refresh()
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", roomDetailFrom, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// FindDetailByID fetches a room joined with its type.
func (r *RoomRepository) FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE r.id = $1", roomDetailColumns, roomDetailFrom)
	var detail models.RoomDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	detail.Refresh()
	return &detail, nil
}

// LockByID reads a room and holds its row lock until the transaction ends.
func (r *RoomRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1 FOR UPDATE", roomColumns)
	var room models.Room
	if err := tx.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateOccupancy writes a new occupancy count inside the caller's transaction.
func (r *RoomRepository) UpdateOccupancy(ctx context.Context, tx *sqlx.Tx, id string, occupancy int) error {
	const query = `UPDATE rooms SET occupancy_count = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, occupancy, time.Now().UTC()); err != nil {
		return fmt.Errorf("update room occupancy: %w", err)
	}
	return nil
}

// ExistsByNumber checks room number uniqueness within a hostel, optionally excluding an ID.
func (r *RoomRepository) ExistsByNumber(ctx context.Context, hostelID, roomNumber, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE hostel_id = $1 AND room_number = $2`
	args := []interface{}{hostelID, roomNumber}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	query += ")"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check room number: %w", err)
	}
	return exists, nil
}

// CreateTx inserts a new room with zero occupancy inside the caller's transaction.
func (r *RoomRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	room.OccupancyCount = 0
	const query = `INSERT INTO rooms (id, hostel_id, room_number, room_type_id, floor, capacity, occupancy_count, under_maintenance, created_at, updated_at)
        VALUES (:id, :hostel_id, :room_number, :room_type_id, :floor, :capacity, :occupancy_count, :under_maintenance, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// UpdateTx writes editable room fields inside the caller's transaction. Occupancy is left untouched.
func (r *RoomRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET room_number = :room_number, room_type_id = :room_type_id, floor = :floor, capacity = :capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// SetMaintenanceTx toggles the maintenance override flag inside the caller's transaction.
func (r *RoomRepository) SetMaintenanceTx(ctx context.Context, tx *sqlx.Tx, id string, underMaintenance bool) error {
	const query = `UPDATE rooms SET under_maintenance = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, underMaintenance, time.Now().UTC()); err != nil {
		return fmt.Errorf("set room maintenance: %w", err)
	}
	return nil
}

// MaxCapacityForType returns the largest room capacity using the given type.
func (r *RoomRepository) MaxCapacityForType(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error) {
	const query = `SELECT COALESCE(MAX(capacity), 0) FROM rooms WHERE room_type_id = $1`
	var capacity int
	if err := tx.GetContext(ctx, &capacity, query, roomTypeID); err != nil {
		return 0, fmt.Errorf("max room capacity for type: %w", err)
	}
	return capacity, nil
}

// CountByTypeTx returns how many rooms reference a room type.
func (r *RoomRepository) CountByTypeTx(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error) {
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM rooms WHERE room_type_id = $1`, roomTypeID); err != nil {
		return 0, fmt.Errorf("count rooms by type: %w", err)
	}
	return count, nil
}

// DeleteTx removes a room inside the caller's transaction.
func (r *RoomRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
