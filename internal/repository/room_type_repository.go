package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-api/internal/models"
)

// RoomTypeRepository manages persistence for room types.
type RoomTypeRepository struct {
	db *sqlx.DB
}

// NewRoomTypeRepository constructs a RoomTypeRepository.
func NewRoomTypeRepository(db *sqlx.DB) *RoomTypeRepository {
	return &RoomTypeRepository{db: db}
}

const roomTypeColumns = `id, name, capacity, price_per_month, description, created_at, updated_at`

// List returns every room type ordered by name.
func (r *RoomTypeRepository) List(ctx context.Context) ([]models.RoomType, error) {
	query := fmt.Sprintf("SELECT %s FROM room_types ORDER BY name ASC", roomTypeColumns)
	var types []models.RoomType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	return types, nil
}

// FindByID fetches a room type.
func (r *RoomTypeRepository) FindByID(ctx context.Context, id string) (*models.RoomType, error) {
	query := fmt.Sprintf("SELECT %s FROM room_types WHERE id = $1", roomTypeColumns)
	var rt models.RoomType
	if err := r.db.GetContext(ctx, &rt, query, id); err != nil {
		return nil, err
	}
	return &rt, nil
}

// FindByIDTx reads a room type inside a transaction with a share lock so its capacity
// cannot shrink until the caller commits.
func (r *RoomTypeRepository) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error) {
	query := fmt.Sprintf("SELECT %s FROM room_types WHERE id = $1 FOR SHARE", roomTypeColumns)
	var rt models.RoomType
	if err := tx.GetContext(ctx, &rt, query, id); err != nil {
		return nil, err
	}
	return &rt, nil
}

// LockByID reads a room type with an exclusive row lock.
func (r *RoomTypeRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error) {
	query := fmt.Sprintf("SELECT %s FROM room_types WHERE id = $1 FOR UPDATE", roomTypeColumns)
	var rt models.RoomType
	if err := tx.GetContext(ctx, &rt, query, id); err != nil {
		return nil, err
	}
	return &rt, nil
}

// ExistsByName checks name uniqueness optionally excluding an ID.
func (r *RoomTypeRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM room_types WHERE LOWER(name) = LOWER($1)`
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	query += ")"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check room type name: %w", err)
	}
	return exists, nil
}

// Create inserts a new room type.
func (r *RoomTypeRepository) Create(ctx context.Context, rt *models.RoomType) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rt.CreatedAt = now
	rt.UpdatedAt = now
	const query = `INSERT INTO room_types (id, name, capacity, price_per_month, description, created_at, updated_at)
        VALUES (:id, :name, :capacity, :price_per_month, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rt); err != nil {
		return fmt.Errorf("create room type: %w", err)
	}
	return nil
}

// UpdateTx modifies a room type inside the caller's transaction.
func (r *RoomTypeRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, rt *models.RoomType) error {
	rt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE room_types SET name = :name, capacity = :capacity, price_per_month = :price_per_month, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, rt); err != nil {
		return fmt.Errorf("update room type: %w", err)
	}
	return nil
}

// DeleteTx removes a room type inside the caller's transaction.
func (r *RoomTypeRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_types WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room type: %w", err)
	}
	return nil
}
