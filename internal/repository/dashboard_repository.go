package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-api/internal/models"
)

// DashboardRepository reads the aggregates behind the occupancy dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// RoomLedger returns the status inputs of every room in scope. Status is derived by the caller.
func (r *DashboardRepository) RoomLedger(ctx context.Context, hostelID string) ([]models.RoomLedgerRow, error) {
	const query = `SELECT capacity, occupancy_count, under_maintenance FROM rooms
        WHERE ($1::text = '' OR hostel_id::text = $1::text)`
	var rows []models.RoomLedgerRow
	if err := r.db.SelectContext(ctx, &rows, query, hostelID); err != nil {
		return nil, fmt.Errorf("room ledger: %w", err)
	}
	return rows, nil
}

// RoomTypeBreakdown groups beds and occupancy per room type.
func (r *DashboardRepository) RoomTypeBreakdown(ctx context.Context, hostelID string) ([]models.RoomTypeOccupancy, error) {
	const query = `SELECT rt.id AS room_type_id, rt.name AS room_type_name,
        COUNT(r.id) AS rooms, COALESCE(SUM(r.capacity), 0) AS beds, COALESCE(SUM(r.occupancy_count), 0) AS occupied_beds
        FROM room_types rt
        LEFT JOIN rooms r ON r.room_type_id = rt.id AND ($1::text = '' OR r.hostel_id::text = $1::text)
        GROUP BY rt.id, rt.name
        ORDER BY rt.name ASC`
	var rows []models.RoomTypeOccupancy
	if err := r.db.SelectContext(ctx, &rows, query, hostelID); err != nil {
		return nil, fmt.Errorf("room type breakdown: %w", err)
	}
	return rows, nil
}
