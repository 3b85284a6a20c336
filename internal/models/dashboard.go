package models

import "time"

// OccupancySummary aggregates the room ledger and fee book for the admin dashboard.
type OccupancySummary struct {
	HostelID          string              `json:"hostel_id,omitempty"`
	TotalRooms        int                 `json:"total_rooms"`
	RoomsByStatus     map[RoomStatus]int  `json:"rooms_by_status"`
	TotalBeds         int                 `json:"total_beds"`
	OccupiedBeds      int                 `json:"occupied_beds"`
	OccupancyRate     float64             `json:"occupancy_rate"`
	PendingTransfers  int                 `json:"pending_transfers"`
	PendingFeeTotal   float64             `json:"pending_fee_total"`
	OverdueFeeTotal   float64             `json:"overdue_fee_total"`
	RoomTypeBreakdown []RoomTypeOccupancy `json:"room_types"`
	GeneratedAt       time.Time           `json:"generated_at"`
}

// RoomTypeOccupancy is one row of the per-type breakdown.
type RoomTypeOccupancy struct {
	RoomTypeID   string `db:"room_type_id" json:"room_type_id"`
	RoomTypeName string `db:"room_type_name" json:"room_type"`
	Rooms        int    `db:"rooms" json:"rooms"`
	Beds         int    `db:"beds" json:"beds"`
	OccupiedBeds int    `db:"occupied_beds" json:"occupied_beds"`
}

// RoomLedgerRow is the minimal room projection used for status aggregation.
type RoomLedgerRow struct {
	Capacity         int  `db:"capacity"`
	OccupancyCount   int  `db:"occupancy_count"`
	UnderMaintenance bool `db:"under_maintenance"`
}

// FeeTotals holds outstanding amounts.
type FeeTotals struct {
	Pending float64 `db:"pending"`
	Overdue float64 `db:"overdue"`
}
