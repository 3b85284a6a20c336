package models

import "time"

// RoomStatus is derived from occupancy and the maintenance flag; it is never persisted.
type RoomStatus string

const (
	RoomStatusAvailable         RoomStatus = "available"
	RoomStatusPartiallyOccupied RoomStatus = "partially_occupied"
	RoomStatusOccupied          RoomStatus = "occupied"
	RoomStatusMaintenance       RoomStatus = "maintenance"
)

// Valid reports whether the status is one of the known values.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusAvailable, RoomStatusPartiallyOccupied, RoomStatusOccupied, RoomStatusMaintenance:
		return true
	}
	return false
}

// Room is a physical room. OccupancyCount is only mutated by allocation, vacate and transfer.
type Room struct {
	ID               string    `db:"id" json:"id"`
	HostelID         string    `db:"hostel_id" json:"hostel_id"`
	RoomNumber       string    `db:"room_number" json:"room_number"`
	RoomTypeID       string    `db:"room_type_id" json:"room_type_id"`
	Floor            *int      `db:"floor" json:"floor,omitempty"`
	Capacity         int       `db:"capacity" json:"capacity"`
	OccupancyCount   int       `db:"occupancy_count" json:"occupancy_count"`
	UnderMaintenance bool      `db:"under_maintenance" json:"under_maintenance"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CapacityRemaining returns the number of free beds.
func (r Room) CapacityRemaining() int {
	return r.Capacity - r.OccupancyCount
}

// Status derives the room status. First match wins: maintenance, empty, partially filled, full.
func (r Room) Status() RoomStatus {
	return DeriveRoomStatus(r.OccupancyCount, r.Capacity, r.UnderMaintenance)
}

// DeriveRoomStatus is the pure status rule used for every read.
func DeriveRoomStatus(occupancy, capacity int, maintenance bool) RoomStatus {
	switch {
	case maintenance:
		return RoomStatusMaintenance
	case occupancy == 0:
		return RoomStatusAvailable
	case occupancy < capacity:
		return RoomStatusPartiallyOccupied
	default:
		return RoomStatusOccupied
	}
}

// RoomDetail enriches a room with its type and the derived ledger values.
type RoomDetail struct {
	Room
	RoomTypeName      string     `db:"room_type_name" json:"room_type"`
	RoomTypeCapacity  int        `db:"room_type_capacity" json:"room_type_capacity"`
	PricePerMonth     float64    `db:"price_per_month" json:"price_per_month"`
	CapacityRemaining int        `db:"-" json:"capacity_remaining"`
	Status            RoomStatus `db:"-" json:"status"`
}

// Refresh recomputes the derived fields after a scan or a mutation.
func (d *RoomDetail) Refresh() {
	d.CapacityRemaining = d.Room.CapacityRemaining()
	d.Status = d.Room.Status()
}

// RoomFilter captures allowed filters for listing rooms.
type RoomFilter struct {
	HostelID      string
	RoomTypeID    string
	Status        RoomStatus
	AvailableOnly bool
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
