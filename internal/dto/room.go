package dto

// CreateRoomTypeRequest payload for defining a room type.
type CreateRoomTypeRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	Capacity      int     `json:"capacity" validate:"required,gt=0"`
	PricePerMonth float64 `json:"price_per_month" validate:"gte=0"`
	Description   string  `json:"description"`
}

// UpdateRoomTypeRequest payload for editing a room type.
type UpdateRoomTypeRequest = CreateRoomTypeRequest

// CreateRoomRequest payload for registering a room. Capacity defaults to the room type capacity.
type CreateRoomRequest struct {
	HostelID   string `json:"hostel_id"`
	RoomNumber string `json:"room_number" validate:"required,max=20"`
	RoomTypeID string `json:"room_type_id" validate:"required"`
	Floor      *int   `json:"floor" validate:"omitempty,gte=0"`
	Capacity   int    `json:"capacity" validate:"omitempty,gt=0"`
}

// UpdateRoomRequest payload for editing a room. Occupancy is never writable here.
type UpdateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,max=20"`
	RoomTypeID string `json:"room_type_id" validate:"required"`
	Floor      *int   `json:"floor" validate:"omitempty,gte=0"`
	Capacity   int    `json:"capacity" validate:"required,gt=0"`
}

// SetMaintenanceRequest toggles the administrative maintenance flag.
type SetMaintenanceRequest struct {
	UnderMaintenance bool `json:"under_maintenance"`
}

// AllocateRoomRequest binds a student to a room.
type AllocateRoomRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
}

// VacateRoomRequest releases a student's room.
type VacateRoomRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
