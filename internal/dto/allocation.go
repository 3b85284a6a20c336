package dto

import "github.com/noah-isme/hostel-api/internal/models"

// AllocationResult returns both sides of an allocation or vacate.
type AllocationResult struct {
	Student models.Student    `json:"student"`
	Room    models.RoomDetail `json:"room"`
}

// TransferResult returns the approved transfer with both rooms after the move.
type TransferResult struct {
	Transfer models.RoomTransfer `json:"transfer"`
	FromRoom models.RoomDetail   `json:"from_room"`
	ToRoom   models.RoomDetail   `json:"to_room"`
}
