package dto

import "github.com/noah-isme/hostel-api/internal/models"

// CreateRoomTransferRequest files a transfer. FromRoomID defaults to the student's current room.
type CreateRoomTransferRequest struct {
	StudentID  string `json:"student_id"`
	FromRoomID string `json:"from_room_id"`
	ToRoomID   string `json:"to_room_id" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

// UpdateRoomTransferRequest edits a pending request.
type UpdateRoomTransferRequest struct {
	ToRoomID string `json:"to_room_id" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
}

// ReviewRoomTransferRequest carries the reviewer note.
type ReviewRoomTransferRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// RoomTransferQuery mirrors supported listing filters.
type RoomTransferQuery struct {
	HostelID  string
	StudentID string
	Status    models.TransferStatus
	Page      int
	PageSize  int
}
