package models

import "time"

// TransferStatus captures the transfer request workflow.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
	TransferStatusRejected TransferStatus = "rejected"
)

// RoomTransfer is a request to move a student between rooms, applied only on approval.
type RoomTransfer struct {
	ID           string         `db:"id" json:"id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	FromRoomID   string         `db:"from_room_id" json:"from_room_id"`
	ToRoomID     string         `db:"to_room_id" json:"to_room_id"`
	Reason       string         `db:"reason" json:"reason"`
	Status       TransferStatus `db:"status" json:"status"`
	RequestedBy  string         `db:"requested_by" json:"requested_by"`
	RequestedAt  time.Time      `db:"requested_at" json:"requested_at"`
	TransferDate *time.Time     `db:"transfer_date" json:"transfer_date,omitempty"`
	ReviewedBy   *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNote   *string        `db:"review_note" json:"review_note,omitempty"`
}

// RoomTransferDetail joins student and room labels.
type RoomTransferDetail struct {
	RoomTransfer
	StudentName    string `db:"student_name" json:"student_name"`
	HostelID       string `db:"hostel_id" json:"hostel_id"`
	FromRoomNumber string `db:"from_room_number" json:"from_room_number"`
	ToRoomNumber   string `db:"to_room_number" json:"to_room_number"`
}

// RoomTransferFilter constrains listing queries.
type RoomTransferFilter struct {
	HostelID  string
	StudentID string
	Status    TransferStatus
	Page      int
	PageSize  int
}
