package dto

import (
	"time"

	"github.com/noah-isme/hostel-api/internal/models"
)

// FeeCalculation is the proposal returned by the room-type fee calculator.
type FeeCalculation struct {
	HasRoom          bool     `json:"has_room"`
	CalculatedAmount *float64 `json:"calculated_amount,omitempty"`
	RoomNumber       string   `json:"room_number,omitempty"`
	RoomType         string   `json:"room_type,omitempty"`
}

// CreateFeeRequest payload for recording a fee. Amount is authoritative when present.
type CreateFeeRequest struct {
	StudentID   string         `json:"student_id" validate:"required"`
	FeeType     models.FeeType `json:"fee_type" validate:"required,oneof=hostel mess security fine"`
	Amount      *float64       `json:"amount" validate:"omitempty,gt=0"`
	DueDate     *time.Time     `json:"due_date"`
	Description string         `json:"description" validate:"max=255"`
}

// UpdateFeeRequest edits a pending fee.
type UpdateFeeRequest struct {
	FeeType     models.FeeType `json:"fee_type" validate:"required,oneof=hostel mess security fine"`
	Amount      float64        `json:"amount" validate:"required,gt=0"`
	DueDate     time.Time      `json:"due_date" validate:"required"`
	Description string         `json:"description" validate:"max=255"`
}

// PayFeeRequest marks a fee paid, optionally back-dated.
type PayFeeRequest struct {
	PaidDate *time.Time `json:"paid_date"`
}

// OverdueSweepResult reports the rows flipped to overdue.
type OverdueSweepResult struct {
	Updated int64     `json:"updated"`
	AsOf    time.Time `json:"as_of"`
}

// FeeQuery mirrors supported fee listing filters.
type FeeQuery struct {
	HostelID  string
	StudentID string
	FeeType   models.FeeType
	Status    models.FeeStatus
	Page      int
	PageSize  int
}
