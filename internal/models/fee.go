package models

import "time"

// FeeType enumerates fee categories.
type FeeType string

const (
	FeeTypeHostel   FeeType = "hostel"
	FeeTypeMess     FeeType = "mess"
	FeeTypeSecurity FeeType = "security"
	FeeTypeFine     FeeType = "fine"
)

// FeeStatus captures fee lifecycle states.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
)

// Fee is a financial obligation of a student.
type Fee struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	FeeType     FeeType    `db:"fee_type" json:"fee_type"`
	Amount      float64    `db:"amount" json:"amount"`
	DueDate     time.Time  `db:"due_date" json:"due_date"`
	Status      FeeStatus  `db:"status" json:"status"`
	PaidDate    *time.Time `db:"paid_date" json:"paid_date,omitempty"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus reports overdue for pending fees whose due date is before the day of now.
func (f Fee) EffectiveStatus(now time.Time) FeeStatus {
	if f.Status != FeeStatusPending {
		return f.Status
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if f.DueDate.Before(today) {
		return FeeStatusOverdue
	}
	return FeeStatusPending
}

// FeeDetail adds student context to a fee.
type FeeDetail struct {
	Fee
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	HostelID      string `db:"hostel_id" json:"hostel_id"`
}

// FeeFilter lists fees. Status overdue matches stored and derived overdue rows.
type FeeFilter struct {
	HostelID  string
	StudentID string
	FeeType   FeeType
	Status    FeeStatus
	AsOf      time.Time
	Page      int
	PageSize  int
}
