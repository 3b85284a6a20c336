package models

import "time"

// StudentStatus marks whether a resident is current.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
)

// Student is a hostel resident. RoomID is set by allocation and transfer only.
type Student struct {
	ID            string        `db:"id" json:"id"`
	HostelID      string        `db:"hostel_id" json:"hostel_id"`
	UserID        *string       `db:"user_id" json:"user_id,omitempty"`
	StudentNumber string        `db:"student_number" json:"student_number"`
	FullName      string        `db:"full_name" json:"full_name"`
	Email         string        `db:"email" json:"email"`
	Phone         string        `db:"phone" json:"phone"`
	GuardianName  string        `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string        `db:"guardian_phone" json:"guardian_phone"`
	RoomID        *string       `db:"room_id" json:"room_id,omitempty"`
	Status        StudentStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// HasRoom reports whether the student currently holds a room.
func (s Student) HasRoom() bool {
	return s.RoomID != nil && *s.RoomID != ""
}

// StudentDetail adds room information for responses.
type StudentDetail struct {
	Student
	RoomNumber   *string `db:"room_number" json:"room_number,omitempty"`
	RoomTypeName *string `db:"room_type_name" json:"room_type,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	HostelID  string
	RoomID    string
	Status    StudentStatus
	Unhoused  bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
