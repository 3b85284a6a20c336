package dto

import "github.com/noah-isme/hostel-api/internal/models"

// CreateStudentRequest holds payload for registering residents.
type CreateStudentRequest struct {
	HostelID      string  `json:"hostel_id"`
	UserID        *string `json:"user_id"`
	StudentNumber string  `json:"student_number" validate:"required,numeric,max=20"`
	FullName      string  `json:"full_name" validate:"required,max=150"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Phone         string  `json:"phone" validate:"max=30"`
	GuardianName  string  `json:"guardian_name" validate:"max=150"`
	GuardianPhone string  `json:"guardian_phone" validate:"max=30"`
}

// UpdateStudentRequest holds payload for editing residents. Room is not editable here.
type UpdateStudentRequest struct {
	StudentNumber string               `json:"student_number" validate:"required,numeric,max=20"`
	FullName      string               `json:"full_name" validate:"required,max=150"`
	Email         string               `json:"email" validate:"omitempty,email"`
	Phone         string               `json:"phone" validate:"max=30"`
	GuardianName  string               `json:"guardian_name" validate:"max=150"`
	GuardianPhone string               `json:"guardian_phone" validate:"max=30"`
	Status        models.StudentStatus `json:"status" validate:"required,oneof=active inactive"`
}
