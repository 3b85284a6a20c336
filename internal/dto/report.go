package dto

import "github.com/noah-isme/hostel-api/internal/models"

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// FeeReportQuery selects the fees included in a ledger export.
type FeeReportQuery struct {
	Format    ReportFormat     `form:"format" validate:"required,oneof=csv pdf"`
	HostelID  string           `form:"hostel_id"`
	StudentID string           `form:"student_id"`
	FeeType   models.FeeType   `form:"fee_type" validate:"omitempty,oneof=hostel mess security fine"`
	Status    models.FeeStatus `form:"status" validate:"omitempty,oneof=pending paid overdue"`
}

// ReportFile is a rendered export ready to stream.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
