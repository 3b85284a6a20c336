package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/export"
)

type feeExportRepository interface {
	ListForExport(ctx context.Context, filter models.FeeFilter, limit int) ([]models.FeeDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportServiceConfig bounds export size.
type ReportServiceConfig struct {
	MaxRows int
}

// ReportService renders the fee ledger as CSV or PDF.
type ReportService struct {
	fees      feeExportRepository
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(fees feeExportRepository, cfg ReportServiceConfig, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{fees: fees, csv: csv, pdf: pdf, validator: validate, logger: logger, cfg: cfg, now: time.Now}
}

// ExportFees renders fees in scope. Overdue is reported as derived on the export date.
func (s *ReportService) ExportFees(ctx context.Context, actor *models.JWTClaims, query dto.FeeReportQuery) (*dto.ReportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report parameters")
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now()
	filter := models.FeeFilter{
		HostelID:  actor.ScopeHostel(query.HostelID),
		StudentID: query.StudentID,
		FeeType:   query.FeeType,
		Status:    query.Status,
		AsOf:      now,
	}
	fees, err := s.fees.ListForExport(ctx, filter, s.cfg.MaxRows)
	if err != nil {
		return nil, wrapInternal(err, "failed to load fees for export")
	}

	dataset, title := buildFeeDataset(fees, now, filter.HostelID)
	var (
		body        []byte
		contentType string
	)
	switch query.Format {
	case dto.ReportFormatCSV:
		body, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case dto.ReportFormatPDF:
		body, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, wrapInternal(err, "failed to render fee report")
	}
	if len(fees) == s.cfg.MaxRows {
		s.logger.Warn("fee report truncated", zap.Int("max_rows", s.cfg.MaxRows))
	}

	filename := fmt.Sprintf("fees_%s_%s.%s", sanitizeFilename(filter.HostelID), now.UTC().Format("20060102_150405"), query.Format)
	return &dto.ReportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

func buildFeeDataset(fees []models.FeeDetail, now time.Time, hostelID string) (export.Dataset, string) {
	dataset := export.Dataset{
		Headers: []string{"Student No.", "Student", "Fee Type", "Amount", "Due Date", "Status", "Paid Date", "Description"},
	}
	var total, outstanding float64
	for _, fee := range fees {
		status := fee.EffectiveStatus(now)
		paid := ""
		if fee.PaidDate != nil {
			paid = fee.PaidDate.Format("2006-01-02")
		}
		dataset.AddRow(
			fee.StudentNumber,
			fee.StudentName,
			string(fee.FeeType),
			fmt.Sprintf("%.2f", fee.Amount),
			fee.DueDate.Format("2006-01-02"),
			string(status),
			paid,
			fee.Description,
		)
		total += fee.Amount
		if status != models.FeeStatusPaid {
			outstanding += fee.Amount
		}
	}
	dataset.Summary = []string{
		fmt.Sprintf("Fees: %d", len(fees)),
		fmt.Sprintf("Total billed: %.2f", total),
		fmt.Sprintf("Outstanding: %.2f", outstanding),
	}
	scope := "All hostels"
	if hostelID != "" {
		scope = "Hostel " + hostelID
	}
	return dataset, fmt.Sprintf("Fee Ledger - %s - %s", scope, now.Format("2006-01-02"))
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
