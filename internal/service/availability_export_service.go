package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
	"github.com/tutormatch/tutormatch-api/pkg/export"
)

// ExportFormat is a downloadable availability format.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

const (
	exportHourHeader = "Hora"
	exportMark       = "X"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type availabilitySource interface {
	Availability(ctx context.Context, tutoringID string) (models.AvailabilityGrid, models.AvailabilityTable, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

// AvailabilityExportService renders the weekly availability table as a file.
type AvailabilityExportService struct {
	source availabilitySource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewAvailabilityExportService constructs the exporter.
func NewAvailabilityExportService(source availabilitySource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *AvailabilityExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityExportService{source: source, csv: csv, pdf: pdf, logger: logger}
}

// ParseExportFormat validates a format query value; empty means CSV.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// Export renders the availability of tutoringID.
func (s *AvailabilityExportService) Export(ctx context.Context, tutoringID string, format ExportFormat) (*ExportFile, error) {
	_, table, err := s.source.Availability(ctx, tutoringID)
	if err != nil {
		return nil, err
	}
	dataset := tableDataset(table)
	base := fmt.Sprintf("disponibilidad-%s", tutoringID)

	switch format {
	case ExportFormatPDF:
		body, err := s.pdf.Render(dataset, export.PDFOptions{Title: "Horarios disponibles", Landscape: true, Marked: exportMark})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8", Body: body}, nil
	}
}

func tableDataset(table models.AvailabilityTable) export.Dataset {
	headers := append([]string{exportHourHeader}, table.Headers...)
	rows := make([]map[string]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := map[string]string{exportHourHeader: row.Label}
		for i, occupied := range row.Cells {
			if occupied {
				record[table.Headers[i]] = exportMark
			}
		}
		rows = append(rows, record)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
