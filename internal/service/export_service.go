package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
	"github.com/noah-isme/campuspass-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type announcementLister interface {
	List(ctx context.Context) ([]models.Announcement, error)
}

type calendarLister interface {
	List(ctx context.Context) ([]models.CalendarItem, error)
	Location() *time.Location
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered file ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the current collections as CSV or PDF.
type ExportService struct {
	announcements announcementLister
	calendar      calendarLister
	csv           csvRenderer
	pdf           pdfRenderer
	logger        *zap.Logger
	now           func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(announcements announcementLister, calendar calendarLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		announcements: announcements,
		calendar:      calendar,
		csv:           csv,
		pdf:           pdf,
		logger:        logger,
		now:           time.Now,
	}
}

// Announcements renders the ordered announcements.
func (s *ExportService) Announcements(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	items, err := s.announcements.List(ctx)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{Headers: []string{"Date", "Category", "Title", "Content"}}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":     item.Date,
			"Category": string(item.Category),
			"Title":    item.Title,
			"Content":  item.Content,
		})
	}
	return s.render(dataset, "Announcements", "announcements", format)
}

// CalendarItems renders the ordered calendar with due times shown in the campus time zone.
func (s *ExportService) CalendarItems(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	items, err := s.calendar.List(ctx)
	if err != nil {
		return nil, err
	}
	loc := s.calendar.Location()
	dataset := export.Dataset{Headers: []string{"Date", "Type", "Subject", "Title", "Description"}}
	for _, item := range items {
		row := map[string]string{
			"Date":        item.ItemDate(),
			"Type":        string(item.ItemType()),
			"Title":       item.ItemTitle(),
			"Description": item.ItemDescription(),
		}
		if a, ok := item.(*models.Assessment); ok {
			row["Subject"] = a.Subject
			if due, ok := parseItemDate(a.Date, loc); ok {
				row["Date"] = due.In(loc).Format("2006-01-02 15:04")
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return s.render(dataset, "Calendar", "calendar-items", format)
}

func (s *ExportService) render(dataset export.Dataset, title, name string, format ExportFormat) (*ExportResult, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	switch ExportFormat(strings.ToLower(string(format))) {
	case ExportFormatCSV, "":
		format = ExportFormatCSV
		contentType = "text/csv"
		body, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		format = ExportFormatPDF
		contentType = "application/pdf"
		body, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		s.logger.Error("render export failed", zap.String("export", name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s-%s.%s", name, s.now().UTC().Format("20060102"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}
