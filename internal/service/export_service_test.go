package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/internal/models"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
	"github.com/noah-isme/campuspass-api/pkg/export"
)

type stubAnnouncementLister struct {
	items []models.Announcement
	err   error
}

func (s stubAnnouncementLister) List(ctx context.Context) ([]models.Announcement, error) {
	return s.items, s.err
}

type stubCalendarLister struct {
	items []models.CalendarItem
}

func (s stubCalendarLister) List(ctx context.Context) ([]models.CalendarItem, error) {
	return s.items, nil
}

func (s stubCalendarLister) Location() *time.Location { return manila }

type failingPDF struct{}

func (failingPDF) Render(data export.Dataset, title string) ([]byte, error) {
	return nil, errors.New("font missing")
}

func newExportFixture(announcements stubAnnouncementLister, calendar stubCalendarLister) *ExportService {
	svc := NewExportService(announcements, calendar, nil, export.NewPlainCSVExporter(), nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 10, 3, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceAnnouncementsCSV(t *testing.T) {
	svc := newExportFixture(stubAnnouncementLister{items: []models.Announcement{
		{ID: "1", Title: "Exams", Content: "Week 9, room 201", Category: models.AnnouncementCategoryAcademics, Date: "2025-05-01"},
	}}, stubCalendarLister{})

	result, err := svc.Announcements(context.Background(), ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "announcements-20250510.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, string(result.Body), "Date,Category,Title,Content")
	assert.Contains(t, string(result.Body), `2025-05-01,Academics,Exams,"Week 9, room 201"`)
}

func TestExportServiceCalendarShowsLocalDueTime(t *testing.T) {
	svc := newExportFixture(stubAnnouncementLister{}, stubCalendarLister{items: []models.CalendarItem{
		&models.Assessment{ID: "a", Title: "Quiz", Subject: "Math", Date: "2025-05-10T06:30:00.000Z"},
		&models.Event{ID: "e", Title: "Fair", Date: "2025-05-11"},
	}})

	result, err := svc.CalendarItems(context.Background(), "")
	require.NoError(t, err)
	body := string(result.Body)
	assert.Contains(t, body, "2025-05-10 14:30,assessment,Math,Quiz,")
	assert.Contains(t, body, "2025-05-11,event,,Fair,")
}

func TestExportServicePDF(t *testing.T) {
	svc := newExportFixture(stubAnnouncementLister{items: []models.Announcement{{ID: "1", Title: "Exams", Date: "2025-05-01"}}}, stubCalendarLister{})

	result, err := svc.Announcements(context.Background(), "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "announcements-20250510.pdf", result.Filename)
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
}

func TestExportServiceErrors(t *testing.T) {
	svc := newExportFixture(stubAnnouncementLister{}, stubCalendarLister{})
	_, err := svc.Announcements(context.Background(), "xlsx")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	failing := NewExportService(stubAnnouncementLister{}, stubCalendarLister{}, nil, nil, failingPDF{})
	_, err = failing.Announcements(context.Background(), ExportFormatPDF)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
}
