package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/internal/service"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
)

type calendarServiceMock struct {
	items   []models.CalendarItem
	err     error
	onErr   error
	addID   string
	lastReq models.CreateCalendarItemRequest
	lastDay string
	days    []models.CalendarDay
}

func (m *calendarServiceMock) List(ctx context.Context) ([]models.CalendarItem, error) {
	return m.items, m.err
}

func (m *calendarServiceMock) Subscribe(ctx context.Context, onChange func([]models.CalendarItem)) (func(), error) {
	if m.err != nil {
		return nil, m.err
	}
	onChange(m.items)
	return func() {}, nil
}

func (m *calendarServiceMock) Add(ctx context.Context, req models.CreateCalendarItemRequest) (string, error) {
	m.lastReq = req
	return m.addID, m.err
}

func (m *calendarServiceMock) Delete(ctx context.Context, id string) error {
	return m.err
}

func (m *calendarServiceMock) ItemsOn(items []models.CalendarItem, day string) ([]models.CalendarItem, error) {
	m.lastDay = day
	if m.onErr != nil {
		return nil, m.onErr
	}
	return items[:1], nil
}

func (m *calendarServiceMock) DaysWithItems(items []models.CalendarItem) []models.CalendarDay {
	return m.days
}

func sampleCalendarItems() []models.CalendarItem {
	return []models.CalendarItem{
		&models.Event{ID: "e1", Type: models.CalendarItemTypeEvent, Title: "Foundation Day", Date: "2024-03-01"},
		&models.Assessment{ID: "a1", Type: models.CalendarItemTypeAssessment, Title: "Quiz 1", Subject: "Math", Date: "2024-03-02T01:00:00.000Z"},
	}
}

func TestCalendarHandlerList(t *testing.T) {
	handler := NewCalendarHandler(&calendarServiceMock{items: sampleCalendarItems()}, &exporterMock{})

	c, w := newTestContext(http.MethodGet, "/calendar-items", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "event", items[0]["type"])
	assert.Equal(t, "Math", items[1]["subject"])
}

func TestCalendarHandlerListFiltersByDay(t *testing.T) {
	svc := &calendarServiceMock{items: sampleCalendarItems()}
	handler := NewCalendarHandler(svc, &exporterMock{})

	c, w := newTestContext(http.MethodGet, "/calendar-items?date=2024-03-01", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-01", svc.lastDay)
	env := decodeEnvelope(t, w)
	assert.EqualValues(t, 1, env.Meta["count"])
	assert.Equal(t, "2024-03-01", env.Meta["date"])
}

func TestCalendarHandlerListRejectsBadDay(t *testing.T) {
	svc := &calendarServiceMock{items: sampleCalendarItems(), onErr: appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")}
	handler := NewCalendarHandler(svc, &exporterMock{})

	c, w := newTestContext(http.MethodGet, "/calendar-items?date=March", nil)
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerDays(t *testing.T) {
	svc := &calendarServiceMock{items: sampleCalendarItems(), days: []models.CalendarDay{{Date: "2024-03-01", Events: 1}}}
	handler := NewCalendarHandler(svc, &exporterMock{})

	c, w := newTestContext(http.MethodGet, "/calendar-items/days", nil)
	handler.Days(c)

	require.Equal(t, http.StatusOK, w.Code)
	var days []models.CalendarDay
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &days))
	assert.Equal(t, []models.CalendarDay{{Date: "2024-03-01", Events: 1}}, days)
}

func TestCalendarHandlerCreate(t *testing.T) {
	svc := &calendarServiceMock{addID: "cal-1"}
	handler := NewCalendarHandler(svc, &exporterMock{})

	payload := []byte(`{"type":"assessment","subject":"Math","title":"Quiz","dueDate":"2024-03-02","dueTime":"09:00"}`)
	c, w := newTestContext(http.MethodPost, "/calendar-items", payload)
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.CalendarItemTypeAssessment, svc.lastReq.Type)
	assert.Equal(t, "09:00", svc.lastReq.DueTime)
}

func TestCalendarHandlerExport(t *testing.T) {
	exporter := &exporterMock{result: &service.ExportResult{Filename: "calendar-20240301.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("a,b")}}
	handler := NewCalendarHandler(&calendarServiceMock{}, exporter)

	c, w := newTestContext(http.MethodGet, "/calendar-items/export?format=csv", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b", w.Body.String())
}
