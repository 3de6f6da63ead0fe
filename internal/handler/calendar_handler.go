package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/internal/service"
	"github.com/noah-isme/campuspass-api/pkg/response"
)

type calendarService interface {
	List(ctx context.Context) ([]models.CalendarItem, error)
	Subscribe(ctx context.Context, onChange func([]models.CalendarItem)) (func(), error)
	Add(ctx context.Context, req models.CreateCalendarItemRequest) (string, error)
	Delete(ctx context.Context, id string) error
	ItemsOn(items []models.CalendarItem, day string) ([]models.CalendarItem, error)
	DaysWithItems(items []models.CalendarItem) []models.CalendarDay
}

type calendarExporter interface {
	CalendarItems(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
}

// CalendarHandler exposes events and assessments.
type CalendarHandler struct {
	service   calendarService
	exporter  calendarExporter
	heartbeat time.Duration
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc calendarService, exporter calendarExporter) *CalendarHandler {
	return &CalendarHandler{service: svc, exporter: exporter, heartbeat: defaultHeartbeat}
}

// List godoc
// @Summary List calendar items
// @Description Chronological events and assessments, optionally only those on one day
// @Tags Calendar
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar-items [get]
func (h *CalendarHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{}
	if day := c.Query("date"); day != "" {
		items, err = h.service.ItemsOn(items, day)
		if err != nil {
			response.Error(c, err)
			return
		}
		meta["date"] = day
	}
	meta["count"] = len(items)
	response.JSON(c, http.StatusOK, items, meta)
}

// Days godoc
// @Summary Days with calendar items
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendar-items/days [get]
func (h *CalendarHandler) Days(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.service.DaysWithItems(items))
}

// Stream godoc
// @Summary Stream calendar items
// @Description Server-Sent Events; a "snapshot" event carries the full ordered list after every change
// @Tags Calendar
// @Produce text/event-stream
// @Router /calendar-items/stream [get]
func (h *CalendarHandler) Stream(c *gin.Context) {
	streamSnapshots(c, h.service.Subscribe, h.heartbeat)
}

// Create godoc
// @Summary Add an event or assessment
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body models.CreateCalendarItemRequest true "Calendar item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /calendar-items [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req models.CreateCalendarItemRequest
	if !bindJSON(c, &req, "invalid calendar item payload") {
		return
	}
	id, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// Delete godoc
// @Summary Delete a calendar item
// @Tags Calendar
// @Param id path string true "Calendar item ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /calendar-items/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the calendar
// @Tags Calendar
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /calendar-items/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	result, err := h.exporter.CalendarItems(c.Request.Context(), service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
