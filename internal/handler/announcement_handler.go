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

type announcementService interface {
	List(ctx context.Context) ([]models.Announcement, error)
	Subscribe(ctx context.Context, onChange func([]models.Announcement)) (func(), error)
	Add(ctx context.Context, req models.CreateAnnouncementRequest) (string, error)
	Delete(ctx context.Context, id string) error
}

type announcementExporter interface {
	Announcements(ctx context.Context, format service.ExportFormat) (*service.ExportResult, error)
}

// AnnouncementHandler exposes the announcements collection.
type AnnouncementHandler struct {
	service   announcementService
	exporter  announcementExporter
	heartbeat time.Duration
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService, exporter announcementExporter) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc, exporter: exporter, heartbeat: defaultHeartbeat}
}

// List godoc
// @Summary List announcements
// @Description Current announcements, newest first
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Stream godoc
// @Summary Stream announcements
// @Description Server-Sent Events; a "snapshot" event carries the full ordered list after every change
// @Tags Announcements
// @Produce text/event-stream
// @Router /announcements/stream [get]
func (h *AnnouncementHandler) Stream(c *gin.Context) {
	streamSnapshots(c, h.service.Subscribe, h.heartbeat)
}

// Create godoc
// @Summary Post an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
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
// @Summary Delete an announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export announcements
// @Tags Announcements
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /announcements/export [get]
func (h *AnnouncementHandler) Export(c *gin.Context) {
	result, err := h.exporter.Announcements(c.Request.Context(), service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
