package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
)

// announcementRecord is the stored shape; the id lives in the key.
type announcementRecord struct {
	Title    string                      `json:"title"`
	Content  string                      `json:"content"`
	Category models.AnnouncementCategory `json:"category"`
	Date     string                      `json:"date"`
}

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	store  docstore.Client
	path   docstore.Path
	logger *zap.Logger
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(store docstore.Client, logger *zap.Logger) *AnnouncementRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementRepository{store: store, path: docstore.MustPath(AnnouncementsPath), logger: logger}
}

// NewID returns a fresh time ordered key.
func (r *AnnouncementRepository) NewID() string {
	return r.store.NewKey()
}

// Create writes the full record at announcements/{id}.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if err := docstore.ValidateKey(announcement.ID); err != nil {
		return err
	}
	record := announcementRecord{
		Title:    announcement.Title,
		Content:  announcement.Content,
		Category: announcement.Category,
		Date:     announcement.Date,
	}
	if err := r.store.Set(ctx, r.path.Child(announcement.ID), record); err != nil {
		return fmt.Errorf("write announcement %s: %w", announcement.ID, err)
	}
	return nil
}

// Delete removes announcements/{id}. Missing ids are not an error.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	if err := docstore.ValidateKey(id); err != nil {
		return err
	}
	if err := r.store.Remove(ctx, r.path.Child(id)); err != nil {
		return fmt.Errorf("remove announcement %s: %w", id, err)
	}
	return nil
}

// List returns the current announcements in key order.
func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	return list(ctx, r.store, r.path, decodeAnnouncement, r.logger)
}

// Subscribe streams the announcements collection to fn.
func (r *AnnouncementRepository) Subscribe(ctx context.Context, fn func([]models.Announcement)) (*docstore.Subscription, error) {
	return subscribe(ctx, r.store, r.path, decodeAnnouncement, r.logger, fn)
}

func decodeAnnouncement(key string, raw json.RawMessage) (models.Announcement, error) {
	var rec announcementRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Announcement{}, malformed("announcement: %v", err)
	}
	if strings.TrimSpace(rec.Title) == "" {
		return models.Announcement{}, malformed("announcement without title")
	}
	if rec.Date == "" {
		return models.Announcement{}, malformed("announcement without date")
	}
	return models.Announcement{
		ID:       key,
		Title:    rec.Title,
		Content:  rec.Content,
		Category: rec.Category,
		Date:     rec.Date,
	}, nil
}
