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

// calendarRecord covers both stored variants; Subject is only written for assessments.
type calendarRecord struct {
	Type        models.CalendarItemType `json:"type"`
	Title       string                  `json:"title"`
	Subject     string                  `json:"subject,omitempty"`
	Description string                  `json:"description"`
	Date        string                  `json:"date"`
}

// CalendarRepository persists events and assessments under calendarItems.
type CalendarRepository struct {
	store  docstore.Client
	path   docstore.Path
	logger *zap.Logger
}

// NewCalendarRepository creates the repository.
func NewCalendarRepository(store docstore.Client, logger *zap.Logger) *CalendarRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarRepository{store: store, path: docstore.MustPath(CalendarItemsPath), logger: logger}
}

// NewID returns a fresh time ordered key.
func (r *CalendarRepository) NewID() string {
	return r.store.NewKey()
}

// Create writes the full record at calendarItems/{id}.
func (r *CalendarRepository) Create(ctx context.Context, item models.CalendarItem) error {
	var record calendarRecord
	switch v := item.(type) {
	case *models.Event:
		record = calendarRecord{Type: models.CalendarItemTypeEvent, Title: v.Title, Description: v.Description, Date: v.Date}
	case *models.Assessment:
		record = calendarRecord{Type: models.CalendarItemTypeAssessment, Title: v.Title, Subject: v.Subject, Description: v.Description, Date: v.Date}
	default:
		return fmt.Errorf("unsupported calendar item %T", item)
	}
	id := item.ItemID()
	if err := docstore.ValidateKey(id); err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.path.Child(id), record); err != nil {
		return fmt.Errorf("write calendar item %s: %w", id, err)
	}
	return nil
}

// Delete removes calendarItems/{id}. Missing ids are not an error.
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	if err := docstore.ValidateKey(id); err != nil {
		return err
	}
	if err := r.store.Remove(ctx, r.path.Child(id)); err != nil {
		return fmt.Errorf("remove calendar item %s: %w", id, err)
	}
	return nil
}

// List returns the current calendar items in key order.
func (r *CalendarRepository) List(ctx context.Context) ([]models.CalendarItem, error) {
	return list(ctx, r.store, r.path, decodeCalendarItem, r.logger)
}

// Subscribe streams the calendar collection to fn.
func (r *CalendarRepository) Subscribe(ctx context.Context, fn func([]models.CalendarItem)) (*docstore.Subscription, error) {
	return subscribe(ctx, r.store, r.path, decodeCalendarItem, r.logger, fn)
}

func decodeCalendarItem(key string, raw json.RawMessage) (models.CalendarItem, error) {
	var rec calendarRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, malformed("calendar item: %v", err)
	}
	if strings.TrimSpace(rec.Title) == "" {
		return nil, malformed("calendar item without title")
	}
	if rec.Date == "" {
		return nil, malformed("calendar item without date")
	}
	switch rec.Type {
	case models.CalendarItemTypeEvent:
		return &models.Event{
			ID:          key,
			Type:        models.CalendarItemTypeEvent,
			Title:       rec.Title,
			Description: rec.Description,
			Date:        rec.Date,
		}, nil
	case models.CalendarItemTypeAssessment:
		return &models.Assessment{
			ID:          key,
			Type:        models.CalendarItemTypeAssessment,
			Title:       rec.Title,
			Subject:     rec.Subject,
			Description: rec.Description,
			Date:        rec.Date,
		}, nil
	default:
		return nil, malformed("unknown calendar item type %q", rec.Type)
	}
}
