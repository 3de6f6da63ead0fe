package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campuspass-api/internal/models"
	"github.com/noah-isme/campuspass-api/pkg/docstore"
	appErrors "github.com/noah-isme/campuspass-api/pkg/errors"
)

// assessmentDateLayout renders instants like 2025-05-10T06:30:00.000Z.
const assessmentDateLayout = "2006-01-02T15:04:05.000Z"

type calendarRepository interface {
	NewID() string
	Create(ctx context.Context, item models.CalendarItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.CalendarItem, error)
	Subscribe(ctx context.Context, fn func([]models.CalendarItem)) (*docstore.Subscription, error)
}

// CalendarService keeps the shared calendar of events and assessments in sync.
type CalendarService struct {
	repo      calendarRepository
	validator *validator.Validate
	location  *time.Location
	logger    *zap.Logger
}

// NewCalendarService constructs the service. Due dates and day lookups use loc.
func NewCalendarService(repo calendarRepository, validate *validator.Validate, loc *time.Location, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, validator: validate, location: loc, logger: logger}
}

// Location returns the campus time zone.
func (s *CalendarService) Location() *time.Location {
	return s.location
}

// Subscribe delivers the chronologically ordered items now and after every change.
func (s *CalendarService) Subscribe(ctx context.Context, onChange func([]models.CalendarItem)) (func(), error) {
	sub, err := s.repo.Subscribe(ctx, func(items []models.CalendarItem) {
		s.Sort(items)
		onChange(items)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to subscribe to calendar items")
	}
	return sub.Unsubscribe, nil
}

// List returns the current ordered calendar items.
func (s *CalendarService) List(ctx context.Context) ([]models.CalendarItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendar items")
	}
	s.Sort(items)
	return items, nil
}

// Add dispatches on req.Type.
func (s *CalendarService) Add(ctx context.Context, req models.CreateCalendarItemRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err)
	}
	switch req.Type {
	case models.CalendarItemTypeEvent:
		return s.AddEvent(ctx, models.CreateEventRequest{
			Title:       req.Title,
			Description: req.Description,
			EventDate:   req.EventDate,
		})
	default:
		return s.AddAssessment(ctx, models.CreateAssessmentRequest{
			Subject:     req.Subject,
			Title:       req.Title,
			Description: req.Description,
			DueDate:     req.DueDate,
			DueTime:     req.DueTime,
		})
	}
}

// AddEvent stores a whole-day event and returns its id.
func (s *CalendarService) AddEvent(ctx context.Context, req models.CreateEventRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err)
	}
	event := &models.Event{
		ID:          s.repo.NewID(),
		Type:        models.CalendarItemTypeEvent,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.EventDate,
	}
	return s.create(ctx, event)
}

// AddAssessment stores an assessment whose date is the due date and time combined in the
// campus time zone, as a UTC instant.
func (s *CalendarService) AddAssessment(ctx context.Context, req models.CreateAssessmentRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err)
	}
	due, err := AssessmentDate(req.DueDate, req.DueTime, s.location)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid due date or time")
	}
	assessment := &models.Assessment{
		ID:          s.repo.NewID(),
		Type:        models.CalendarItemTypeAssessment,
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Date:        due,
	}
	return s.create(ctx, assessment)
}

func (s *CalendarService) create(ctx context.Context, item models.CalendarItem) (string, error) {
	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error("add calendar item failed", zap.String("id", item.ItemID()), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, "failed to add calendar item")
	}
	s.logger.Info("calendar item added", zap.String("id", item.ItemID()), zap.String("type", string(item.ItemType())))
	return item.ItemID(), nil
}

// Delete removes a calendar item. Unknown ids are a no-op.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar item id")
		}
		s.logger.Error("delete calendar item failed", zap.String("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, "failed to delete calendar item")
	}
	return nil
}

// Sort orders items chronologically. Date-only values count as midnight in the campus time
// zone; values that parse neither way go last in string order. Ties fall back to id.
func (s *CalendarService) Sort(items []models.CalendarItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if c := compareDates(items[i].ItemDate(), items[j].ItemDate(), s.location); c != 0 {
			return c < 0
		}
		return items[i].ItemID() < items[j].ItemID()
	})
}

// ItemsOn returns the items falling on day (YYYY-MM-DD) in the campus time zone, keeping
// their order.
func (s *CalendarService) ItemsOn(items []models.CalendarItem, day string) ([]models.CalendarItem, error) {
	if _, err := time.Parse(isoDateLayout, day); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be a YYYY-MM-DD date")
	}
	out := make([]models.CalendarItem, 0)
	for _, item := range items {
		if s.dayOf(item) == day {
			out = append(out, item)
		}
	}
	return out, nil
}

// DaysWithItems lists every day that carries at least one item, in date order.
func (s *CalendarService) DaysWithItems(items []models.CalendarItem) []models.CalendarDay {
	byDay := map[string]*models.CalendarDay{}
	for _, item := range items {
		day := s.dayOf(item)
		if day == "" {
			continue
		}
		entry, ok := byDay[day]
		if !ok {
			entry = &models.CalendarDay{Date: day}
			byDay[day] = entry
		}
		switch item.(type) {
		case *models.Event:
			entry.Events++
		case *models.Assessment:
			entry.Assessments++
		}
	}
	days := make([]models.CalendarDay, 0, len(byDay))
	for _, entry := range byDay {
		days = append(days, *entry)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// dayOf is the campus calendar day an item falls on, or "" when its date is unreadable.
func (s *CalendarService) dayOf(item models.CalendarItem) string {
	switch v := item.(type) {
	case *models.Event:
		if _, err := time.Parse(isoDateLayout, v.Date); err == nil {
			return v.Date
		}
		return ""
	case *models.Assessment:
		if t, ok := parseItemDate(v.Date, s.location); ok {
			return t.In(s.location).Format(isoDateLayout)
		}
		if len(v.Date) >= len(isoDateLayout) {
			if _, err := time.Parse(isoDateLayout, v.Date[:len(isoDateLayout)]); err == nil {
				return v.Date[:len(isoDateLayout)]
			}
		}
		return ""
	default:
		return ""
	}
}

// AssessmentDate combines a local due date and time into a UTC instant string.
func AssessmentDate(dueDate, dueTime string, loc *time.Location) (string, error) {
	day, err := time.Parse(isoDateLayout, dueDate)
	if err != nil {
		return "", err
	}
	clock, err := parseClock(dueTime)
	if err != nil {
		return "", err
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
	return local.UTC().Format(assessmentDateLayout), nil
}

// parseItemDate reads a stored date. Date-only values are midnight in loc.
func parseItemDate(raw string, loc *time.Location) (time.Time, bool) {
	if len(raw) == len(isoDateLayout) {
		t, err := time.ParseInLocation(isoDateLayout, raw, loc)
		return t, err == nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	return t, err == nil
}

// compareDates returns -1, 0 or 1. Parseable dates order before unparseable ones.
func compareDates(a, b string, loc *time.Location) int {
	ta, okA := parseItemDate(a, loc)
	tb, okB := parseItemDate(b, loc)
	switch {
	case okA && okB:
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}
