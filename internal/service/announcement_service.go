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

type announcementRepository interface {
	NewID() string
	Create(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Announcement, error)
	Subscribe(ctx context.Context, fn func([]models.Announcement)) (*docstore.Subscription, error)
}

// AnnouncementService keeps the announcements collection in sync with its subscribers.
type AnnouncementService struct {
	repo      announcementRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = NewValidator()
	} else {
		registerValidations(validate)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Subscribe delivers the ordered announcements now and after every change. The returned func
// stops deliveries and may be called more than once.
func (s *AnnouncementService) Subscribe(ctx context.Context, onChange func([]models.Announcement)) (func(), error) {
	sub, err := s.repo.Subscribe(ctx, func(items []models.Announcement) {
		SortAnnouncements(items)
		onChange(items)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to subscribe to announcements")
	}
	return sub.Unsubscribe, nil
}

// List returns the current ordered announcements.
func (s *AnnouncementService) List(ctx context.Context) ([]models.Announcement, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	SortAnnouncements(items)
	return items, nil
}

// Add stores a new announcement dated with the current UTC day and returns its id.
func (s *AnnouncementService) Add(ctx context.Context, req models.CreateAnnouncementRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err)
	}
	announcement := &models.Announcement{
		ID:       s.repo.NewID(),
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Date:     s.now().UTC().Format(isoDateLayout),
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		s.logger.Error("add announcement failed", zap.String("id", announcement.ID), zap.Error(err))
		return "", appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, "failed to add announcement")
	}
	s.logger.Info("announcement added", zap.String("id", announcement.ID), zap.String("category", string(announcement.Category)))
	return announcement.ID, nil
}

// Delete removes an announcement. Unknown ids are a no-op.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement id")
		}
		s.logger.Error("delete announcement failed", zap.String("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrWriteFailure.Code, appErrors.ErrWriteFailure.Status, "failed to delete announcement")
	}
	return nil
}

// SortAnnouncements orders newest first. Equal dates put the later generated id first and
// unreadable dates go last.
func SortAnnouncements(items []models.Announcement) {
	sort.SliceStable(items, func(i, j int) bool {
		ta, okA := parseItemDate(items[i].Date, time.UTC)
		tb, okB := parseItemDate(items[j].Date, time.UTC)
		switch {
		case okA && okB && !ta.Equal(tb):
			return ta.After(tb)
		case okA != okB:
			return okA
		case !okA && items[i].Date != items[j].Date:
			return items[i].Date > items[j].Date
		}
		return items[i].ID > items[j].ID
	})
}
