package models

// CalendarItemType discriminates the CalendarItem variants.
type CalendarItemType string

const (
	CalendarItemTypeEvent      CalendarItemType = "event"
	CalendarItemTypeAssessment CalendarItemType = "assessment"
)

// CalendarItem is an entry under calendarItems/{id}. The only implementations are *Event
// and *Assessment.
type CalendarItem interface {
	ItemID() string
	ItemType() CalendarItemType
	ItemTitle() string
	ItemDescription() string
	// ItemDate is YYYY-MM-DD for events and an RFC 3339 UTC instant for assessments.
	ItemDate() string

	calendarItem()
}

// Event is a whole-day calendar entry.
type Event struct {
	ID          string           `json:"id"`
	Type        CalendarItemType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

func (e *Event) ItemID() string             { return e.ID }
func (e *Event) ItemType() CalendarItemType { return CalendarItemTypeEvent }
func (e *Event) ItemTitle() string          { return e.Title }
func (e *Event) ItemDescription() string    { return e.Description }
func (e *Event) ItemDate() string           { return e.Date }
func (e *Event) calendarItem()              {}

// Assessment is a graded task due at a specific instant.
type Assessment struct {
	ID          string           `json:"id"`
	Type        CalendarItemType `json:"type"`
	Title       string           `json:"title"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
}

func (a *Assessment) ItemID() string             { return a.ID }
func (a *Assessment) ItemType() CalendarItemType { return CalendarItemTypeAssessment }
func (a *Assessment) ItemTitle() string          { return a.Title }
func (a *Assessment) ItemDescription() string    { return a.Description }
func (a *Assessment) ItemDate() string           { return a.Date }
func (a *Assessment) calendarItem()              {}

// CreateEventRequest describes a new event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	EventDate   string `json:"eventDate" validate:"required,isodate"`
}

// CreateAssessmentRequest describes a new assessment. DueDate and DueTime are local to the
// campus time zone.
type CreateAssessmentRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"required,isodate"`
	DueTime     string `json:"dueTime" validate:"required,clocktime"`
}

// CreateCalendarItemRequest is the transport payload; Type selects which fields apply.
type CreateCalendarItemRequest struct {
	Type        CalendarItemType `json:"type" validate:"required,oneof=event assessment"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Subject     string           `json:"subject"`
	EventDate   string           `json:"eventDate"`
	DueDate     string           `json:"dueDate"`
	DueTime     string           `json:"dueTime"`
}

// CalendarDay summarises one day that carries at least one item.
type CalendarDay struct {
	Date        string `json:"date"`
	Events      int    `json:"events"`
	Assessments int    `json:"assessments"`
}
