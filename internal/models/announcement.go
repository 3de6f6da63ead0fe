package models

// AnnouncementCategory groups announcements on the dashboard.
type AnnouncementCategory string

const (
	AnnouncementCategoryAcademics AnnouncementCategory = "Academics"
	AnnouncementCategoryEvent     AnnouncementCategory = "Event"
	AnnouncementCategoryCampus    AnnouncementCategory = "Campus"
	AnnouncementCategoryOther     AnnouncementCategory = "Other"
)

// AnnouncementCategories lists every accepted category in display order.
var AnnouncementCategories = []AnnouncementCategory{
	AnnouncementCategoryAcademics,
	AnnouncementCategoryEvent,
	AnnouncementCategoryCampus,
	AnnouncementCategoryOther,
}

// Valid reports whether c is a known category.
func (c AnnouncementCategory) Valid() bool {
	for _, known := range AnnouncementCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Announcement is a record under announcements/{id}. Date is the UTC calendar day the
// announcement was created, formatted YYYY-MM-DD.
type Announcement struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Content  string               `json:"content"`
	Category AnnouncementCategory `json:"category"`
	Date     string               `json:"date"`
}

// CreateAnnouncementRequest is the payload accepted by AnnouncementService.Add.
type CreateAnnouncementRequest struct {
	Title    string               `json:"title" validate:"required"`
	Content  string               `json:"content" validate:"required"`
	Category AnnouncementCategory `json:"category" validate:"required,category"`
}
