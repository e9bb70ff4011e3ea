package competition

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted:
		return true
	default:
		return false
	}
}

// DateLayout is the calendar-date wire format for competition windows.
const DateLayout = "2006-01-02"

// Competition is a month-long contest grouping weekly challenges.
type Competition struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	Status        Status
	Theme         string
	Prize         string
	BackgroundURL string
	CreatedAt     time.Time
	Version       int64
}

// Validate only checks structural integrity; optional fields are caller defaults.
func (c Competition) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("competition id is required")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid competition status %q", c.Status)
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("competition end date must not be before start date")
	}

	return nil
}

// Normalize fills derived fields: slug from title, default status, date-only windows.
func (c Competition) Normalize() Competition {
	c.Title = strings.TrimSpace(c.Title)
	if c.Status == "" {
		c.Status = StatusUpcoming
	}
	c.Slug = slug.Make(c.Title)
	c.StartDate = TruncateDate(c.StartDate)
	c.EndDate = TruncateDate(c.EndDate)
	return c
}

// StatusAt derives the status implied by the window on the given day.
// A competition without dates keeps its current status.
func (c Competition) StatusAt(now time.Time) Status {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return c.Status
	}
	day := TruncateDate(now)
	switch {
	case day.Before(c.StartDate):
		return StatusUpcoming
	case day.After(c.EndDate):
		return StatusCompleted
	default:
		return StatusActive
	}
}

func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}
