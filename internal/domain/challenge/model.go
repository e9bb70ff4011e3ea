package challenge

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusRating    Status = "rating"
	StatusLocked    Status = "locked"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusRating, StatusLocked, StatusCompleted:
		return true
	default:
		return false
	}
}

const DefaultMaxSubmissions = 1

// Challenge is one weekly task inside a competition.
type Challenge struct {
	ID             string
	CompetitionID  string
	Title          string
	Description    string
	Criteria       []string
	WeekNumber     int
	Status         Status
	Rules          []string
	StartDate      *time.Time
	EndDate        *time.Time
	MaxSubmissions int
	BackgroundURL  string
	CreatedAt      time.Time
	Version        int64
}

func (c Challenge) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("challenge id is required")
	}
	if strings.TrimSpace(c.CompetitionID) == "" {
		return fmt.Errorf("challenge competition id is required")
	}
	if c.WeekNumber <= 0 {
		return fmt.Errorf("week number must be > 0")
	}
	if !c.Status.Valid() {
		return fmt.Errorf("invalid challenge status %q", c.Status)
	}
	if c.MaxSubmissions <= 0 {
		return fmt.Errorf("max submissions must be > 0")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("challenge end date must not be before start date")
	}

	return nil
}

// Normalize applies defaults for optional fields.
func (c Challenge) Normalize() Challenge {
	c.Title = strings.TrimSpace(c.Title)
	if c.Status == "" {
		c.Status = StatusUpcoming
	}
	if c.MaxSubmissions <= 0 {
		c.MaxSubmissions = DefaultMaxSubmissions
	}
	c.Criteria = compact(c.Criteria)
	c.Rules = compact(c.Rules)
	return c
}

// AcceptsSubmissions reports whether players may still enter. Only a locked
// challenge is closed to players.
func (c Challenge) AcceptsSubmissions() bool {
	return c.Status != StatusLocked
}

// Clone returns a deep copy; slices and date pointers are not shared.
func (c Challenge) Clone() Challenge {
	c.Criteria = append([]string(nil), c.Criteria...)
	c.Rules = append([]string(nil), c.Rules...)
	if c.StartDate != nil {
		v := *c.StartDate
		c.StartDate = &v
	}
	if c.EndDate != nil {
		v := *c.EndDate
		c.EndDate = &v
	}
	return c
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
