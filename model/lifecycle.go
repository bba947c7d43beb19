package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// DateLayout is the format used when dates are printed on certificates.
const DateLayout = "January 2, 2006"

// CalendarDay returns midnight UTC of the calendar day t falls on in loc.
// Joining dates and "today" are both reduced to this form before comparing.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	start := now.With(t.In(loc)).BeginningOfDay()
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseJoiningDate accepts "2006-01-02", RFC3339 timestamps and the other
// layouts understood by jinzhu/now, keeping only the calendar day.
func ParseJoiningDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("joining date is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := now.ParseInLocation(time.UTC, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid joining date %q: %w", value, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ExpectedCompletionDate is the joining day plus the internship duration in days.
// Joining dates are stored as UTC midnight; drivers may hand them back in the
// local zone, so the calendar day is read in UTC.
func (i *Intern) ExpectedCompletionDate() time.Time {
	j := i.JoiningDate.UTC()
	joined := time.Date(j.Year(), j.Month(), j.Day(), 0, 0, 0, 0, time.UTC)
	return joined.AddDate(0, 0, i.InternshipDuration)
}

// IsDueForCompletion reports whether today (a CalendarDay) has reached the
// expected completion date.
func (i *Intern) IsDueForCompletion(today time.Time) bool {
	return !today.Before(i.ExpectedCompletionDate())
}

// CanTransition reports whether an intern may move from one status to another.
// Only active interns change state.
func CanTransition(from, to string) bool {
	if from != InternActive {
		return false
	}
	return to == InternCompleted || to == InternTerminated
}

func ValidTemplateType(t TemplateType) bool {
	switch t {
	case JoiningLetter, HiringCertificate, CompletionCertificate:
		return true
	}
	return false
}

// FormatDuration renders a duration in days the way certificates print it.
func FormatDuration(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
