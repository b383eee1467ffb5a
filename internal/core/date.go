package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the canonical record date form.
	DateLayout = "2006-01-02"
	// MonthLayout is the form of a month view parameter.
	MonthLayout = "2006-01"
)

// FormatDate returns the canonical form of t in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatMonth returns the YYYY-MM form of t.
func FormatMonth(t time.Time) string {
	return t.Format(MonthLayout)
}

// IsCanonicalDate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsCanonicalDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsMonth reports whether s is a YYYY-MM month.
func IsMonth(s string) bool {
	if len(s) != len(MonthLayout) {
		return false
	}
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}

// ShiftMonth moves a YYYY-MM month by delta months.
func ShiftMonth(month string, delta int) (string, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return "", fmt.Errorf("parse month %q: %w", month, err)
	}
	return FormatMonth(t.AddDate(0, delta, 0)), nil
}

// MonthLabel renders a month as "March 2024". Invalid input is returned as is.
func MonthLabel(month string) string {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// Generator supplies the values a record gets when the caller leaves them out.
type Generator interface {
	NewID() string
	Today() string
}

// SystemGenerator draws ids from random UUIDs and dates from the local clock.
type SystemGenerator struct{}

// NewID returns a random UUID string.
func (SystemGenerator) NewID() string {
	return uuid.NewString()
}

// Today returns the current local date in canonical form.
func (SystemGenerator) Today() string {
	return FormatDate(time.Now())
}
