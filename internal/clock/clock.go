// Package clock supplies "now" and the current calendar day in the site's
// timezone. Approval dates are compared as YYYY-MM-DD strings, so every
// caller must derive them from the same Clock.
package clock

import (
	"time"
)

// DateLayout is the date-only format used for approval days.
const DateLayout = "2006-01-02"

type Clock interface {
	Now() time.Time
	Today() string
	Location() *time.Location
}

// Zoned is the production clock bound to a single timezone.
type Zoned struct {
	loc *time.Location
}

func New(loc *time.Location) *Zoned {
	if loc == nil {
		loc = time.UTC
	}
	return &Zoned{loc: loc}
}

// NewFromName loads the IANA zone name, e.g. "Europe/Copenhagen".
func NewFromName(name string) (*Zoned, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	return New(loc), nil
}

func (c *Zoned) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *Zoned) Today() string {
	return DateOf(c.Now(), c.loc)
}

func (c *Zoned) Location() *time.Location {
	return c.loc
}

// Fixed always reports the same instant. Set moves it.
type Fixed struct {
	now time.Time
	loc *time.Location
}

func NewFixed(now time.Time, loc *time.Location) *Fixed {
	if loc == nil {
		loc = time.UTC
	}
	return &Fixed{now: now.In(loc), loc: loc}
}

func (c *Fixed) Now() time.Time {
	return c.now
}

func (c *Fixed) Today() string {
	return DateOf(c.now, c.loc)
}

func (c *Fixed) Location() *time.Location {
	return c.loc
}

func (c *Fixed) Set(now time.Time) {
	c.now = now.In(c.loc)
}

// DateOf formats t as a calendar day in loc.
func DateOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar day.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
