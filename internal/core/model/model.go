package model

import (
	"fmt"
	"strings"
	"time"
)

// ClockDirection defines which attendance action a run performs.
type ClockDirection string

const (
	ClockIn  ClockDirection = "in"
	ClockOut ClockDirection = "out"
)

// ParseClockDirection validates the raw option value once at the boundary.
func ParseClockDirection(s string) (ClockDirection, error) {
	switch d := ClockDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case ClockIn, ClockOut:
		return d, nil
	default:
		return "", fmt.Errorf("clock direction must be either: in, out (got %q)", s)
	}
}

// RunContext is created once per invocation and never mutated afterwards.
type RunContext struct {
	Now      time.Time
	Today    string
	URL      string
	Location *time.Location
}

// NewRunContext pins the current time to the configured zone and formats today's date.
func NewRunContext(now time.Time, loc *time.Location, dateFormat, url string) RunContext {
	local := now.In(loc)
	return RunContext{
		Now:      local,
		Today:    local.Format(dateFormat),
		URL:      url,
		Location: loc,
	}
}

// ISODate returns today's date as YYYY-MM-DD in the configured zone.
func (rc RunContext) ISODate() string {
	return rc.Now.Format(time.DateOnly)
}

// AttendanceRecord is today's row as rendered on the timesheet. Empty fields are not set.
type AttendanceRecord struct {
	Date     string `json:"date"`
	CSSClass string `json:"cssClass"`
	DayType  string `json:"dayType"`
	ClockIn  string `json:"clockIn"`
	ClockOut string `json:"clockOut"`
}

// Found reports whether the row was matched against today's date.
func (r AttendanceRecord) Found() bool {
	return strings.TrimSpace(r.Date) != ""
}

// HasClockIn reports whether a clock-in time is on record.
func (r AttendanceRecord) HasClockIn() bool {
	return strings.TrimSpace(r.ClockIn) != ""
}

// HasClockOut reports whether a clock-out time is on record.
func (r AttendanceRecord) HasClockOut() bool {
	return strings.TrimSpace(r.ClockOut) != ""
}
