package models

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format accepted by session and roster filters.
const DateLayout = "2006-01-02"

// AttendanceStats summarises attendance over a set of sessions.
type AttendanceStats struct {
	Total      int     `json:"total"`
	Attended   int     `json:"attended"`
	Missed     int     `json:"missed"`
	Percentage float64 `json:"percentage"`
}

// Compute derives missed and a one-decimal percentage. attended is clamped to
// [0, total] and the percentage is 0 when there are no sessions.
func Compute(attended, total int) AttendanceStats {
	if total < 0 {
		total = 0
	}
	if attended < 0 {
		attended = 0
	}
	if attended > total {
		attended = total
	}
	stats := AttendanceStats{Total: total, Attended: attended, Missed: total - attended}
	if total > 0 {
		stats.Percentage = math.Round(float64(attended)/float64(total)*1000) / 10
	}
	return stats
}

// SessionWindow restricts the session universe. From is inclusive, To exclusive.
// An empty ClassID means every class.
type SessionWindow struct {
	ClassID string
	From    *time.Time
	To      *time.Time
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// DayWindow covers [00:00 of date, 00:00 of the next day) in loc.
func DayWindow(classID string, date time.Time, loc *time.Location) SessionWindow {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := date.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	return SessionWindow{ClassID: classID, From: &from, To: &to}
}

// Contains reports whether ts falls inside the window's time bounds.
func (w SessionWindow) Contains(ts time.Time) bool {
	if w.From != nil && ts.Before(*w.From) {
		return false
	}
	if w.To != nil && !ts.Before(*w.To) {
		return false
	}
	return true
}

// StudentAttendanceCount is a roster row as read from storage.
type StudentAttendanceCount struct {
	StudentID string  `db:"student_id"`
	Name      string  `db:"name"`
	RollNo    *string `db:"rollno"`
	ClassID   *string `db:"class_id"`
	Attended  int     `db:"attended"`
	Total     int     `db:"total"`
}
