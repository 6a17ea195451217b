package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MatchTolerance is how far "now" may drift from the configured check-in
// time and still count as the same window.
const MatchTolerance = 10

// China is the portal's civil time zone (UTC+8, no DST).
var China = time.FixedZone("UTC+8", 8*60*60)

var (
	allowedHours   = []int{16, 17, 18, 19}
	allowedMinutes = []int{0, 30}
)

// CheckinTime is a validated daily check-in time. The zero value is not valid;
// obtain one from NewCheckinTime or ParseCheckinTime.
type CheckinTime struct {
	hour, minute int
}

func (c CheckinTime) Hour() int   { return c.hour }
func (c CheckinTime) Minute() int { return c.minute }

func (c CheckinTime) String() string {
	return FormatMinutes(c.hour*60 + c.minute)
}

// NewCheckinTime validates hour and minute against the allowed slots.
func NewCheckinTime(hour, minute int) (CheckinTime, error) {
	if !contains(allowedHours, hour) || !contains(allowedMinutes, minute) {
		return CheckinTime{}, &Error{
			Kind:   KindInvalidScheduleTime,
			Reason: fmt.Sprintf("%02d:%02d is not one of %s", hour, minute, AllowedSlots()),
		}
	}
	return CheckinTime{hour: hour, minute: minute}, nil
}

// ParseCheckinTime parses "HH:MM" and validates it.
func ParseCheckinTime(s string) (CheckinTime, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return CheckinTime{}, &Error{Kind: KindInvalidScheduleTime, Reason: fmt.Sprintf("expected HH:MM, got %q", s)}
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return CheckinTime{}, &Error{Kind: KindInvalidScheduleTime, Reason: "invalid hour " + strconv.Quote(hh)}
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return CheckinTime{}, &Error{Kind: KindInvalidScheduleTime, Reason: "invalid minute " + strconv.Quote(mm)}
	}
	return NewCheckinTime(h, m)
}

// AllowedSlots lists every accepted check-in time, e.g. "16:00, 16:30, ...".
func AllowedSlots() string {
	var slots []string
	for _, h := range allowedHours {
		for _, m := range allowedMinutes {
			slots = append(slots, FormatMinutes(h*60+m))
		}
	}
	return strings.Join(slots, ", ")
}

// MinutesOfDay returns minutes since midnight of t in UTC+8.
func MinutesOfDay(t time.Time) int {
	lt := t.In(China)
	return lt.Hour()*60 + lt.Minute()
}

// InWindow reports whether nowM (minutes since midnight, UTC+8) falls within
// MatchTolerance minutes of the record's check-in time, inclusive.
func InWindow(r UserRecord, nowM int) bool {
	expected := r.CheckinHour*60 + r.CheckinMinute
	diff := expected - nowM
	if diff < 0 {
		diff = -diff
	}
	return diff <= MatchTolerance
}

// WindowKey names the record's check-in window on the UTC+8 day of now,
// e.g. "2025-05-06 17:30".
func WindowKey(r UserRecord, now time.Time) string {
	return now.In(China).Format(time.DateOnly) + " " + FormatMinutes(r.CheckinHour*60+r.CheckinMinute)
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
