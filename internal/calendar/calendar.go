package calendar

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the wire form of a slot date.
const DateLayout = "2006-01-02"

// WeekDays is the length of every schedule and leaderboard window.
const WeekDays = 7

const (
	gridStart = 8 * 60
	gridEnd   = 20*60 + 30
	gridStep  = 30
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{4}$`)
)

// IsDate reports whether s has the YYYY-MM-DD shape and names a real calendar day.
func IsDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsTime reports whether s has the four digit HHMM shape.
func IsTime(s string) bool {
	return timePattern.MatchString(s)
}

// ParseDate parses a naive calendar date. The result is midnight UTC so that
// day arithmetic never crosses a DST boundary.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("calendar: %q is not YYYY-MM-DD", s)
	}
	return time.Parse(DateLayout, s)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// Week returns the seven consecutive dates beginning at start.
func Week(start string) ([]string, error) {
	d, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	days := make([]string, WeekDays)
	for i := range days {
		days[i] = d.AddDate(0, 0, i).Format(DateLayout)
	}
	return days, nil
}

// Window returns the half-open range [start, start+7 days) as date strings.
// Fixed-width dates compare correctly as strings.
func Window(start string) (from, until string, err error) {
	until, err = AddDays(start, WeekDays)
	if err != nil {
		return "", "", err
	}
	return start, until, nil
}

// Today formats the current local date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// Grid lists every bookable half-hour from 0800 to 2030.
func Grid() []string {
	times := make([]string, 0, (gridEnd-gridStart)/gridStep+1)
	for m := gridStart; m <= gridEnd; m += gridStep {
		times = append(times, fmt.Sprintf("%02d%02d", m/60, m%60))
	}
	return times
}

// OnGrid reports whether an HHMM time is one of the bookable half-hours.
func OnGrid(hhmm string) bool {
	for _, t := range Grid() {
		if t == hhmm {
			return true
		}
	}
	return false
}
