// Package output renders tasks as chat text.
package output

import (
	"fmt"
	"strings"
	"time"

	"rtmbot/internal/service"
)

const (
	// NoTasks is the reply for a listing without results.
	NoTasks = "*no tasks*"

	isoDate = "2006-01-02"
	week    = 7 * 24 * time.Hour
)

// Zone is the user's timezone as a fixed offset from UTC.
// DST is informational only and never added to Offset.
type Zone struct {
	Name   string
	Offset time.Duration
	DST    bool
}

// GMT is used when the user's timezone name is unknown to the service.
var GMT = Zone{Name: "GMT"}

// ZoneFor looks up name in the service's timezone table.
// Unknown names fall back to GMT.
func ZoneFor(name string, table []service.Timezone) Zone {
	for _, tz := range table {
		if tz.Name == name {
			return Zone{
				Name:   tz.Name,
				Offset: time.Duration(tz.Offset) * time.Second,
				DST:    tz.DST,
			}
		}
	}
	return GMT
}

func (z *Zone) location() *time.Location {
	if z == nil {
		return time.UTC
	}
	return time.FixedZone(z.Name, int(z.Offset/time.Second))
}

// FormatTask renders one task series. zone may be nil, in which case
// times are shown in UTC with a GMT marker. now is the reference instant
// for relative date labels.
func FormatTask(s service.TaskSeries, zone *Zone, now time.Time) string {
	var parts []string

	if s.Task.IsCompleted() {
		parts = append(parts, "[+]")
	}
	if s.Task.IsDeleted() {
		parts = append(parts, "[x]")
	}

	parts = append(parts, s.Name)

	if s.URL != "" {
		parts = append(parts, "["+s.URL+"]")
	}

	for _, tag := range s.Tags {
		parts = append(parts, "#"+tag)
	}

	if s.Task.Due != "" {
		parts = append(parts, formatDue(s.Task, zone, now))
	}

	if s.Task.Estimate != "" {
		parts = append(parts, "="+s.Task.Estimate)
	}

	if s.Recurrence != nil {
		parts = append(parts, "*"+ParseRecurrence(*s.Recurrence).String())
	}

	if p := s.Task.Priority; p != "" && p != service.PriorityNone {
		parts = append(parts, "!"+p)
	}

	if len(s.Notes) > 0 {
		notes := make([]string, len(s.Notes))
		for i, n := range s.Notes {
			notes[i] = formatNote(n)
		}
		parts = append(parts, "\n\n"+strings.Join(notes, "\n\n"))
	}

	return strings.Join(parts, " ")
}

// FormatList renders series as a numbered list, one blank line after
// each entry.
func FormatList(series []service.TaskSeries, zone *Zone, now time.Time) string {
	var b strings.Builder
	for i, s := range series {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, FormatTask(s, zone, now))
	}
	return b.String()
}

func formatNote(n service.Note) string {
	if n.Title != "" {
		return n.Title + "\n" + n.Text
	}
	return n.Text
}

// formatDue builds the "^<label>[ HH:MM]" token.
func formatDue(task service.Task, zone *Zone, now time.Time) string {
	due, err := time.Parse(time.RFC3339, task.Due)
	if err != nil {
		return "^" + task.Due
	}

	loc := zone.location()
	local := due.In(loc)
	today := now.In(loc)
	ahead := due.Sub(now)

	var label string
	date := local.Format(isoDate)
	switch {
	case date == today.Format(isoDate):
		label = "today"
	case ahead > 0 && ahead < week:
		label = local.Weekday().String()
	case local.Year() == today.Year():
		label = local.Format("January 02")
	default:
		// Dates in another year keep the ISO form.
		label = date
	}

	if !task.HasDueTime {
		return "^" + label
	}

	clock := local.Format("15:04")
	if zone == nil {
		clock += " GMT"
	}
	return "^" + label + " " + clock
}
