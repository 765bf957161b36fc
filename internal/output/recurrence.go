package output

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rtmbot/internal/service"
)

// RecurrenceRule is the structured form of a repeat rule.
type RecurrenceRule struct {
	Every      bool
	Interval   int
	Frequency  string // day, week, month, year
	ByDay      *WeekdayOrdinal
	ByMonthDay int
}

// WeekdayOrdinal is a BYDAY part such as "2TU" (second Tuesday).
type WeekdayOrdinal struct {
	Ordinal int
	Weekday string // two-letter code
}

var (
	byDayPattern = regexp.MustCompile(`^(\d+)(MO|TU|WE|TH|FR|SA|SU)$`)

	frequencyUnits = []struct{ from, to string }{
		{"monthly", "month"},
		{"daily", "day"},
		{"yearly", "year"},
		{"weekly", "week"},
	}

	weekdayNames = map[string]string{
		"MO": "Monday",
		"TU": "Tuesday",
		"WE": "Wednesday",
		"TH": "Thursday",
		"FR": "Friday",
		"SA": "Saturday",
		"SU": "Sunday",
	}
)

// ParseRecurrence parses a "KEY=VALUE;KEY=VALUE" rule. Parts it does not
// understand are dropped.
func ParseRecurrence(r service.Recurrence) RecurrenceRule {
	rule := RecurrenceRule{Every: r.Every, Interval: 1}

	for _, pair := range strings.Split(r.Rule, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			freq := strings.ToLower(value)
			for _, u := range frequencyUnits {
				freq = strings.ReplaceAll(freq, u.from, u.to)
			}
			rule.Frequency = freq
		case "INTERVAL":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				rule.Interval = n
			}
		case "BYDAY":
			if m := byDayPattern.FindStringSubmatch(strings.ToUpper(value)); m != nil {
				n, _ := strconv.Atoi(m[1])
				rule.ByDay = &WeekdayOrdinal{Ordinal: n, Weekday: m[2]}
			}
		case "BYMONTHDAY":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				rule.ByMonthDay = n
			}
		}
	}

	return rule
}

// String renders the rule as prose, e.g. "every 2 weeks on the 1st Monday".
func (r RecurrenceRule) String() string {
	prefix := "after"
	if r.Every {
		prefix = "every"
	}

	unit := r.Frequency
	if r.Interval > 1 {
		unit += "s"
	}

	s := fmt.Sprintf("%s %d %s", prefix, r.Interval, unit)

	if r.ByDay != nil {
		s += " on the " + Ordinal(r.ByDay.Ordinal) + " " + weekdayNames[r.ByDay.Weekday]
	}
	if r.ByMonthDay > 0 {
		s += " on the " + Ordinal(r.ByMonthDay)
	}

	return s
}

// Ordinal appends an English ordinal suffix chosen by the last digit only,
// so 11 becomes "11st" and 12 becomes "12nd".
func Ordinal(n int) string {
	s := strconv.Itoa(n)
	switch s[len(s)-1] {
	case '1':
		return s + "st"
	case '2':
		return s + "nd"
	case '3':
		return s + "rd"
	default:
		return s + "th"
	}
}
