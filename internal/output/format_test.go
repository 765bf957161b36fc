package output

import (
	"testing"
	"time"

	"rtmbot/internal/service"
)

// 2026-03-10 is a Tuesday.
var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func series(name string) service.TaskSeries {
	return service.TaskSeries{
		ID:     "s1",
		ListID: "l1",
		Name:   name,
		Task:   service.Task{ID: "t1", Priority: service.PriorityNone},
	}
}

func TestFormatTask_NameOnly(t *testing.T) {
	got := FormatTask(series("Buy milk"), nil, now)
	if got != "Buy milk" {
		t.Errorf("expected %q, got %q", "Buy milk", got)
	}
}

func TestFormatTask_AllSegments(t *testing.T) {
	s := series("Buy milk")
	s.URL = "http://example.com"
	s.Tags = []string{"shop", "food"}
	s.Task.Due = "2026-03-10T15:00:00Z"
	s.Task.HasDueTime = true
	s.Task.Estimate = "1 hour"
	s.Task.Priority = "1"
	s.Task.Completed = "2026-03-10T10:00:00Z"
	s.Recurrence = &service.Recurrence{Every: true, Rule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=1MO"}
	s.Notes = []service.Note{
		{Title: "Title", Text: "body"},
		{Text: "untitled"},
	}

	expected := "[+] Buy milk [http://example.com] #shop #food ^today 15:00 GMT =1 hour " +
		"*every 2 weeks on the 1st Monday !1 \n\nTitle\nbody\n\nuntitled"
	got := FormatTask(s, nil, now)
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestFormatTask_DeletedMarker(t *testing.T) {
	s := series("Old")
	s.Task.Deleted = "2026-03-01T00:00:00Z"
	if got := FormatTask(s, nil, now); got != "[x] Old" {
		t.Errorf("expected %q, got %q", "[x] Old", got)
	}
}

func TestFormatTask_IsIdempotent(t *testing.T) {
	s := series("Pay rent")
	s.Task.Due = "2026-04-01T08:00:00Z"
	s.Task.HasDueTime = true
	zone := &Zone{Name: "Europe/Berlin", Offset: time.Hour}

	first := FormatTask(s, zone, now)
	second := FormatTask(s, zone, now)
	if first != second {
		t.Errorf("expected identical renders, got %q and %q", first, second)
	}
}

func TestFormatDue_Labels(t *testing.T) {
	berlin := &Zone{Name: "Europe/Berlin", Offset: time.Hour}
	newYork := &Zone{Name: "America/New_York", Offset: -5 * time.Hour}

	tests := []struct {
		name    string
		due     string
		hasTime bool
		zone    *Zone
		now     time.Time
		want    string
	}{
		{"today utc with time", "2026-03-10T15:00:00Z", true, nil, now, "^today 15:00 GMT"},
		{"today without time", "2026-03-10T00:00:00Z", false, nil, now, "^today"},
		{"within a week", "2026-03-12T00:00:00Z", false, nil, now, "^Thursday"},
		{"later this year", "2026-05-01T00:00:00Z", false, nil, now, "^May 01"},
		{"earlier this year", "2026-01-05T00:00:00Z", false, nil, now, "^January 05"},
		{"next year stays iso", "2027-01-15T00:00:00Z", false, nil, now, "^2027-01-15"},
		{"overdue last week", "2026-03-05T00:00:00Z", false, nil, now, "^March 05"},
		{"zone shifts to tomorrow", "2026-03-10T23:30:00Z", true, berlin, now, "^Wednesday 00:30"},
		{"zone keeps today", "2026-03-10T22:30:00Z", true, berlin, now, "^today 23:30"},
		{
			"negative offset today",
			"2026-03-10T01:00:00Z", true, newYork,
			time.Date(2026, time.March, 10, 3, 0, 0, 0, time.UTC),
			"^today 20:00",
		},
		{"unparseable due", "soon", false, nil, now, "^soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := service.Task{Due: tt.due, HasDueTime: tt.hasTime}
			got := formatDue(task, tt.zone, tt.now)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatList(t *testing.T) {
	a := series("First")
	b := series("Second")
	b.Task.Priority = "2"

	expected := "1. First\n\n2. Second !2\n\n"
	got := FormatList([]service.TaskSeries{a, b}, nil, now)
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestZoneFor(t *testing.T) {
	table := []service.Timezone{
		{ID: "1", Name: "Europe/Berlin", Offset: 3600, DST: true},
		{ID: "2", Name: "Asia/Tokyo", Offset: 32400},
	}

	z := ZoneFor("Asia/Tokyo", table)
	if z.Offset != 9*time.Hour {
		t.Errorf("expected 9h offset, got %v", z.Offset)
	}

	z = ZoneFor("Mars/Olympus", table)
	if z != GMT {
		t.Errorf("expected GMT fallback, got %+v", z)
	}
}
