package commands

import (
	"testing"

	"rtmbot/internal/service"
)

func TestSplitTags(t *testing.T) {
	lists := []service.TaskList{
		{ID: "1", Name: "Inbox"},
		{ID: "2", Name: "Shopping"},
		{ID: "3", Name: "Work"},
		{ID: "4", Name: "Today", Smart: true},
	}

	tests := []struct {
		name     string
		current  string
		text     string
		wantMove string
		wantTags string
	}{
		{"plain tags", "1", "home, urgent", "", "home,urgent"},
		{"whitespace separated", "1", "a b\tc", "", "a,b,c"},
		{"lowercased", "1", "Home", "", "home"},
		{"list name moves", "1", "shopping", "2", ""},
		{"last list wins", "1", "work shopping", "2", ""},
		{"current list ignored", "2", "shopping x", "", "x"},
		{"smart list is a tag", "1", "today", "", "today"},
		{"mixed", "1", "WORK, later", "3", "later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			move, tags := splitTags(tt.current, tt.text, lists)
			if move != tt.wantMove {
				t.Errorf("move: expected %q, got %q", tt.wantMove, move)
			}
			if tags != tt.wantTags {
				t.Errorf("tags: expected %q, got %q", tt.wantTags, tags)
			}
		})
	}
}
