package models

import (
	"testing"

	"github.com/hazel/sprout/internal/ident"
)

func TestRecurrenceValid(t *testing.T) {
	for _, r := range []Recurrence{RecurrenceNone, RecurrenceDaily, RecurrenceWeekly} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []Recurrence{"", "monthly", "Daily"} {
		if r.Valid() {
			t.Errorf("%q should be invalid", r)
		}
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestTaskUpdateApply(t *testing.T) {
	task := Task{
		ID:              ident.Remote("t1"),
		Title:           "Water plants",
		Description:     "The ones on the windowsill",
		DurationMinutes: 10,
		Recurring:       RecurrenceDaily,
	}

	update := TaskUpdate{
		Title:           strPtr("Water all plants"),
		DurationMinutes: intPtr(15),
	}
	update.Apply(&task)

	if task.Title != "Water all plants" {
		t.Errorf("title: got %q", task.Title)
	}
	if task.DurationMinutes != 15 {
		t.Errorf("duration: got %d", task.DurationMinutes)
	}
	// Unset fields stay put
	if task.Description != "The ones on the windowsill" {
		t.Errorf("description changed: %q", task.Description)
	}
	if task.Recurring != RecurrenceDaily {
		t.Errorf("recurring changed: %q", task.Recurring)
	}
}

func TestTaskUpdateApplyEmpty(t *testing.T) {
	task := Task{ID: ident.Remote("t1"), Title: "Read"}
	before := task
	TaskUpdate{}.Apply(&task)
	if task != before {
		t.Errorf("empty update changed task: %+v", task)
	}
}

func TestDefaultProgress(t *testing.T) {
	p := DefaultProgress()
	if p.TotalPoints != 0 || p.CompletedTasks != 0 {
		t.Errorf("default progress not zero: %+v", p)
	}
	if p.UnlockedStickers == nil {
		t.Error("stickers should be an empty slice, not nil")
	}
}
