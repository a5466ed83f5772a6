package models

import (
	"github.com/hazel/sprout/internal/ident"
)

// Recurrence represents how often a task repeats
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Valid reports whether r is a known recurrence mode.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

// Task is a single to-do item. IDs are server-issued once the task is
// acknowledged remotely; tasks created offline carry a local ID until the
// sync engine remaps them.
type Task struct {
	ID              ident.TaskID `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	ScheduledTime   string       `json:"scheduledTime,omitempty"`   // "HH:MM", empty = unscheduled
	DurationMinutes int          `json:"durationMinutes,omitempty"` // 0 = no duration
	Completed       bool         `json:"completed"`
	CompletedAt     string       `json:"completedAt,omitempty"` // RFC3339, set iff Completed
	StickerID       string       `json:"stickerId,omitempty"`
	CreatedAt       string       `json:"createdAt"` // "YYYY-MM-DD"
	Recurring       Recurrence   `json:"recurring"`
}

// InsertTask carries the user-supplied fields for task creation.
type InsertTask struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ScheduledTime   string     `json:"scheduledTime,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`
	StickerID       string     `json:"stickerId,omitempty"`
	ScheduledDate   string     `json:"scheduledDate,omitempty"`
	Recurring       Recurrence `json:"recurring,omitempty"`
}

// TaskUpdate holds optional field updates for a task. Nil fields are untouched.
type TaskUpdate struct {
	Title           *string     `json:"title,omitempty"`
	Description     *string     `json:"description,omitempty"`
	ScheduledTime   *string     `json:"scheduledTime,omitempty"`
	DurationMinutes *int        `json:"durationMinutes,omitempty"`
	StickerID       *string     `json:"stickerId,omitempty"`
	Recurring       *Recurrence `json:"recurring,omitempty"`
}

// Apply copies the set fields of u onto t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.ScheduledTime != nil {
		t.ScheduledTime = *u.ScheduledTime
	}
	if u.DurationMinutes != nil {
		t.DurationMinutes = *u.DurationMinutes
	}
	if u.StickerID != nil {
		t.StickerID = *u.StickerID
	}
	if u.Recurring != nil {
		t.Recurring = *u.Recurring
	}
}

// UserProgress is the per-user aggregate: points, counts, and unlocked
// sticker rewards. Counts only increase under normal operation; the whole
// value is replaced wholesale when server state is fetched.
type UserProgress struct {
	TotalPoints            int      `json:"totalPoints"`
	CompletedTasks         int      `json:"completedTasks"`
	CurrentStreak          int      `json:"currentStreak"`
	UnlockedStickers       []string `json:"unlockedStickers"`
	TimerSessionsCompleted int      `json:"timerSessionsCompleted"`
}

// DefaultProgress returns the zero-progress snapshot used when no cached
// value exists yet.
func DefaultProgress() UserProgress {
	return UserProgress{UnlockedStickers: []string{}}
}

// TimerSession is one completed focus-timer run.
type TimerSession struct {
	ID              string `json:"id"`
	DurationMinutes int    `json:"durationMinutes"`
	StartedAt       string `json:"startedAt"`
	CompletedAt     string `json:"completedAt,omitempty"`
	TaskID          string `json:"taskId,omitempty"`
}

// InsertTimerSession carries the fields for reporting a finished timer run.
type InsertTimerSession struct {
	DurationMinutes int    `json:"durationMinutes"`
	TaskID          string `json:"taskId,omitempty"`
}
