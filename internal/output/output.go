// Package output provides styled terminal output helpers (success, error,
// warning, task formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hazel/sprout/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	localStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pointsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// TaskBadge returns a completion indicator with symbol,
// e.g. "✓ done", "○ todo", with an extra marker for unsynced tasks.
func TaskBadge(task *models.Task) string {
	if task.Completed {
		return doneStyle.Render("✓ done")
	}
	badge := pendingStyle.Render("○ todo")
	if task.ID.IsLocal() {
		badge += " " + localStyle.Render("(unsynced)")
	}
	return badge
}

// FormatTaskShort formats a task on a single line.
func FormatTaskShort(task *models.Task) string {
	var parts []string
	parts = append(parts, TaskBadge(task))
	parts = append(parts, titleStyle.Render(task.Title))
	if task.ScheduledTime != "" {
		parts = append(parts, subtleStyle.Render(task.ScheduledTime))
	}
	if task.DurationMinutes > 0 {
		parts = append(parts, subtleStyle.Render(fmt.Sprintf("%dm", task.DurationMinutes)))
	}
	if task.Recurring != models.RecurrenceNone {
		parts = append(parts, subtleStyle.Render(string(task.Recurring)))
	}
	return strings.Join(parts, "  ")
}

// FormatTaskLong formats a task across multiple lines (without the
// description, which callers render as markdown separately).
func FormatTaskLong(task *models.Task) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(task.Title))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", TaskBadge(task)))
	sb.WriteString(fmt.Sprintf("ID: %s\n", task.ID))
	if task.ScheduledTime != "" {
		sb.WriteString(fmt.Sprintf("Scheduled: %s\n", task.ScheduledTime))
	}
	if task.DurationMinutes > 0 {
		sb.WriteString(fmt.Sprintf("Duration: %dm\n", task.DurationMinutes))
	}
	if task.Recurring != models.RecurrenceNone {
		sb.WriteString(fmt.Sprintf("Repeats: %s\n", task.Recurring))
	}
	if task.Completed && task.CompletedAt != "" {
		sb.WriteString(fmt.Sprintf("Completed: %s\n", task.CompletedAt))
	}
	return sb.String()
}

// FormatProgress formats user progress for display.
func FormatProgress(p *models.UserProgress) string {
	var sb strings.Builder
	sb.WriteString(pointsStyle.Render(fmt.Sprintf("%d points", p.TotalPoints)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Tasks completed: %d\n", p.CompletedTasks))
	sb.WriteString(fmt.Sprintf("Current streak: %d\n", p.CurrentStreak))
	sb.WriteString(fmt.Sprintf("Timer sessions: %d\n", p.TimerSessionsCompleted))
	if len(p.UnlockedStickers) > 0 {
		sb.WriteString(fmt.Sprintf("Stickers: %s\n", strings.Join(p.UnlockedStickers, ", ")))
	}
	return sb.String()
}

// FormatSyncStatus formats the offline/sync state line shown by status.
func FormatSyncStatus(online bool, pending int, lastSync time.Time) string {
	var parts []string
	if online {
		parts = append(parts, successStyle.Render("● online"))
	} else {
		parts = append(parts, warningStyle.Render("● offline"))
	}
	if pending > 0 {
		parts = append(parts, warningStyle.Render(fmt.Sprintf("%d pending", pending)))
	} else {
		parts = append(parts, subtleStyle.Render("up to date"))
	}
	if lastSync.IsZero() {
		parts = append(parts, subtleStyle.Render("never synced"))
	} else {
		parts = append(parts, subtleStyle.Render("synced "+FormatTimeAgo(lastSync)))
	}
	return strings.Join(parts, "  ")
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output,
// e.g. "\nTODAY:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
