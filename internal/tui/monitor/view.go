package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/hazel/sprout/internal/output"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func (m Model) renderView() string {
	if m.Width > 0 && m.Width < MinWidth {
		return "Terminal too narrow for the dashboard.\n"
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("sprout sync monitor"))
	sb.WriteString("  ")
	sb.WriteString(m.renderConnection())
	sb.WriteString("\n\n")

	sb.WriteString(panelStyle.Render(m.renderTasks()))
	sb.WriteString("\n")
	sb.WriteString(panelStyle.Render(m.renderSync()))
	sb.WriteString("\n")

	if m.ShowHelp {
		sb.WriteString(dimStyle.Render("s sync now   r probe   ? help   q quit"))
	} else {
		sb.WriteString(dimStyle.Render("? for help"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderConnection() string {
	if m.Syncing {
		return m.Spinner.View() + " syncing"
	}
	if m.Online {
		return onlineStyle.Render("● online")
	}
	return offlineStyle.Render("● offline")
}

func (m Model) renderTasks() string {
	width := m.Width - 6
	if width < 20 {
		width = 20
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tasks (%d)\n", len(m.Tasks)))
	if len(m.Tasks) == 0 {
		sb.WriteString(dimStyle.Render("nothing cached yet"))
		return sb.String()
	}

	shown := m.Tasks
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for i := range shown {
		line := output.FormatTaskShort(&shown[i])
		sb.WriteString(ansi.Truncate(line, width, "…"))
		if i < len(shown)-1 {
			sb.WriteString("\n")
		}
	}
	if len(m.Tasks) > len(shown) {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(fmt.Sprintf("… and %d more", len(m.Tasks)-len(shown))))
	}
	return sb.String()
}

func (m Model) renderSync() string {
	var sb strings.Builder
	sb.WriteString(output.FormatSyncStatus(m.Online, m.Pending, m.LastSync))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%d points  ·  %d tasks done  ·  streak %d",
		m.Progress.TotalPoints, m.Progress.CompletedTasks, m.Progress.CurrentStreak))

	if m.LastResult != nil {
		sb.WriteString("\n")
		switch {
		case m.LastResult.Blocked:
			sb.WriteString(dimStyle.Render("sync skipped: already running"))
		case m.LastResult.Failed > 0:
			sb.WriteString(failStyle.Render(fmt.Sprintf("last sync: %d ok, %d failed",
				m.LastResult.Synced, m.LastResult.Failed)))
		default:
			sb.WriteString(onlineStyle.Render(fmt.Sprintf("last sync: %d change(s) pushed",
				m.LastResult.Synced)))
		}
	}
	return sb.String()
}
