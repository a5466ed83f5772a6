// Package monitor implements the live sync dashboard TUI.
package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/tracker"
)

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// TickMsg triggers a connectivity probe and data refresh
type TickMsg time.Time

// RefreshMsg carries refreshed cache state
type RefreshMsg struct {
	Online    bool
	Pending   int
	Tasks     []models.Task
	Progress  models.UserProgress
	LastSync  time.Time
	Timestamp time.Time
}

// ReconnectMsg signals the connection came back after being down
type ReconnectMsg struct{}

// SyncDoneMsg carries the result of a reconnect-triggered sync
type SyncDoneMsg struct {
	Synced  int
	Failed  int
	Blocked bool // another sync was already running
}

// Model is the Bubble Tea model for the sync dashboard
type Model struct {
	Tracker *tracker.Tracker

	Width  int
	Height int

	Online   bool
	Pending  int
	Tasks    []models.Task
	Progress models.UserProgress
	LastSync time.Time

	Syncing     bool
	LastResult  *SyncDoneMsg
	LastRefresh time.Time
	ShowHelp    bool

	Spinner         spinner.Model
	RefreshInterval time.Duration

	reconnects <-chan struct{}
}

// NewModel creates a dashboard model. reconnects receives a signal each
// time the connectivity monitor sees an offline-to-online edge.
func NewModel(tr *tracker.Tracker, reconnects <-chan struct{}, interval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		Tracker:         tr,
		Spinner:         sp,
		RefreshInterval: interval,
		reconnects:      reconnects,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.scheduleTick(),
		m.waitForReconnect(),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		// Probing runs outside the TUI; the tick just re-reads state.
		return m, tea.Batch(m.refresh(), m.scheduleTick())

	case RefreshMsg:
		m.Online = msg.Online
		m.Pending = msg.Pending
		m.Tasks = msg.Tasks
		m.Progress = msg.Progress
		m.LastSync = msg.LastSync
		m.LastRefresh = msg.Timestamp
		return m, nil

	case ReconnectMsg:
		// A reconnect only warrants a sync when there is queued work to
		// push; an empty queue just refreshes the connection indicator.
		if m.Tracker.PendingCount() == 0 {
			return m, tea.Batch(m.refresh(), m.waitForReconnect())
		}
		m.Syncing = true
		return m, tea.Batch(m.runSync(), m.waitForReconnect(), m.Spinner.Tick)

	case SyncDoneMsg:
		m.Syncing = false
		m.LastResult = &msg
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.Syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "s":
		if m.Syncing || !m.Online {
			return m, nil
		}
		m.Syncing = true
		return m, tea.Batch(m.runSync(), m.Spinner.Tick)

	case "r":
		return m, m.probe()

	case "?":
		m.ShowHelp = !m.ShowHelp
		return m, nil
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// probe checks the server and refreshes cache state. Flipping the
// connectivity monitor may fire the reconnect callback.
func (m Model) probe() tea.Cmd {
	return func() tea.Msg {
		m.Tracker.Probe()
		return m.snapshot()
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return m.snapshot()
	}
}

func (m Model) snapshot() RefreshMsg {
	return RefreshMsg{
		Online:    m.Tracker.Online(),
		Pending:   m.Tracker.PendingCount(),
		Tasks:     m.Tracker.CachedTasks(),
		Progress:  m.Tracker.CachedProgress(),
		LastSync:  m.Tracker.LastSync(),
		Timestamp: time.Now(),
	}
}

func (m Model) runSync() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.Tracker.FullSync()
		if err != nil {
			return SyncDoneMsg{Blocked: true}
		}
		return SyncDoneMsg{Synced: summary.Synced, Failed: summary.Failed}
	}
}

func (m Model) waitForReconnect() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.reconnects; !ok {
			return nil
		}
		return ReconnectMsg{}
	}
}
