package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/readshelf/internal/logtail"
)

// initLogViewport initializes the log viewport.
func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-2, 1), max(m.contentHeight()-2, 1))
	m.logViewport.Style = lipgloss.NewStyle()
}

// updateLogViewport resizes the viewport and re-renders its content.
func (m *Model) updateLogViewport() {
	m.logViewport.Width = max(m.width-2, 1)
	m.logViewport.Height = max(m.contentHeight()-2, 1)
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.follow {
		m.logViewport.GotoBottom()
	}
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.logViewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	if !m.logViewport.AtBottom() {
		m.follow = false
	}
	return m, cmd
}

// readLogsCmd tails the log file in the background.
func (m Model) readLogsCmd() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, LogTailLines)
		return logEntriesMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogEntries(msg logEntriesMsg) {
	if msg.err != nil {
		m.setStatus("Could not read log: "+msg.err.Error(), true)
		return
	}
	m.logEntries = msg.entries
	m.updateLogViewport()
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Log"
	if m.logPath != "" {
		title = "Log " + truncateMiddle(m.logPath, max(m.width/2, 10))
	}
	return m.renderTitledBox(title, m.logViewport.View(), m.width, m.contentHeight(), true)
}

// renderLogContent renders the decoded log lines.
func (m Model) renderLogContent() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	width := m.logViewport.Width

	if m.logPath == "" {
		return bg.FillLine(bg.Render("Logging is disabled", styles.MutedText), width)
	}
	if len(m.logEntries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	var b strings.Builder
	for i, e := range m.logEntries {
		b.WriteString(bg.FillLine(m.formatLogLine(e, styles, bg), width))
		if i < len(m.logEntries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatLogLine renders "15:04:05 LEVEL [logger] message key=value".
func (m Model) formatLogLine(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Level == "" {
		return bg.Render(e.Message, styles.Text)
	}
	parts := make([]string, 0, 5)
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	parts = append(parts, bg.Render(fmt.Sprintf("%-5s", e.Level), levelStyle(e.Level, styles)))
	if e.Logger != "" {
		parts = append(parts, bg.Render("["+e.Logger+"]", styles.AccentText))
	}
	parts = append(parts, bg.Render(e.Message, styles.Text))
	if fields := e.FieldString(); fields != "" {
		parts = append(parts, bg.Render(fields, styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.SuccessText
	}
}
