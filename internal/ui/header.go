package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/readshelf/internal/library"
)

// renderHeader renders the status bar with library counts and connectivity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("readshelf", styles.Logo)}

	snap := m.snapshot
	switch {
	case !snap.Loaded && snap.LastError == nil:
		parts = append(parts, bg.Render("Loading...", styles.WarningText.Bold(true)))
	case snap.IsOffline():
		parts = append(parts,
			bg.Render("● "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText))
	case snap.LastError != nil:
		parts = append(parts, bg.Render("● STALE", styles.WarningText))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if snap.Loaded {
		parts = append(parts, bg.Pair("Books:", fmt.Sprintf("%d", len(snap.Records)), styles.MutedText, styles.Text))
		if rated := library.RatedReads(snap.Records); len(rated) > 0 && !compact {
			parts = append(parts, bg.Pair("Rated:", fmt.Sprintf("%d", len(rated)), styles.MutedText, styles.Text))
		}
	}

	if n := len(m.updating); n > 0 {
		parts = append(parts, bg.Render(fmt.Sprintf("%s Saving %d", m.spinner.View(), n), styles.WarningText))
	}
	if m.reloading {
		parts = append(parts, bg.Render("Reloading", styles.InfoText))
	}

	if !snap.LastLoaded.IsZero() && !compact {
		parts = append(parts, bg.Pair("Updated", snap.LastLoaded.Format("15:04:05"), styles.FaintText, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	case strings.Contains(msg, "status 401"), strings.Contains(msg, "status 403"):
		return "UNAUTHORIZED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"s", "Shelves"},
			{"c", "Recs"},
			{"?", "More"},
		}
	case ViewRecommendations:
		commands = []cmd{
			{"enter", "Add"},
			{"j/k", "Navigate"},
			{"R", "Reload"},
			{"s", "Shelves"},
			{"l", "Logs"},
			{"?", "More"},
		}
	default:
		commands = []cmd{{"tab", "Shelf"}, {"j/k", "Navigate"}}
		if rec, ok := m.selectedRecord(); ok && !m.updating[rec.RecordID] {
			for _, target := range library.LegalTargets(rec.Status) {
				commands = append(commands, cmd{moveKey(target), target.Label()})
			}
			if rec.Status == library.StatusRead {
				commands = append(commands, cmd{"+/-", "Rate"})
			}
		}
		commands = append(commands, cmd{"c", "Recs"}, cmd{"l", "Logs"}, cmd{"R", "Reload"}, cmd{"?", "More"})
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderStatusLine renders the last action outcome.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	if m.status.text == "" {
		return bg.FillLine("", m.width)
	}
	style := styles.MutedText
	if m.status.isErr {
		style = styles.DangerText
	}
	return bg.FillLine(bg.Render(truncate(m.status.text, max(m.width-1, 1)), style), m.width)
}

// renderTitledBox draws a bordered box with the title centered in the top
// border. Content is padded or cut to fill height.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	paddedLines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
