package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/readshelf/internal/library"
	"github.com/five82/readshelf/internal/recommend"
)

// handleRecsKey processes keyboard input for the recommendations view.
func (m Model) handleRecsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Add) {
		return m.addSelected()
	}
	m.recsRow = moveCursor(m.keys, msg, m.recsRow, len(m.recItems), m.contentHeight()-2)
	return m, nil
}

// addSelected adds the highlighted recommendation to the TO_READ shelf.
func (m Model) addSelected() (tea.Model, tea.Cmd) {
	if m.mutator == nil || m.recsRow < 0 || m.recsRow >= len(m.recItems) {
		return m, nil
	}
	item := m.recItems[m.recsRow]
	id := itemKey(item)
	if m.adding[id] {
		return m, nil
	}
	m.adding[id] = true
	m.setStatus(fmt.Sprintf("Adding %q...", item.Book.Title), false)
	return m, addCmd(m.ctx, m.mutator, item)
}

func (m Model) handleAddDone(msg addDoneMsg) (tea.Model, tea.Cmd) {
	delete(m.adding, msg.identity)
	switch {
	case msg.err != nil:
		m.setStatus(errorMessage(msg.err), true)
	case msg.result.Duplicate:
		m.setStatus(m.duplicateMessage(msg), false)
	default:
		m.setStatus(fmt.Sprintf("Added %q to %s.", msg.title, msg.result.Record.Status.Label()), false)
	}
	return m, m.snapshotCmd()
}

// duplicateMessage names the shelf the book is already on when it is known.
func (m Model) duplicateMessage(msg addDoneMsg) string {
	if m.store != nil {
		if rec, ok := m.store.FindByIdentity(msg.work); ok {
			return fmt.Sprintf("%q is already on your %s shelf.", msg.title, rec.Status.Label())
		}
	}
	return fmt.Sprintf("%q is already in your library.", msg.title)
}

// addCmd runs the add in the background. Like commits, it outlives the UI
// context so the library never keeps a half-finished add.
func addCmd(ctx context.Context, mutator *library.Mutator, item recommend.Item) tea.Cmd {
	return func() tea.Msg {
		draft := library.Draft{BookID: item.BookID, Book: item.Book}
		res, err := mutator.Add(context.WithoutCancel(ctx), draft)
		return addDoneMsg{
			title:    item.Book.Title,
			identity: itemKey(item),
			work:     item.Identity(),
			result:   res,
			err:      err,
		}
	}
}

// itemKey identifies a recommendation while its add is in flight.
func itemKey(item recommend.Item) string {
	if item.BookID != 0 {
		return fmt.Sprintf("#%d", item.BookID)
	}
	return strings.ToLower(strings.TrimSpace(item.Book.Title)) + "|" + strings.ToLower(item.Identity().FirstAuthor())
}

// renderRecommendations renders the recommendation list.
func (m Model) renderRecommendations() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	width := m.width - 2

	title := fmt.Sprintf("Recommendations (%d)", len(m.recItems))
	if len(m.recItems) == 0 {
		empty := NewBgStyle(m.theme.FocusBg).Render("No recommendations. Press R to reload.", styles.MutedText)
		return m.renderTitledBox(title, empty, m.width, height, true)
	}

	start := scrollStart(m.recsRow, len(m.recItems), height-2)
	end := min(start+height-2, len(m.recItems))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		bgColor := m.theme.FocusBg
		if i == m.recsRow {
			bgColor = m.theme.SelectionBg
		}
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(bgColor)).
			Width(width).
			Render(m.formatRecRow(m.recItems[i], width, bgColor, i == m.recsRow)))
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}

// formatRecRow formats "marker Title · Authors (year)".
func (m Model) formatRecRow(item recommend.Item, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	textStyle, mutedStyle := styles.Text, styles.MutedText
	if selected {
		textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		mutedStyle = textStyle
	}

	marker := bg.Spaces(2)
	if m.adding[itemKey(item)] {
		marker = bg.Render(m.spinner.View(), styles.WarningText) + bg.Space()
	}

	detail := item.Book.AuthorLine()
	if item.Book.PublicationYear > 0 {
		detail += fmt.Sprintf(" (%d)", item.Book.PublicationYear)
	}
	room := width - lipgloss.Width(marker)
	title := truncate(item.Book.Title, room)
	line := bg.Render(title, textStyle)
	if rest := room - len([]rune(title)) - 3; rest > 4 {
		line += bg.Render(" · "+truncate(detail, rest), mutedStyle)
	}
	return marker + line
}
