package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/readshelf/internal/library"
)

// handleShelfKey processes keyboard input for the shelves view.
func (m Model) handleShelfKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.shelf = nextShelf(m.shelf, 1)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.shelf = nextShelf(m.shelf, -1)
		return m, nil
	case key.Matches(msg, m.keys.RateUp):
		return m.rateSelected(ratingStep)
	case key.Matches(msg, m.keys.RateDown):
		return m.rateSelected(-ratingStep)
	}

	for _, mb := range m.keys.moveBindings() {
		if key.Matches(msg, mb.binding) {
			return m.moveSelected(mb.target)
		}
	}

	count := len(m.snapshot.Shelf(m.shelf))
	m.rows[m.shelf] = moveCursor(m.keys, msg, m.rows[m.shelf], count, m.contentHeight()-3)
	return m, nil
}

// selectedRecord returns the highlighted record on the current shelf.
func (m Model) selectedRecord() (library.Record, bool) {
	records := m.snapshot.Shelf(m.shelf)
	row := m.rows[m.shelf]
	if row < 0 || row >= len(records) {
		return library.Record{}, false
	}
	return records[row], true
}

// moveSelected stages a status change and commits it in the background. Moves
// that the shelf does not offer are ignored.
func (m Model) moveSelected(target library.Status) (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok || m.mutator == nil {
		return m, nil
	}
	if m.mutator.Updating(rec.RecordID) {
		m.setStatus("Still saving the previous change to this book.", true)
		return m, nil
	}
	if !library.CanTransition(rec.Status, target) {
		return m, nil
	}

	mu, err := m.mutator.StageStatus(rec.RecordID, target)
	if err != nil {
		m.setStatus(errorMessage(err), true)
		return m, nil
	}
	m.refreshNow()
	m.setStatus(fmt.Sprintf("Moving %q to %s...", rec.Book.Title, target.Label()), false)
	return m, commitCmd(m.ctx, mu, rec.Book.Title)
}

// rateSelected nudges the rating of a READ record by delta.
func (m Model) rateSelected(delta float64) (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok || m.mutator == nil || rec.Status != library.StatusRead {
		return m, nil
	}
	if m.mutator.Updating(rec.RecordID) {
		m.setStatus("Still saving the previous change to this book.", true)
		return m, nil
	}

	current := 0.0
	if rec.Rating != nil {
		current = *rec.Rating
	}
	next := clampRating(current + delta)
	if rec.Rating != nil && next == current {
		return m, nil
	}

	mu, err := m.mutator.StageRating(rec.RecordID, next)
	if err != nil {
		m.setStatus(errorMessage(err), true)
		return m, nil
	}
	m.refreshNow()
	return m, commitCmd(m.ctx, mu, rec.Book.Title)
}

func (m Model) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(errorMessage(msg.err), true)
	} else if msg.op == library.OpStatus {
		m.setStatus(fmt.Sprintf("Moved %q.", msg.title), false)
	}
	return m, m.snapshotCmd()
}

// commitCmd sends a staged change. It is not cancelled with the UI; the
// request runs to completion so the store ends up confirmed or rolled back.
func commitCmd(ctx context.Context, mu *library.Mutation, title string) tea.Cmd {
	op := mu.Op()
	return func() tea.Msg {
		err := mu.Commit(context.WithoutCancel(ctx))
		return mutationDoneMsg{recordID: mu.RecordID(), op: op, title: title, err: err}
	}
}

// renderShelves renders the shelf tabs and the records on the current shelf.
func (m Model) renderShelves() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	if !m.snapshot.Loaded {
		return m.renderLoadState(height)
	}

	tabs := m.renderShelfTabs()
	records := m.snapshot.Shelf(m.shelf)

	var body string
	if len(records) == 0 {
		body = NewBgStyle(m.theme.FocusBg).Render(emptyShelfText(m.shelf), styles.MutedText)
	} else {
		body = m.renderRecordRows(records, m.width-2, height-3)
	}

	title := fmt.Sprintf("%s (%d)", m.shelf.Label(), len(records))
	return tabs + "\n" + m.renderTitledBox(title, body, m.width, height-1, true)
}

// renderLoadState covers the area until the first load succeeds. A failed
// first load blocks the view with a retry hint.
func (m Model) renderLoadState(height int) string {
	styles := m.theme.Styles()
	var lines []string
	if m.snapshot.LastError != nil {
		lines = append(lines,
			styles.DangerText.Render("Could not load your library"),
			styles.MutedText.Render(truncate(m.snapshot.LastError.Error(), max(m.width-8, 10))),
			"",
			styles.Text.Render("Press ")+styles.AccentText.Render("R")+styles.Text.Render(" to retry"),
		)
	} else {
		lines = append(lines, styles.WarningText.Render(m.spinner.View()+" Loading library..."))
	}
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// renderShelfTabs renders one tab per shelf with its record count.
func (m Model) renderShelfTabs() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)
	shelves := library.GroupByStatus(m.snapshot.Records)

	tabs := make([]string, 0, len(library.Statuses))
	for _, shelf := range library.Statuses {
		label := fmt.Sprintf(" %s %d ", shelf.Label(), len(shelves[shelf]))
		if shelf == m.shelf {
			tabs = append(tabs, styles.ShelfStyle(shelf).Bold(true).Render(label))
			continue
		}
		tabs = append(tabs, bg.Render(label, styles.MutedText))
	}
	return bg.FillLine(bg.Join(tabs, " "), m.width)
}

// renderRecordRows renders records as styled rows, scrolled so the
// selection stays visible.
func (m Model) renderRecordRows(records []library.Record, width, height int) string {
	selected := m.rows[m.shelf]
	start := scrollStart(selected, len(records), height)
	end := min(start+height, len(records))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		bgColor := m.theme.FocusBg
		if i == selected {
			bgColor = m.theme.SelectionBg
		}
		content := m.formatRecordRow(records[i], width, bgColor, i == selected)
		lines = append(lines, lipgloss.NewStyle().
			Background(lipgloss.Color(bgColor)).
			Width(width).
			Render(content))
	}
	return strings.Join(lines, "\n")
}

// formatRecordRow formats a record as "marker Title · Authors  rating".
func (m Model) formatRecordRow(rec library.Record, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	textStyle, mutedStyle := styles.Text, styles.MutedText
	if selected {
		textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		mutedStyle = textStyle
	}

	marker := bg.Spaces(2)
	switch {
	case m.updating[rec.RecordID]:
		marker = bg.Render(m.spinner.View(), styles.WarningText) + bg.Space()
	case rec.Provisional:
		marker = bg.Render("+", styles.InfoText) + bg.Space()
	}

	var suffix string
	if v, ok := rec.DisplayRating(); ok {
		suffix = bg.Render(formatStars(v), styles.WarningText)
	}
	if moves := moveHint(rec.Status); moves != "" && selected && !m.updating[rec.RecordID] {
		if suffix != "" {
			suffix += bg.Spaces(2)
		}
		suffix += bg.Render(moves, mutedStyle)
	}

	titleWidth := width - lipgloss.Width(marker) - lipgloss.Width(suffix) - 2
	title := rec.Book.Title
	if title == "" {
		title = "Untitled"
	}
	line := bg.Render(title, textStyle)
	if authors := rec.Book.AuthorLine(); titleWidth > len(title)+3 {
		line += bg.Render(" · "+truncate(authors, titleWidth-len(title)-3), mutedStyle)
	} else {
		line = bg.Render(truncate(title, max(titleWidth, 4)), textStyle)
	}

	pad := width - lipgloss.Width(marker) - lipgloss.Width(line) - lipgloss.Width(suffix)
	return marker + line + bg.Spaces(max(pad, 1)) + suffix
}

// moveHint lists the move keys offered from a shelf.
func moveHint(status library.Status) string {
	targets := library.LegalTargets(status)
	if len(targets) == 0 {
		return ""
	}
	hints := make([]string, 0, len(targets))
	for _, target := range targets {
		hints = append(hints, moveKey(target)+":"+target.Label())
	}
	return strings.Join(hints, " ")
}

func moveKey(target library.Status) string {
	switch target {
	case library.StatusRead:
		return "r"
	case library.StatusAbandoned:
		return "a"
	default:
		return "t"
	}
}

func emptyShelfText(shelf library.Status) string {
	switch shelf {
	case library.StatusToRead:
		return "Nothing to read yet. Press c to browse recommendations."
	case library.StatusRead:
		return "No finished books."
	default:
		return "No abandoned books."
	}
}

func nextShelf(current library.Status, step int) library.Status {
	n := len(library.Statuses)
	for i, shelf := range library.Statuses {
		if shelf == current {
			return library.Statuses[((i+step)%n+n)%n]
		}
	}
	return library.Statuses[0]
}

// errorMessage turns an error into a status line sentence.
func errorMessage(err error) string {
	var mutErr *library.MutationError
	var fetchErr *library.FetchError
	switch {
	case errors.As(err, &mutErr):
		return mutErr.Message()
	case errors.As(err, &fetchErr):
		return "Could not load your library: " + classifyConnectionError(fetchErr.Err)
	case errors.Is(err, library.ErrRecordBusy):
		return "Still saving the previous change to this book."
	case errors.Is(err, library.ErrNotFound):
		return "That book is no longer in your library."
	default:
		return err.Error()
	}
}
