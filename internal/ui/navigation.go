package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// moveCursor applies the navigation keys to row in a list of count entries.
// page is the number of visible rows.
func moveCursor(keys keyMap, msg tea.KeyMsg, row, count, page int) int {
	if count == 0 {
		return 0
	}
	page = max(page, 1)
	switch {
	case key.Matches(msg, keys.Down):
		row++
	case key.Matches(msg, keys.Up):
		row--
	case key.Matches(msg, keys.Top):
		row = 0
	case key.Matches(msg, keys.Bottom):
		row = count - 1
	case key.Matches(msg, keys.PageDown):
		row += page
	case key.Matches(msg, keys.PageUp):
		row -= page
	}
	return clampRow(row, count)
}

// clampRow keeps row within [0, count).
func clampRow(row, count int) int {
	if count <= 0 || row < 0 {
		return 0
	}
	if row >= count {
		return count - 1
	}
	return row
}

// scrollStart returns the first visible row so that selected stays within a
// window of height rows.
func scrollStart(selected, count, height int) int {
	if height <= 0 || count <= height {
		return 0
	}
	start := selected - height/2
	if start < 0 {
		return 0
	}
	if start > count-height {
		return count - height
	}
	return start
}
