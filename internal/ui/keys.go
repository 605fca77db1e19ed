package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/five82/readshelf/internal/library"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Reload     key.Binding

	// View switching
	ViewShelves key.Binding
	ViewRecs    key.Binding
	ViewLogs    key.Binding

	// Shelf actions
	MoveRead      key.Binding
	MoveAbandoned key.Binding
	MoveToRead    key.Binding
	RateUp        key.Binding
	RateDown      key.Binding

	// Recommendation actions
	Add key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Logs
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab", "right"),
			key.WithHelp("tab", "Next shelf"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab", "left"),
			key.WithHelp("shift+tab", "Previous shelf"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return to shelves"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload"),
		),

		ViewShelves: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Shelves"),
		),
		ViewRecs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Recommendations"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),

		MoveRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Mark read"),
		),
		MoveAbandoned: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Abandon"),
		),
		MoveToRead: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Back to To Read"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Rate up"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Rate down"),
		),

		Add: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Add to library"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "Page down"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
	}
}

// moveBindings pairs each move key with the shelf it targets.
func (k keyMap) moveBindings() []moveBinding {
	return []moveBinding{
		{k.MoveRead, library.StatusRead},
		{k.MoveAbandoned, library.StatusAbandoned},
		{k.MoveToRead, library.StatusToRead},
	}
}

type moveBinding struct {
	binding key.Binding
	target  library.Status
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ViewShelves, k.ViewRecs, k.ViewLogs, k.Tab, k.ShiftTab, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		{k.MoveRead, k.MoveAbandoned, k.MoveToRead, k.RateUp, k.RateDown},
		{k.Add, k.Reload},
		{k.ToggleFollow},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
