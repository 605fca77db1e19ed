package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/readshelf/internal/library"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	// Surfaces, darkest first.
	Background string
	Surface    string
	SurfaceAlt string
	FocusBg    string

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// ShelfColors maps a library status to its tab color.
	ShelfColors map[library.Status]string
}

// palette is the raw color set a Theme is derived from.
type palette struct {
	bg0, bg1, bg2, bg3     string
	sel, selText           string
	border, borderFocus    string
	fg, comment, faint     string
	blue, green, yellow    string
	red, cyan, abandonedFg string
}

func newTheme(name string, p palette) Theme {
	abandoned := p.abandonedFg
	if abandoned == "" {
		abandoned = p.red
	}
	return Theme{
		Name:          name,
		Background:    p.bg0,
		Surface:       p.bg1,
		SurfaceAlt:    p.bg2,
		FocusBg:       p.bg3,
		SelectionBg:   p.sel,
		SelectionText: p.selText,
		Border:        p.border,
		BorderFocus:   p.borderFocus,
		Text:          p.fg,
		Muted:         p.comment,
		Faint:         p.faint,
		Accent:        p.blue,
		Success:       p.green,
		Warning:       p.yellow,
		Danger:        p.red,
		Info:          p.cyan,
		ShelfColors: map[library.Status]string{
			library.StatusToRead:    p.blue,
			library.StatusRead:      p.green,
			library.StatusAbandoned: abandoned,
		},
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	shelfColors map[library.Status]string
	background  string
	muted       string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Header: fg(t.Text).
			Background(lipgloss.Color(t.Surface)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),

		shelfColors: t.ShelfColors,
		background:  t.Background,
		muted:       t.Muted,
	}
}

// ShelfStyle returns the tab style for a shelf.
func (s Styles) ShelfStyle(status library.Status) lipgloss.Style {
	color := s.shelfColors[status]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color))
}

// WithBackground returns a copy of Styles whose text styles carry an explicit
// background instead of inheriting the terminal's.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{
	// https://github.com/EdenEast/nightfox.nvim
	"Nightfox": newTheme("Nightfox", palette{
		bg0: "#131a24", bg1: "#192330", bg2: "#212e3f", bg3: "#29394f",
		sel: "#2b3b51", selText: "#cdcecf",
		border: "#39506d", borderFocus: "#719cd6",
		fg: "#cdcecf", comment: "#738091", faint: "#71839b",
		blue: "#719cd6", green: "#81b29a", yellow: "#dbc074",
		red: "#c94f6d", cyan: "#63cdcf",
	}),
	// https://github.com/rebelot/kanagawa.nvim
	"Kanagawa": newTheme("Kanagawa", palette{
		bg0: "#16161D", bg1: "#1F1F28", bg2: "#2A2A37", bg3: "#2A2A37",
		sel: "#2D4F67", selText: "#DCD7BA",
		border: "#54546D", borderFocus: "#7E9CD8",
		fg: "#DCD7BA", comment: "#C8C093", faint: "#727169",
		blue: "#7E9CD8", green: "#98BB6C", yellow: "#E6C384",
		red: "#E46876", cyan: "#7FB4CA",
	}),
	// Tailwind slate and sky.
	"Slate": newTheme("Slate", palette{
		bg0: "#020617", bg1: "#0f172a", bg2: "#1e293b", bg3: "#283548",
		sel: "#0284c7", selText: "#f8fafc",
		border: "#334155", borderFocus: "#38bdf8",
		fg: "#f1f5f9", comment: "#94a3b8", faint: "#64748b",
		blue: "#38bdf8", green: "#22c55e", yellow: "#f59e0b",
		red: "#ef4444", cyan: "#06b6d4", abandonedFg: "#dc2626",
	}),
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}
