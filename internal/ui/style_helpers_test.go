package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestBgStyleRenderKeepsText(t *testing.T) {
	bg := NewBgStyle("#192330")
	got := bg.Render("Want  to read", lipgloss.NewStyle())
	if w := lipgloss.Width(got); w != len("Want  to read") {
		t.Fatalf("rendered width = %d, want %d", w, len("Want  to read"))
	}
	if bg.Render("", lipgloss.NewStyle()) != "" {
		t.Fatal("empty text should render empty")
	}
}

func TestBgStyleFillLine(t *testing.T) {
	bg := NewBgStyle("#192330")
	if w := lipgloss.Width(bg.FillLine("abc", 12)); w != 12 {
		t.Fatalf("FillLine width = %d, want 12", w)
	}
}
