package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles is the lipgloss style set used for terminal output.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	Info          lipgloss.Style
	JobID         lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusSkipped lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles returns the style set for w. The color profile is detected
// from w and the environment (NO_COLOR, CLICOLOR_FORCE); without color
// every style renders its input unchanged.
func NewStyles(w io.Writer, color bool) *Styles {
	lr := lipgloss.NewRenderer(w, termenv.WithTTY(color))
	if !color || lr.ColorProfile() == termenv.Ascii {
		plain := lr.NewStyle()
		return &Styles{
			Header1: plain, Header2: plain, Bold: plain, Muted: plain,
			Success: plain, Warning: plain, Error: plain, Info: plain, JobID: plain,
			StatusSuccess: plain, StatusSkipped: plain, StatusFailed: plain,
		}
	}

	green := lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}
	yellow := lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"}
	red := lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}
	blue := lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#58a6ff"}
	grey := lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"}

	return &Styles{
		Header1:       lr.NewStyle().Bold(true).Foreground(blue).MarginBottom(1),
		Header2:       lr.NewStyle().Bold(true).Underline(true),
		Bold:          lr.NewStyle().Bold(true),
		Muted:         lr.NewStyle().Foreground(grey),
		Success:       lr.NewStyle().Foreground(green),
		Warning:       lr.NewStyle().Foreground(yellow),
		Error:         lr.NewStyle().Foreground(red).Bold(true),
		Info:          lr.NewStyle().Foreground(blue),
		JobID:         lr.NewStyle().Foreground(blue),
		StatusSuccess: lr.NewStyle().Foreground(green).Bold(true),
		StatusSkipped: lr.NewStyle().Foreground(yellow).Bold(true),
		StatusFailed:  lr.NewStyle().Foreground(red).Bold(true),
	}
}
