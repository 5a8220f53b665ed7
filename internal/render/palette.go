package render

import (
	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/TimelordUK/sigview/internal/config"
)

// Palette assigns every channel a label style and a canvas colour.
// Labels use the theme colours; braille canvases only take the named
// terminal colours, so those alternate between a highlight and dimmer tones.
type Palette struct {
	labels    []lipgloss.Style
	canvas    []plot.Color
	StatusBar lipgloss.Style
	Axis      lipgloss.Style
	Error     lipgloss.Style
}

// NewPalette builds a palette from the theme
func NewPalette(theme config.ThemeConfig) *Palette {
	p := &Palette{
		StatusBar: lipgloss.NewStyle().
			Background(lipgloss.Color(theme.StatusBar)).
			Foreground(lipgloss.Color(theme.StatusBarText)),
		Axis:  lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Axis)),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("167")),
	}

	for _, c := range theme.Channels {
		p.labels = append(p.labels, lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true))
	}
	if len(p.labels) == 0 {
		p.labels = []lipgloss.Style{lipgloss.NewStyle().Bold(true)}
	}

	if lipgloss.HasDarkBackground() {
		p.canvas = []plot.Color{plot.Red, plot.LightGray, plot.DimGray}
	} else {
		p.canvas = []plot.Color{plot.Red, plot.Black, plot.DimGray}
	}
	return p
}

// Label returns the label style for the i-th visible channel
func (p *Palette) Label(i int) lipgloss.Style {
	return p.labels[i%len(p.labels)]
}

// CanvasColor returns the line colour for the i-th visible channel
func (p *Palette) CanvasColor(i int) plot.Color {
	return p.canvas[i%len(p.canvas)]
}

// CanvasColors returns line colours for n channels
func (p *Palette) CanvasColors(n int) []plot.Color {
	colors := make([]plot.Color, n)
	for i := range colors {
		colors[i] = p.CanvasColor(i)
	}
	return colors
}
