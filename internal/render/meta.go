package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// MetaRenderer pretty prints backend metadata (features, predictions) as
// highlighted JSON for the side panel
type MetaRenderer struct {
	syntaxTheme string
	formatter   string
	box         lipgloss.Style
}

// NewMetaRenderer creates a renderer using a chroma style name
func NewMetaRenderer(syntaxTheme string) *MetaRenderer {
	if styles.Get(syntaxTheme) == styles.Fallback {
		syntaxTheme = "monokai"
	}
	return &MetaRenderer{
		syntaxTheme: syntaxTheme,
		formatter:   "terminal16m",
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
	}
}

// SetFormatter switches the chroma formatter, e.g. "noop" for plain text
func (r *MetaRenderer) SetFormatter(name string) {
	r.formatter = name
}

// Highlight renders v as indented JSON
func (r *MetaRenderer) Highlight(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data), "json", r.formatter, r.syntaxTheme); err != nil {
		return string(data)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Panel renders v in a bordered box of the given width, clipping long content
// to height lines
func (r *MetaRenderer) Panel(title string, v interface{}, width, height int) string {
	lines := strings.Split(r.Highlight(v), "\n")
	if height > 2 && len(lines) > height-2 {
		lines = append(lines[:height-3], "…")
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(title),
		strings.Join(lines, "\n"),
	)
	if width > 4 {
		return r.box.Width(width - 2).Render(body)
	}
	return r.box.Render(body)
}
