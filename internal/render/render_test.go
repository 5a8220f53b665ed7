package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TimelordUK/sigview/internal/config"
)

func TestPaletteCycles(t *testing.T) {
	theme := config.DefaultConfig().Theme
	theme.Channels = []string{"#ff0000", "#00ff00"}
	p := NewPalette(theme)

	assert.Equal(t, p.CanvasColor(0), p.CanvasColor(3))
	assert.Len(t, p.CanvasColors(5), 5)
	assert.Equal(t, p.Label(0).GetForeground(), p.Label(2).GetForeground())
	assert.NotEqual(t, p.Label(0).GetForeground(), p.Label(1).GetForeground())
}

func TestPaletteWithoutChannelColours(t *testing.T) {
	theme := config.DefaultConfig().Theme
	theme.Channels = nil
	p := NewPalette(theme)
	assert.NotPanics(t, func() { p.Label(4) })
}

func TestMetaRendererPlain(t *testing.T) {
	r := NewMetaRenderer("no-such-style")
	r.SetFormatter("noop")

	out := r.Highlight(map[string]interface{}{"num_channels": 19, "ML_Predictions": "normal"})
	assert.Contains(t, out, `"num_channels": 19`)
	assert.Contains(t, out, `"ML_Predictions": "normal"`)

	panel := r.Panel("Features", map[string]int{"a": 1, "b": 2, "c": 3}, 30, 5)
	assert.Contains(t, panel, "Features")
	assert.Contains(t, panel, "…")
}
