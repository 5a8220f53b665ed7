package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/TimelordUK/sigview/internal/config"
	"github.com/TimelordUK/sigview/internal/playback"
	"github.com/TimelordUK/sigview/internal/render"
	"github.com/TimelordUK/sigview/pkg/timecol"
)

// Mode is the chart layout
type Mode int

const (
	// ModeStacked draws every channel on one canvas, offset vertically
	ModeStacked Mode = iota
	// ModeOverlay draws every channel on one canvas on a shared scale
	ModeOverlay
	// ModeMultiple gives each channel its own canvas
	ModeMultiple
	// ModePolar wraps the first visible channel around a circle, one turn
	// per window length
	ModePolar
	// ModeXOR stacks the chunks of the first visible channel, erasing what
	// repeats from one chunk to the next
	ModeXOR
	// ModeRecurrence plots the first two visible channels against each other
	ModeRecurrence

	numModes
)

func (m Mode) String() string {
	switch m {
	case ModeOverlay:
		return "overlay"
	case ModeMultiple:
		return "multiple"
	case ModePolar:
		return "polar"
	case ModeXOR:
		return "xor"
	case ModeRecurrence:
		return "recurrence"
	default:
		return "stacked"
	}
}

// Next returns the following mode, wrapping around
func (m Mode) Next() Mode {
	return (m + 1) % numModes
}

// ParseMode parses a view mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stacked", "single":
		return ModeStacked, nil
	case "overlay", "volts":
		return ModeOverlay, nil
	case "multiple":
		return ModeMultiple, nil
	case "polar":
		return ModePolar, nil
	case "xor":
		return ModeXOR, nil
	case "recurrence", "reoccurrence":
		return ModeRecurrence, nil
	}
	return ModeStacked, fmt.Errorf("unknown view mode %q", s)
}

// stackGap separates channels in stacked mode, in normalised units
const stackGap = 1.25

// Viewport draws the visible window of a snapshot.
// It knows nothing about fetching or playback; it only renders snapshots.
type Viewport struct {
	width  int
	height int
	mode   Mode

	palette  *render.Palette
	showAxis bool

	// xor mode
	xorChunk     float64
	xorTolerance float64
	xorBaseline  bool

	placeholderStyle lipgloss.Style
}

// NewViewport creates a new viewport
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:            width,
		height:           height,
		palette:          render.NewPalette(config.DefaultConfig().Theme),
		xorChunk:         1,
		xorTolerance:     5,
		placeholderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// SetSize updates viewport dimensions
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Size returns the viewport dimensions
func (v *Viewport) Size() (int, int) {
	return v.width, v.height
}

// SetMode sets the layout
func (v *Viewport) SetMode(m Mode) {
	v.mode = m
}

// Mode returns the layout
func (v *Viewport) Mode() Mode {
	return v.mode
}

// CycleMode advances to the next layout
func (v *Viewport) CycleMode() Mode {
	v.mode = v.mode.Next()
	return v.mode
}

// SetPalette sets the channel colours
func (v *Viewport) SetPalette(p *render.Palette) {
	v.palette = p
}

// SetShowAxis toggles the value axis drawn by the canvas
func (v *Viewport) SetShowAxis(show bool) {
	v.showAxis = show
}

// SetXOR configures the chunk width in seconds, the erase tolerance and
// whether chunks compare against the first chunk instead of the previous one
func (v *Viewport) SetXOR(chunk, tolerance float64, baseline bool) {
	if chunk > 0 {
		v.xorChunk = chunk
	}
	if tolerance >= 0 {
		v.xorTolerance = tolerance
	}
	v.xorBaseline = baseline
}

// Render returns the chart for snap, exactly height lines tall
func (v *Viewport) Render(snap playback.Snapshot) string {
	if v.width < 4 || v.height < 3 {
		return ""
	}
	if len(snap.Channels) == 0 || len(snap.VisibleTime) == 0 {
		msg := "no data"
		switch {
		case snap.FileID == "":
			msg = "no recording loaded"
		case snap.State == playback.StateLoading.String():
			msg = "loading…"
		case len(snap.Channels) == 0 && snap.Samples > 0:
			msg = "all channels hidden"
		case snap.Fetching:
			msg = "buffering…"
		}
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			v.placeholderStyle.Render(msg))
	}

	// legend and time axis take one line each
	chartHeight := v.height - 2

	header := v.legend(snap.Channels)
	var chart string
	switch v.mode {
	case ModeMultiple:
		chart = v.renderMultiple(snap, chartHeight)
	case ModePolar:
		header, chart = v.renderPolar(snap, chartHeight)
	case ModeXOR:
		header, chart = v.renderXOR(snap, chartHeight)
	case ModeRecurrence:
		if len(snap.Channels) < 2 {
			return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
				v.placeholderStyle.Render("recurrence needs two visible channels"))
		}
		header, chart = v.renderRecurrence(snap, chartHeight)
	default:
		chart = v.renderShared(snap, chartHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().MaxWidth(v.width).Render(header),
		padLines(chart, chartHeight),
		v.timeAxis(snap.WindowStart, snap.WindowEnd),
	)
}

// valueRange returns the window range of a channel, or a flat range when
// the snapshot carries none
func valueRange(snap playback.Snapshot, name string) (float64, float64) {
	r, ok := snap.Ranges[name]
	if !ok {
		return 0, 0
	}
	return r.Min, r.Max
}

func (v *Viewport) renderShared(snap playback.Snapshot, height int) string {
	points := v.width * 2
	data := make([][]float64, len(snap.Channels))
	for i, name := range snap.Channels {
		series := Resample(snap.VisibleTime, snap.VisibleSignals[name], snap.WindowStart, snap.WindowEnd, points)
		minV, maxV := valueRange(snap, name)
		Normalize(series, minV, maxV)
		if v.mode == ModeStacked {
			offset := float64(len(snap.Channels)-1-i) * stackGap
			for j := range series {
				series[j] += offset
			}
		}
		data[i] = series
	}
	return v.canvas(data, v.palette.CanvasColors(len(data)), v.width, height)
}

func (v *Viewport) renderMultiple(snap playback.Snapshot, height int) string {
	// each channel gets a label line and at least two canvas rows
	perChannel := height / len(snap.Channels)
	channels := snap.Channels
	if perChannel < 3 {
		perChannel = 3
		channels = channels[:max(1, (height-1)/perChannel)]
	}

	blocks := make([]string, 0, len(channels))
	for i, name := range channels {
		series := Resample(snap.VisibleTime, snap.VisibleSignals[name], snap.WindowStart, snap.WindowEnd, v.width*2)
		minV, maxV := valueRange(snap, name)
		label := v.palette.Label(i).Render(name) +
			v.placeholderStyle.Render(fmt.Sprintf(" [%.3g, %.3g]", minV, maxV))
		block := lipgloss.JoinVertical(lipgloss.Left,
			label,
			v.canvas([][]float64{series}, []plot.Color{v.palette.CanvasColor(i)}, v.width, perChannel-1),
		)
		blocks = append(blocks, block)
	}

	out := lipgloss.JoinVertical(lipgloss.Left, blocks...)
	if hidden := len(snap.Channels) - len(channels); hidden > 0 {
		out += "\n" + v.placeholderStyle.Render(fmt.Sprintf("+%d more channels", hidden))
	}
	return padLines(out, height)
}

func (v *Viewport) canvas(data [][]float64, colors []plot.Color, width, height int) string {
	c := plot.NewCanvas(width, height)
	c.ShowAxis = v.showAxis
	c.LineColors = colors
	if len(data) > 0 {
		c.NumDataPoints = len(data[0])
	}
	c.Fill(data)
	return padLines(c.String(), height)
}

func (v *Viewport) legend(channels []string) string {
	parts := make([]string, len(channels))
	for i, name := range channels {
		parts[i] = v.palette.Label(i).Render("━ " + name)
	}
	return lipgloss.NewStyle().MaxWidth(v.width).Render(strings.Join(parts, "  "))
}

func (v *Viewport) timeAxis(start, end float64) string {
	left := timecol.FormatSeconds(start)
	right := timecol.FormatSeconds(end)
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return v.palette.Axis.Render(right)
	}
	return v.palette.Axis.Render(left + strings.Repeat("─", gap) + right)
}

// padLines forces s to exactly n lines
func padLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Resample maps samples onto n evenly spaced points across [start, end],
// holding the most recent sample at each point. Points before the first
// sample take the first value. t must be increasing.
func Resample(t, values []float64, start, end float64, n int) []float64 {
	out := make([]float64, n)
	if len(t) == 0 || len(values) != len(t) || n == 0 {
		return out
	}
	span := end - start
	j := 0
	for i := range out {
		at := start
		if n > 1 {
			at = start + span*float64(i)/float64(n-1)
		}
		for j+1 < len(t) && t[j+1] <= at {
			j++
		}
		out[i] = values[j]
	}
	return out
}

// Normalize scales values from [minV, maxV] into [0, 1] in place.
// A flat range maps everything to 0.5.
func Normalize(values []float64, minV, maxV float64) {
	for i, x := range values {
		values[i] = unit(x, minV, maxV)
	}
}
