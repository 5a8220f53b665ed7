package view

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/sigview/internal/playback"
)

// layerStyle colours dot grid layers with the channel palette
func (v *Viewport) layerStyle(layer int) lipgloss.Style {
	return v.palette.Label(layer)
}

func (v *Viewport) renderPolar(snap playback.Snapshot, height int) (string, string) {
	name := snap.Channels[0]
	period := snap.WindowSize
	if !(period > 0) {
		period = snap.WindowEnd - snap.WindowStart
	}

	header := v.palette.Label(0).Render("◯ "+name) +
		v.placeholderStyle.Render(fmt.Sprintf("  one turn per %.3gs", period))

	minV, maxV := valueRange(snap, name)
	xs, ys := Polar(snap.VisibleTime, snap.VisibleSignals[name], period, minV, maxV)

	g := newDotGrid(v.width, height)
	w, h := g.Size()
	// braille dots are square, so a square frame keeps the circle round
	side := min(w, h)
	f := frame{xmin: -1, xmax: 1, ymin: -1, ymax: 1, w: side, h: side, ox: (w - side) / 2, oy: (h - side) / 2}
	g.plot(f, xs, ys, 0, true)
	return header, g.String(v.layerStyle)
}

func (v *Viewport) renderXOR(snap playback.Snapshot, height int) (string, string) {
	name := snap.Channels[0]
	compare := "previous"
	if v.xorBaseline {
		compare = "first"
	}
	header := v.palette.Label(0).Render("⊕ "+name) +
		v.placeholderStyle.Render(fmt.Sprintf("  chunk %.3gs  tolerance %.3g  vs %s chunk",
			v.xorChunk, v.xorTolerance, compare))

	chunks := XORChunks(snap.VisibleTime, snap.VisibleSignals[name], v.xorChunk, v.xorTolerance, v.xorBaseline)
	if len(chunks) == 0 {
		return header, lipgloss.Place(v.width, height, lipgloss.Center, lipgloss.Center,
			v.placeholderStyle.Render("window holds less than two chunks"))
	}

	g := newDotGrid(v.width, height)
	w, h := g.Size()
	minV, maxV := valueRange(snap, name)
	top := float64(len(chunks)-1)*stackGap + 1
	f := frame{xmin: 0, xmax: float64(len(chunks[0]) - 1), ymin: 0, ymax: top, w: w, h: h}

	xs := make([]float64, len(chunks[0]))
	for j := range xs {
		xs[j] = float64(j)
	}
	for i, chunk := range chunks {
		ys := make([]float64, len(chunk))
		offset := float64(i) * stackGap
		for j, val := range chunk {
			ys[j] = unit(val, minV, maxV) + offset
		}
		g.plot(f, xs, ys, i, true)
	}
	return header, g.String(v.layerStyle)
}

func (v *Viewport) renderRecurrence(snap playback.Snapshot, height int) (string, string) {
	xName, yName := snap.Channels[0], snap.Channels[1]
	header := v.placeholderStyle.Render("x ") + v.palette.Label(0).Render(xName) +
		v.placeholderStyle.Render("  y ") + v.palette.Label(1).Render(yName)

	xmin, xmax := paddedRange(valueRange(snap, xName))
	ymin, ymax := paddedRange(valueRange(snap, yName))

	g := newDotGrid(v.width, height)
	w, h := g.Size()
	f := frame{xmin: xmin, xmax: xmax, ymin: ymin, ymax: ymax, w: w, h: h}

	xs, ys := snap.VisibleSignals[xName], snap.VisibleSignals[yName]
	// oldest third drawn first, newest third on top
	n := min(len(xs), len(ys))
	for band := 2; band >= 0; band-- {
		lo, hi := n*(2-band)/3, n*(3-band)/3
		g.plot(f, xs[lo:hi], ys[lo:hi], band, false)
	}
	return header, g.String(v.layerStyle)
}
