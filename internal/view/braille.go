package view

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// dotBits maps a dot inside a braille cell, indexed [row][col], to its bit
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// dotGrid is a braille raster for scatter and polar plots. Every terminal
// cell holds 2x4 dots; a cell takes the layer of the last dot set in it.
type dotGrid struct {
	cols, rows int
	bits       []rune
	layer      []int
}

func newDotGrid(cols, rows int) *dotGrid {
	cols, rows = max(cols, 1), max(rows, 1)
	return &dotGrid{
		cols:  cols,
		rows:  rows,
		bits:  make([]rune, cols*rows),
		layer: make([]int, cols*rows),
	}
}

// Size returns the grid size in dots
func (g *dotGrid) Size() (int, int) {
	return g.cols * 2, g.rows * 4
}

func (g *dotGrid) set(x, y, layer int) {
	w, h := g.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	i := (y/4)*g.cols + x/2
	g.bits[i] |= dotBits[y%4][x%2]
	g.layer[i] = layer
}

// line draws a straight segment between two dots
func (g *dotGrid) line(x0, y0, x1, y1, layer int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		g.set(x0, y0, layer)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// frame maps data coordinates onto a w x h block of dots at (ox, oy)
type frame struct {
	xmin, xmax, ymin, ymax float64
	w, h                   int
	ox, oy                 int
}

func (f frame) dot(x, y float64) (int, int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	px := scale(x, f.xmin, f.xmax, f.w)
	py := f.h - 1 - scale(y, f.ymin, f.ymax, f.h)
	return px + f.ox, py + f.oy, true
}

func scale(v, lo, hi float64, n int) int {
	if hi <= lo {
		return n / 2
	}
	return int(math.Round((v - lo) / (hi - lo) * float64(n-1)))
}

// plot draws xs against ys. Connected plots join neighbours with lines;
// a NaN on either axis breaks the line.
func (g *dotGrid) plot(f frame, xs, ys []float64, layer int, connected bool) {
	havePrev := false
	var px, py int
	for i := range xs {
		if i >= len(ys) {
			break
		}
		x, y, ok := f.dot(xs[i], ys[i])
		if !ok {
			havePrev = false
			continue
		}
		if connected && havePrev {
			g.line(px, py, x, y, layer)
		} else {
			g.set(x, y, layer)
		}
		px, py, havePrev = x, y, true
	}
}

// String renders the grid, colouring each cell with the style of its layer
func (g *dotGrid) String(style func(layer int) lipgloss.Style) string {
	var b strings.Builder
	for r := 0; r < g.rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		row := r * g.cols
		for c := 0; c < g.cols; {
			i := row + c
			if g.bits[i] == 0 {
				b.WriteByte(' ')
				c++
				continue
			}
			// run of cells sharing a layer
			j := c
			var run strings.Builder
			for j < g.cols && g.bits[row+j] != 0 && g.layer[row+j] == g.layer[i] {
				run.WriteRune(0x2800 + g.bits[row+j])
				j++
			}
			b.WriteString(style(g.layer[i]).Render(run.String()))
			c = j
		}
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
