package view

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolarOneTurnPerPeriod(t *testing.T) {
	ts := []float64{0, 0.5, 2, -0.5}
	vs := []float64{10, 10, 0, 10}

	xs, ys := Polar(ts, vs, 2, 0, 10)
	require.Len(t, xs, 4)

	// max value at angle 0 sits on the unit circle
	assert.InDelta(t, 1, xs[0], 1e-9)
	assert.InDelta(t, 0, ys[0], 1e-9)

	// a quarter period later the angle is 90 degrees
	assert.InDelta(t, 0, xs[1], 1e-9)
	assert.InDelta(t, 1, ys[1], 1e-9)

	// a full period wraps back to angle 0; the minimum keeps innerRadius
	assert.InDelta(t, innerRadius, xs[2], 1e-9)
	assert.InDelta(t, 0, ys[2], 1e-9)

	// negative times wrap the same way
	assert.InDelta(t, 0, xs[3], 1e-9)
	assert.InDelta(t, -1, ys[3], 1e-9)

	xs, _ = Polar(ts, vs, 0, 0, 10)
	assert.Empty(t, xs)
}

func TestPolarFlatRange(t *testing.T) {
	xs, ys := Polar([]float64{0}, []float64{3}, 1, 3, 3)
	r := math.Hypot(xs[0], ys[0])
	assert.InDelta(t, innerRadius+(1-innerRadius)*0.5, r, 1e-9)
}

// periodic builds 4 chunks of 1s at 10 Hz repeating the same shape, with
// one sample of the third chunk changed
func periodic() ([]float64, []float64) {
	var ts, vs []float64
	for i := 0; i < 40; i++ {
		ts = append(ts, float64(i)*0.1)
		vs = append(vs, float64(i%10))
	}
	vs[23] = 100
	return ts, vs
}

func TestXORChunksEraseRepeats(t *testing.T) {
	ts, vs := periodic()

	chunks := XORChunks(ts, vs, 1, 0.5, false)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		require.Len(t, c, 10)
	}

	// chunk 1 repeats chunk 0 exactly
	for j, v := range chunks[0] {
		assert.True(t, math.IsNaN(v), "chunk 1 sample %d", j)
	}
	// chunk 2 differs from chunk 1 at one sample
	assert.Equal(t, 100.0, chunks[1][3])
	assert.True(t, math.IsNaN(chunks[1][2]))
	// chunk 3 differs from chunk 2 at the same sample, shown with its own value
	assert.Equal(t, 3.0, chunks[2][3])
}

func TestXORChunksAgainstBaseline(t *testing.T) {
	ts, vs := periodic()

	chunks := XORChunks(ts, vs, 1, 0.5, true)
	require.Len(t, chunks, 3)
	assert.Equal(t, 100.0, chunks[1][3])
	// chunk 3 matches the first chunk again
	assert.True(t, math.IsNaN(chunks[2][3]))
}

func TestXORChunksNeedsTwoChunks(t *testing.T) {
	ts, vs := periodic()
	assert.Nil(t, XORChunks(ts, vs, 3, 0, false))
	assert.Nil(t, XORChunks(ts[:1], vs[:1], 1, 0, false))
	assert.Nil(t, XORChunks(ts, vs, 0, 0, false))
	assert.Nil(t, XORChunks([]float64{1, 1, 1}, []float64{1, 2, 3}, 1, 0, false))
}

func TestPaddedRange(t *testing.T) {
	lo, hi := paddedRange(0, 10)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 11.0, hi)

	lo, hi = paddedRange(2, 2)
	assert.Equal(t, 1.5, lo)
	assert.Equal(t, 2.5, hi)
}

func TestDotGrid(t *testing.T) {
	g := newDotGrid(2, 1)
	w, h := g.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)

	g.set(0, 0, 0)
	g.set(1, 3, 0)
	g.set(9, 9, 0) // outside, ignored
	plain := func(int) lipgloss.Style { return lipgloss.NewStyle() }
	assert.Equal(t, string(rune(0x2800+0x01+0x80))+" ", g.String(plain))

	g = newDotGrid(2, 1)
	g.line(0, 0, 3, 3, 0)
	out := g.String(plain)
	assert.Equal(t, 2, len([]rune(out)))
	assert.NotContains(t, out, " ")
}

func TestDotGridPlotBreaksOnNaN(t *testing.T) {
	g := newDotGrid(4, 1)
	f := frame{xmin: 0, xmax: 7, ymin: 0, ymax: 3, w: 8, h: 4}
	g.plot(f, []float64{0, 1, 6, 7}, []float64{0, math.NaN(), 0, 0}, 0, true)

	out := g.String(func(int) lipgloss.Style { return lipgloss.NewStyle() })
	cells := []rune(out)
	require.Len(t, cells, 4)
	// the gap between x=0 and x=6 stays empty
	assert.Equal(t, ' ', cells[1])
	assert.Equal(t, ' ', cells[2])
	assert.True(t, strings.ContainsRune(out, rune(0x2800+0x40)))
}
