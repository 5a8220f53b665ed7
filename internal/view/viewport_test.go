package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelordUK/sigview/internal/playback"
)

func TestResampleHoldsLastSample(t *testing.T) {
	ts := []float64{1, 2, 3}
	vs := []float64{10, 20, 30}

	out := Resample(ts, vs, 0, 4, 5)
	assert.Equal(t, []float64{10, 10, 20, 30, 30}, out)

	assert.Equal(t, []float64{0, 0}, Resample(nil, nil, 0, 1, 2))
	assert.Equal(t, []float64{0}, Resample(ts, vs[:1], 0, 1, 1), "mismatched lengths are ignored")
}

func TestNormalize(t *testing.T) {
	v := []float64{-2, 0, 2}
	Normalize(v, -2, 2)
	assert.Equal(t, []float64{0, 0.5, 1}, v)

	w := []float64{0, 5}
	Normalize(w, 0, 10)
	assert.Equal(t, []float64{0, 0.5}, w, "scale comes from the window range, not the resampled points")

	flat := []float64{3, 3}
	Normalize(flat, 3, 3)
	assert.Equal(t, []float64{0.5, 0.5}, flat)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":             ModeStacked,
		"single":       ModeStacked,
		"Overlay":      ModeOverlay,
		"volts":        ModeOverlay,
		"multiple":     ModeMultiple,
		"polar":        ModePolar,
		"XOR":          ModeXOR,
		"reoccurrence": ModeRecurrence,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("spiral")
	assert.Error(t, err)

	assert.Equal(t, ModeOverlay, ModeStacked.Next())
	assert.Equal(t, ModePolar, ModeMultiple.Next())
	assert.Equal(t, ModeStacked, ModeRecurrence.Next())
	assert.Equal(t, "multiple", ModeMultiple.String())
	assert.Equal(t, "recurrence", ModeRecurrence.String())
}

func snapshot(channels ...string) playback.Snapshot {
	snap := playback.Snapshot{
		FileID:         "rec",
		State:          "ready",
		Channels:       channels,
		VisibleSignals: map[string][]float64{},
		Ranges:         map[string]playback.ValueRange{},
		WindowStart:    0,
		WindowEnd:      2,
		WindowSize:     2,
	}
	for i := 0; i < 200; i++ {
		snap.VisibleTime = append(snap.VisibleTime, float64(i)*0.01)
	}
	for k, name := range channels {
		values := make([]float64, len(snap.VisibleTime))
		for i := range values {
			values[i] = float64((i + k*7) % 50)
		}
		snap.VisibleSignals[name] = values
		snap.Ranges[name] = playback.ValueRange{Min: 0, Max: 49}
	}
	return snap
}

func TestRenderHeightInEveryMode(t *testing.T) {
	v := NewViewport(60, 16)
	snap := snapshot("Fp1", "Fp2", "O1")

	for mode := ModeStacked; mode < numModes; mode++ {
		v.SetMode(mode)
		out := v.Render(snap)
		assert.Equal(t, 16, strings.Count(out, "\n")+1, mode.String())
		assert.Contains(t, out, "Fp1", mode.String())
		assert.Contains(t, out, "00:02.000", mode.String())
	}
}

func TestRenderMultipleTruncatesChannels(t *testing.T) {
	v := NewViewport(40, 8)
	v.SetMode(ModeMultiple)
	out := v.Render(snapshot("a", "b", "c", "d", "e", "f"))
	assert.Contains(t, out, "more channels")
	assert.Equal(t, 8, strings.Count(out, "\n")+1)
}

func TestRenderPlaceholders(t *testing.T) {
	v := NewViewport(40, 6)
	assert.Contains(t, v.Render(playback.Snapshot{}), "no recording loaded")
	assert.Contains(t, v.Render(playback.Snapshot{FileID: "x", State: "loading"}), "loading")
	assert.Contains(t, v.Render(playback.Snapshot{FileID: "x", State: "ready", Samples: 10}), "all channels hidden")

	v.SetSize(2, 2)
	assert.Equal(t, "", v.Render(snapshot("a")))

	v.SetSize(40, 6)
	v.SetMode(ModeRecurrence)
	assert.Contains(t, v.Render(snapshot("a")), "needs two visible channels")
}

func TestRenderXORShortWindow(t *testing.T) {
	v := NewViewport(40, 8)
	v.SetMode(ModeXOR)
	v.SetXOR(5, 0, false)
	out := v.Render(snapshot("a"))
	assert.Contains(t, out, "less than two chunks")
	assert.Equal(t, 8, strings.Count(out, "\n")+1)
}
