package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelordUK/sigview/internal/playback"
)

func windowSnapshot() playback.Snapshot {
	return playback.Snapshot{
		FileID:      "rec/42",
		Channels:    []string{"Fp1", "Fp2"},
		VisibleTime: []float64{1, 1.5, 2},
		VisibleSignals: map[string][]float64{
			"Fp1": {2, 3, 4},
			"Fp2": {-1, 0, 1.25},
		},
		WindowStart: 1,
		WindowEnd:   2,
	}
}

func TestCSVExport(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)
	info, err := e.CSV(windowSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 3, info.Samples)
	assert.Contains(t, info.Path, "sigview-rec_42-1.000-2.000.csv")

	f, err := os.Open(info.Path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"time", "Fp1", "Fp2"},
		{"1", "2", "-1"},
		{"1.5", "3", "0"},
		{"2", "4", "1.25"},
	}, rows)
}

func TestPNGExport(t *testing.T) {
	e := NewExporter(t.TempDir(), []string{"#ff7f0e", "not-a-colour", "1f77b4"})
	e.SetSize(400, 200)
	assert.Len(t, e.colors, 2)

	info, err := e.PNG(windowSnapshot())
	require.NoError(t, err)

	data, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestPNGExportSinglePoint(t *testing.T) {
	snap := windowSnapshot()
	snap.VisibleTime = snap.VisibleTime[:1]
	snap.VisibleSignals = map[string][]float64{"Fp1": {2}, "Fp2": {-1}}

	_, err := NewExporter(t.TempDir(), nil).PNG(snap)
	assert.NoError(t, err)
}

func TestExportRejectsEmptyWindow(t *testing.T) {
	e := NewExporter(t.TempDir(), nil)

	_, err := e.CSV(playback.Snapshot{})
	assert.ErrorIs(t, err, playback.ErrNoFile)

	_, err = e.PNG(playback.Snapshot{FileID: "x"})
	assert.Error(t, err)
}
