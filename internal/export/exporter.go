package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/TimelordUK/sigview/internal/playback"
	"github.com/TimelordUK/sigview/pkg/timecol"
)

// Info describes an exported window
type Info struct {
	FileID   string
	Path     string
	Start    float64
	End      float64
	Samples  int
	Channels []string
	Written  time.Time
}

// Exporter writes the visible window of a snapshot to disk
type Exporter struct {
	dir    string
	colors []drawing.Color
	width  int
	height int
}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// NewExporter writes into dir, or the temp dir when empty. colors are hex
// strings used for the chart lines; anything else falls back to the chart
// defaults.
func NewExporter(dir string, colors []string) *Exporter {
	if dir == "" {
		dir = os.TempDir()
	}
	e := &Exporter{dir: dir, width: 1200, height: 480}
	for _, c := range colors {
		if hexColor.MatchString(c) {
			e.colors = append(e.colors, drawing.ColorFromHex(c))
		}
	}
	return e
}

// Dir returns the output directory
func (e *Exporter) Dir() string {
	return e.dir
}

// SetSize sets the PNG dimensions in pixels
func (e *Exporter) SetSize(width, height int) {
	if width > 0 && height > 0 {
		e.width, e.height = width, height
	}
}

func (e *Exporter) path(snap playback.Snapshot, ext string) string {
	id := strings.Trim(unsafeChars.ReplaceAllString(snap.FileID, "_"), "_")
	if id == "" {
		id = "window"
	}
	name := fmt.Sprintf("sigview-%s-%s-%s.%s", id,
		strconv.FormatFloat(snap.WindowStart, 'f', 3, 64),
		strconv.FormatFloat(snap.WindowEnd, 'f', 3, 64), ext)
	return filepath.Join(e.dir, name)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func check(snap playback.Snapshot) error {
	if snap.FileID == "" {
		return playback.ErrNoFile
	}
	if len(snap.VisibleTime) == 0 || len(snap.Channels) == 0 {
		return fmt.Errorf("nothing visible to export")
	}
	return nil
}

// CSV writes the visible samples as time plus one column per visible channel
func (e *Exporter) CSV(snap playback.Snapshot) (*Info, error) {
	if err := check(snap); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, err
	}

	path := e.path(snap, "csv")
	outFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	defer outFile.Close()

	w := csv.NewWriter(outFile)
	header := append([]string{"time"}, snap.Channels...)
	if err := w.Write(header); err != nil {
		os.Remove(path)
		return nil, err
	}

	row := make([]string, len(header))
	for i, t := range snap.VisibleTime {
		row[0] = strconv.FormatFloat(t, 'f', -1, 64)
		for j, name := range snap.Channels {
			row[j+1] = strconv.FormatFloat(snap.VisibleSignals[name][i], 'f', -1, 64)
		}
		if err := w.Write(row); err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		os.Remove(path)
		return nil, err
	}

	return e.info(snap, path), nil
}

// PNG renders the visible window as a line chart
func (e *Exporter) PNG(snap playback.Snapshot) (*Info, error) {
	if err := check(snap); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, err
	}

	series := make([]chart.Series, 0, len(snap.Channels))
	for i, name := range snap.Channels {
		xs, ys := snap.VisibleTime, snap.VisibleSignals[name]
		if len(xs) == 1 {
			// a single point has no x range
			xs = []float64{xs[0], xs[0] + 1e-3}
			ys = []float64{ys[0], ys[0]}
		}
		st := chart.Style{StrokeWidth: 1.5}
		if len(e.colors) > 0 {
			st.StrokeColor = e.colors[i%len(e.colors)]
		}
		series = append(series, chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: st})
	}

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s  %s – %s", snap.FileID, timecol.FormatSeconds(snap.WindowStart), timecol.FormatSeconds(snap.WindowEnd)),
		Width:      e.width,
		Height:     e.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name: "time (s)",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return strconv.FormatFloat(f, 'f', 2, 64)
				}
				return ""
			},
		},
		YAxis:  chart.YAxis{Name: "value"},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	path := e.path(snap, "png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write chart: %w", err)
	}
	return e.info(snap, path), nil
}

func (e *Exporter) info(snap playback.Snapshot, path string) *Info {
	return &Info{
		FileID:   snap.FileID,
		Path:     path,
		Start:    snap.WindowStart,
		End:      snap.WindowEnd,
		Samples:  len(snap.VisibleTime),
		Channels: append([]string(nil), snap.Channels...),
		Written:  time.Now(),
	}
}
