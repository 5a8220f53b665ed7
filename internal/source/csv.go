package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/TimelordUK/sigview/internal/index"
	sigio "github.com/TimelordUK/sigview/internal/io"
	"github.com/TimelordUK/sigview/internal/series"
	"github.com/TimelordUK/sigview/pkg/timecol"
)

// ErrUnknownFile is returned when a file id does not name the open recording
var ErrUnknownFile = errors.New("unknown file id")

// CSVSource serves pages from a local recording: a header row, a time column
// and one numeric column per channel. Page n holds rows [(n-1)*limit, n*limit).
// Rows appended by a recorder after opening are picked up when paging
// reaches the end of what has been indexed.
type CSVSource struct {
	mu       sync.Mutex
	id       string
	file     *sigio.MappedFile
	rows     *index.RowIndex
	timeCol  int
	channels []string
	columns  []int
	parser   *timecol.Parser
	logger   *slog.Logger
}

// NewCSVSource maps path and indexes its rows
func NewCSVSource(path string, logger *slog.Logger) (*CSVSource, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	file, err := sigio.OpenMapped(path)
	if err != nil {
		return nil, err
	}
	rows, err := index.BuildRowIndex(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	s := &CSVSource{
		id:     filepath.Base(path),
		file:   file,
		rows:   rows,
		parser: timecol.NewParser(),
		logger: logger.With("component", "csv-source", "file", filepath.Base(path)),
	}
	if err := s.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// seed the parser so absolute timestamps are relative to the first row
	if first, err := rows.Row(0); err == nil && first != nil {
		if fields, err := splitRow(first); err == nil && s.timeCol < len(fields) {
			s.parser.Seconds(fields[s.timeCol])
		}
	}

	s.logger.Info("recording indexed", "rows", rows.RowCount(), "channels", len(s.channels))
	return s, nil
}

func (s *CSVSource) readHeader() error {
	head, err := s.rows.Header()
	if err != nil {
		return err
	}
	if head == nil {
		return errors.New("missing header row")
	}
	fields, err := splitRow(head)
	if err != nil {
		return fmt.Errorf("header: %w", err)
	}

	s.timeCol = 0
	for i, name := range fields {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "timestamp", "date", "t":
			s.timeCol = i
		}
	}
	for i, name := range fields {
		if i == s.timeCol {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("ch%d", i)
		}
		s.channels = append(s.channels, name)
		s.columns = append(s.columns, i)
	}
	if len(s.channels) == 0 {
		return errors.New("no signal columns")
	}
	return nil
}

func splitRow(line []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(line))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.Read()
}

// ID returns the file id this source answers to
func (s *CSVSource) ID() string {
	return s.id
}

// Channels returns the channel names in column order
func (s *CSVSource) Channels() []string {
	return append([]string(nil), s.channels...)
}

// RowCount returns the number of indexed rows
func (s *CSVSource) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows.RowCount()
}

// Duration returns the time span between the first and last indexed rows
func (s *CSVSource) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.rows.RowCount()
	if n < 2 {
		return 0
	}
	first, ok1 := s.rowTime(0)
	last, ok2 := s.rowTime(n - 1)
	if !ok1 || !ok2 || last < first {
		return 0
	}
	return last - first
}

func (s *CSVSource) rowTime(n int) (float64, bool) {
	line, err := s.rows.Row(n)
	if err != nil || line == nil {
		return 0, false
	}
	fields, err := splitRow(line)
	if err != nil || s.timeCol >= len(fields) {
		return 0, false
	}
	return s.parser.Seconds(fields[s.timeCol])
}

// FetchPage implements PageSource
func (s *CSVSource) FetchPage(ctx context.Context, fileID string, page, limit int) (*series.Page, error) {
	if fileID != s.id {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFile, fileID)
	}
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("invalid page %d limit %d", page, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := (page - 1) * limit
	if start+limit > s.rows.RowCount() {
		s.refresh()
	}

	lines, err := s.rows.Rows(start, limit)
	if err != nil {
		return nil, err
	}

	p := &series.Page{
		Time:    make([]float64, 0, len(lines)),
		Signals: make(map[string][]float64, len(s.channels)),
	}
	for _, name := range s.channels {
		p.Signals[name] = make([]float64, 0, len(lines))
	}

	skipped := 0
	for _, line := range lines {
		t, values, ok := s.parseRow(line)
		if !ok || (len(p.Time) > 0 && t <= p.Time[len(p.Time)-1]) {
			skipped++
			continue
		}
		p.Time = append(p.Time, t)
		for i, name := range s.channels {
			p.Signals[name] = append(p.Signals[name], values[i])
		}
	}
	if skipped > 0 {
		s.logger.Warn("skipped unreadable rows", "page", page, "rows", skipped)
	}
	return p, nil
}

func (s *CSVSource) parseRow(line []byte) (float64, []float64, bool) {
	fields, err := splitRow(line)
	if err != nil || s.timeCol >= len(fields) {
		return 0, nil, false
	}
	t, ok := s.parser.Seconds(fields[s.timeCol])
	if !ok {
		return 0, nil, false
	}
	values := make([]float64, len(s.columns))
	for i, col := range s.columns {
		if col >= len(fields) {
			return 0, nil, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[col]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, nil, false
		}
		values[i] = v
	}
	return t, values, true
}

// refresh indexes rows a recorder appended since the last look
func (s *CSVSource) refresh() {
	changed, err := s.file.Refresh()
	if err != nil {
		s.logger.Warn("refresh failed", "err", err)
		return
	}
	if !changed {
		return
	}
	added, err := s.rows.AppendNewRows()
	if err != nil {
		s.logger.Warn("indexing appended rows failed", "err", err)
		return
	}
	s.logger.Debug("indexed appended rows", "rows", added, "from", s.file.PreviousSize())
}

// Close unmaps the recording
func (s *CSVSource) Close() error {
	return s.file.Close()
}
