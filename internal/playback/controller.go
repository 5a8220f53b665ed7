package playback

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/TimelordUK/sigview/internal/series"
	"github.com/TimelordUK/sigview/internal/source"
)

// ErrNoFile is reported when an operation needs a loaded file
var ErrNoFile = errors.New("no file loaded")

// State is the controller lifecycle state
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	default:
		return "idle"
	}
}

// Fetch performs one page request. It is the only part of the controller
// that may block and must not touch controller state.
type Fetch func(ctx context.Context) Result

// Result is the outcome of a Fetch, tagged with the file it was issued for
type Result struct {
	FileID     string
	Generation uint64
	Page       int
	Data       *series.Page
	Err        error
}

// Controller loads a remote time series page by page and moves a playback
// window over what has arrived. It is not safe for concurrent use: every
// method must be called from the same goroutine, with Fetch closures run
// elsewhere and their Results handed back through HandleResult.
type Controller struct {
	opts   Options
	source source.PageSource
	logger *slog.Logger

	fileID     string
	generation uint64
	state      State

	buffer    *series.Buffer
	ledger    *Ledger
	nextPage  int
	busy      bool
	exhausted bool
	pages     int

	cursor    Cursor
	remainder time.Duration

	expectedDuration float64
	hidden           map[string]bool
	lastErr          error
}

// NewController creates an idle controller
func NewController(src source.PageSource, opts Options, logger *slog.Logger) (*Controller, error) {
	if src == nil {
		return nil, errors.New("nil page source")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		opts:   opts,
		source: src,
		logger: logger.With("component", "playback"),
		buffer: series.NewBuffer(),
		ledger: NewLedger(),
		hidden: make(map[string]bool),
		cursor: Cursor{Size: opts.WindowSize, Speed: 1},
	}
	c.cursor.Position = c.cursor.Size
	return c, nil
}

// LoadFile discards everything known about the previous file and returns the
// fetch for page 1. Results still in flight for the previous file are
// ignored when they arrive.
func (c *Controller) LoadFile(fileID string) Fetch {
	c.generation++
	c.fileID = fileID
	c.buffer = series.NewBuffer()
	c.ledger.Reset()
	c.nextPage = 1
	c.busy = false
	c.exhausted = false
	c.pages = 0
	c.lastErr = nil
	c.remainder = 0
	c.expectedDuration = 0
	c.hidden = make(map[string]bool)
	c.cursor = Cursor{Size: c.cursor.Size, Speed: c.cursor.Speed}
	c.cursor.Position = c.cursor.Size

	if fileID == "" {
		c.state = StateIdle
		return nil
	}

	c.state = StateLoading
	c.logger.Info("loading file", "file", fileID, "generation", c.generation)
	return c.FetchNextPage()
}

// FetchNextPage returns the fetch for the next page, or nil when no file is
// loaded, a fetch is already in flight, the source is exhausted or the page
// has already been requested.
func (c *Controller) FetchNextPage() Fetch {
	if c.fileID == "" || c.busy || c.exhausted {
		return nil
	}
	page := c.nextPage
	if !c.ledger.Mark(page) {
		return nil
	}
	c.busy = true

	src := c.source
	fileID, gen, limit, timeout := c.fileID, c.generation, c.opts.PageLimit, c.opts.FetchTimeout
	c.logger.Debug("fetching page", "file", fileID, "page", page, "limit", limit)

	return func(ctx context.Context) Result {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		data, err := src.FetchPage(ctx, fileID, page, limit)
		return Result{FileID: fileID, Generation: gen, Page: page, Data: data, Err: err}
	}
}

// HandleResult merges a finished fetch into the buffer and returns the next
// prefetch, if one is due. Failures are logged and the page is released for
// a later retry; they never change the playback state.
func (c *Controller) HandleResult(r Result) Fetch {
	if r.Generation != c.generation || r.FileID != c.fileID {
		c.logger.Debug("dropping stale page", "file", r.FileID, "page", r.Page,
			"generation", r.Generation, "current", c.generation)
		return nil
	}
	c.busy = false

	if r.Err != nil {
		c.ledger.Release(r.Page)
		c.lastErr = r.Err
		c.logger.Warn("page fetch failed", "file", r.FileID, "page", r.Page, "err", r.Err)
		return nil
	}
	c.lastErr = nil

	if err := r.Data.Validate(); err != nil {
		c.logger.Warn("skipping malformed page", "file", r.FileID, "page", r.Page, "err", err)
		c.nextPage++
		return c.prefetch()
	}

	if r.Data.Empty() {
		c.exhausted = true
		c.logger.Info("end of data", "file", r.FileID, "page", r.Page, "samples", c.buffer.Len())
		return nil
	}

	appended, err := c.buffer.Merge(r.Data)
	if err != nil {
		c.logger.Warn("skipping malformed page", "file", r.FileID, "page", r.Page, "err", err)
	} else if appended == 0 {
		c.logger.Debug("page already buffered", "file", r.FileID, "page", r.Page)
	} else {
		c.pages++
	}
	c.nextPage++

	if c.state == StateLoading && !c.buffer.Empty() {
		origin, _ := c.buffer.Origin()
		c.cursor.Position = origin + c.cursor.Size
		c.state = StateReady
	}
	return c.prefetch()
}

// Prefetch runs the lookahead check on demand, e.g. after a failed page
func (c *Controller) Prefetch() Fetch {
	return c.prefetch()
}

// prefetch requests the next page when the window end is within the
// lookahead margin of the frontier, or when nothing has arrived yet.
func (c *Controller) prefetch() Fetch {
	frontier, ok := c.buffer.Frontier()
	if !ok {
		return c.FetchNextPage()
	}
	_, end := c.window()
	if end > frontier-c.opts.Lookahead {
		return c.FetchNextPage()
	}
	return nil
}

// Advance moves the playhead by the ticks contained in elapsed. When the
// playhead would pass the frontier it stops exactly there and playback
// pauses. It returns the prefetch due after the move.
func (c *Controller) Advance(elapsed time.Duration) Fetch {
	if c.state != StatePlaying {
		return nil
	}

	c.remainder += elapsed
	ticks := c.remainder / c.opts.TickInterval
	c.remainder -= ticks * c.opts.TickInterval
	if ticks > 0 {
		step := c.opts.BaseStep * c.opts.StepScale * c.cursor.Speed * float64(ticks)
		candidate := c.cursor.Position + step

		frontier, _ := c.buffer.Frontier()
		if candidate > frontier {
			c.cursor.Position = frontier
			c.stop()
			c.logger.Debug("playback reached frontier", "frontier", frontier, "exhausted", c.exhausted)
		} else {
			c.cursor.Position = candidate
		}
	}
	return c.prefetch()
}

// Seek moves the playhead to position, pausing playback. Positions past the
// frontier are allowed and trigger a prefetch; non-finite positions are ignored.
func (c *Controller) Seek(position float64) Fetch {
	if c.fileID == "" || math.IsNaN(position) || math.IsInf(position, 0) {
		return nil
	}
	origin, _ := c.buffer.Origin()
	if position < origin {
		position = origin
	}
	c.cursor.Position = position
	c.Pause()
	return c.prefetch()
}

// Play starts playback. It only succeeds from Ready with data buffered and
// the playhead short of the frontier.
func (c *Controller) Play() bool {
	if c.state != StateReady {
		return false
	}
	frontier, ok := c.buffer.Frontier()
	if !ok || c.cursor.Position >= frontier {
		return false
	}
	c.state = StatePlaying
	c.cursor.Playing = true
	c.remainder = 0
	return true
}

// Pause stops playback, if playing
func (c *Controller) Pause() {
	if c.state == StatePlaying {
		c.stop()
	}
}

// Toggle flips between playing and paused and reports whether it is playing
func (c *Controller) Toggle() bool {
	if c.state == StatePlaying {
		c.Pause()
		return false
	}
	return c.Play()
}

func (c *Controller) stop() {
	c.state = StateReady
	c.cursor.Playing = false
	c.remainder = 0
}

// SetSpeed sets the playback multiplier
func (c *Controller) SetSpeed(speed float64) error {
	if !(speed > 0) || math.IsInf(speed, 1) {
		return ErrInvalidSpeed
	}
	c.cursor.Speed = speed
	return nil
}

// SetWindowSize sets the visible span in seconds, keeping the playhead
func (c *Controller) SetWindowSize(size float64) error {
	if !(size > 0) {
		return ErrInvalidWindow
	}
	c.cursor.Size = clampSize(size)
	return nil
}

// SetWindowMode switches between fixed and cumulative anchoring
func (c *Controller) SetWindowMode(mode WindowMode) Fetch {
	c.opts.WindowMode = mode
	return c.prefetch()
}

// SetExpectedDuration records the recording length reported by the backend
func (c *Controller) SetExpectedDuration(seconds float64) {
	if seconds > 0 {
		c.expectedDuration = seconds
	}
}

// Zoom shrinks (in) or grows the window around its centre
func (c *Controller) Zoom(in bool) Fetch {
	factor := 1.25
	if in {
		factor = 0.8
	}
	start, end := c.window()
	centre := start + (end-start)/2
	size := clampSize(c.cursor.Size * factor)

	c.cursor.Size = size
	if c.opts.WindowMode == WindowFixed {
		c.cursor.Position = centre + size/2
	}
	origin, _ := c.buffer.Origin()
	if c.cursor.Position < origin+size && c.opts.WindowMode == WindowFixed {
		c.cursor.Position = origin + size
	}
	return c.prefetch()
}

// Pan shifts the window by a fifth of its size; dir < 0 pans backwards
func (c *Controller) Pan(dir int) Fetch {
	if dir == 0 || c.fileID == "" {
		return nil
	}
	shift := c.cursor.Size * 0.2
	if dir < 0 {
		shift = -shift
	}
	origin, _ := c.buffer.Origin()
	pos := c.cursor.Position + shift
	if pos < origin+c.cursor.Size {
		pos = origin + c.cursor.Size
	}
	c.cursor.Position = pos
	c.Pause()
	return c.prefetch()
}

// ToggleChannel hides or shows a channel and reports whether it is visible.
// Channels the buffer does not hold are never visible.
func (c *Controller) ToggleChannel(name string) bool {
	if !c.buffer.HasChannel(name) {
		return false
	}
	if c.hidden[name] {
		delete(c.hidden, name)
		return true
	}
	c.hidden[name] = true
	return false
}

// ShowAllChannels makes every channel visible
func (c *Controller) ShowAllChannels() {
	c.hidden = make(map[string]bool)
}

// VisibleChannels returns the channels that are not hidden, in display order
func (c *Controller) VisibleChannels() []string {
	all := c.buffer.Channels()
	out := all[:0]
	for _, name := range all {
		if !c.hidden[name] {
			out = append(out, name)
		}
	}
	return out
}

func (c *Controller) window() (float64, float64) {
	origin, _ := c.buffer.Origin()
	return c.cursor.Window(origin, c.opts.WindowMode)
}

func clampSize(size float64) float64 {
	if size < minWindowSize {
		return minWindowSize
	}
	if size > maxWindowSize {
		return maxWindowSize
	}
	return size
}

// State returns the lifecycle state
func (c *Controller) State() State { return c.state }

// FileID returns the active file id
func (c *Controller) FileID() string { return c.fileID }

// Cursor returns a copy of the playhead
func (c *Controller) Cursor() Cursor { return c.cursor }

// Buffer exposes the buffer for read-only use by exporters
func (c *Controller) Buffer() *series.Buffer { return c.buffer }

// Busy reports whether a fetch is in flight
func (c *Controller) Busy() bool { return c.busy }

// Exhausted reports whether the source has signalled the end of data
func (c *Controller) Exhausted() bool { return c.exhausted }

// NextPage returns the next page number to request
func (c *Controller) NextPage() int { return c.nextPage }

// Options returns the controller options
func (c *Controller) Options() Options { return c.opts }

// LastError returns the most recent fetch error, cleared by the next success
func (c *Controller) LastError() error { return c.lastErr }
