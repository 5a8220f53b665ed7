package playback

// ValueRange is the smallest and largest sample of a channel in the window
type ValueRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Snapshot is a read-only view of the controller for the rendering layer.
// Slices are copies; consumers may keep them but must not expect updates.
type Snapshot struct {
	FileID         string                `json:"file_id"`
	State          string                `json:"state"`
	Channels       []string              `json:"channels"`
	VisibleTime    []float64             `json:"time"`
	VisibleSignals map[string][]float64  `json:"signals"`
	Ranges         map[string]ValueRange `json:"ranges"`
	WindowStart    float64               `json:"window_start"`
	WindowEnd      float64               `json:"window_end"`
	WindowSize     float64               `json:"window_size"`
	Frontier       float64               `json:"frontier"`
	IsPlaying      bool                  `json:"is_playing"`
	Speed          float64               `json:"speed"`
	WindowMode     string                `json:"window_mode"`
	LoadedFraction float64               `json:"loaded_fraction"`
	Pages          int                   `json:"pages"`
	Samples        int                   `json:"samples"`
	Exhausted      bool                  `json:"exhausted"`
	Fetching       bool                  `json:"fetching"`
	LastError      string                `json:"last_error,omitempty"`
}

// Snapshot copies the visible slice of the buffer
func (c *Controller) Snapshot() Snapshot {
	start, end := c.window()
	channels := c.VisibleChannels()
	t, signals := c.buffer.Window(start, end, channels)
	frontier, _ := c.buffer.Frontier()

	lo, hi := c.buffer.Range(start, end)
	ranges := make(map[string]ValueRange, len(channels))
	for _, name := range channels {
		if minV, maxV, ok := c.buffer.MinMax(name, lo, hi); ok {
			ranges[name] = ValueRange{Min: minV, Max: maxV}
		}
	}

	snap := Snapshot{
		FileID:         c.fileID,
		State:          c.state.String(),
		Channels:       channels,
		VisibleTime:    t,
		VisibleSignals: signals,
		Ranges:         ranges,
		WindowStart:    start,
		WindowEnd:      end,
		WindowSize:     c.cursor.Size,
		Frontier:       frontier,
		IsPlaying:      c.cursor.Playing,
		Speed:          c.cursor.Speed,
		WindowMode:     c.opts.WindowMode.String(),
		LoadedFraction: c.LoadedFraction(),
		Pages:          c.pages,
		Samples:        c.buffer.Len(),
		Exhausted:      c.exhausted,
		Fetching:       c.busy,
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}
	return snap
}

// LoadedFraction estimates how much of the recording is buffered, in [0, 1].
// It is 1 once the source is exhausted and 0 while the length is unknown.
func (c *Controller) LoadedFraction() float64 {
	if c.exhausted && !c.buffer.Empty() {
		return 1
	}
	if c.expectedDuration <= 0 {
		return 0
	}
	origin, ok := c.buffer.Origin()
	if !ok {
		return 0
	}
	frontier, _ := c.buffer.Frontier()
	f := (frontier - origin) / c.expectedDuration
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
