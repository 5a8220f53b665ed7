package playback

// Cursor is the playhead over the buffer.
// Position is the leading edge of the visible window in seconds.
type Cursor struct {
	Position float64
	Size     float64
	Playing  bool
	Speed    float64
}

// Window returns the visible range for the given anchoring mode.
// The result always satisfies end >= start.
func (c Cursor) Window(origin float64, mode WindowMode) (float64, float64) {
	end := c.Position
	start := origin
	if mode == WindowFixed {
		start = end - c.Size
		if start < origin {
			start = origin
		}
	}
	if end < start {
		end = start
	}
	return start, end
}
