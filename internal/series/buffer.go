package series

import (
	"fmt"
	"math"
	"sort"
)

// Buffer is an append-only multi-channel time series.
// Time is strictly increasing and every channel has exactly len(Time) samples.
type Buffer struct {
	time     []float64
	channels map[string][]float64
	names    []string // channel order, fixed by the first page with samples
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{
		channels: make(map[string][]float64),
	}
}

// Len returns the number of buffered samples
func (b *Buffer) Len() int {
	return len(b.time)
}

// Empty reports whether nothing has been merged yet
func (b *Buffer) Empty() bool {
	return len(b.time) == 0
}

// Channels returns the channel names in display order
func (b *Buffer) Channels() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// HasChannel reports whether the buffer holds the named channel
func (b *Buffer) HasChannel(name string) bool {
	_, ok := b.channels[name]
	return ok
}

// Frontier returns the latest buffered timestamp
func (b *Buffer) Frontier() (float64, bool) {
	if len(b.time) == 0 {
		return 0, false
	}
	return b.time[len(b.time)-1], true
}

// Origin returns the first buffered timestamp
func (b *Buffer) Origin() (float64, bool) {
	if len(b.time) == 0 {
		return 0, false
	}
	return b.time[0], true
}

// Sample returns the sample of a channel at index i.
// The second result is false when the channel is unknown or i is out of range;
// callers choose their own fallback.
func (b *Buffer) Sample(channel string, i int) (float64, bool) {
	samples, ok := b.channels[channel]
	if !ok || i < 0 || i >= len(samples) {
		return 0, false
	}
	return samples[i], true
}

// Merge appends the part of page that lies strictly after the frontier.
// A page whose timestamps are all at or before the frontier is a no-op.
// It returns the number of samples appended.
func (b *Buffer) Merge(p *Page) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Empty() {
		return 0, nil
	}

	// the channel set is fixed once any sample is buffered
	if len(b.time) > 0 {
		if len(p.Signals) != len(b.names) {
			return 0, fmt.Errorf("%w: page has %d channels, buffer has %d",
				ErrMalformedPage, len(p.Signals), len(b.names))
		}
		for _, name := range b.names {
			if _, ok := p.Signals[name]; !ok {
				return 0, fmt.Errorf("%w: page is missing channel %q", ErrMalformedPage, name)
			}
		}
	}

	start := 0
	if last, ok := b.Frontier(); ok {
		start = sort.Search(len(p.Time), func(i int) bool {
			return p.Time[i] > last
		})
		if start == len(p.Time) {
			return 0, nil
		}
	}

	if len(b.time) == 0 {
		b.names = p.ChannelNames()
	}

	b.time = append(b.time, p.Time[start:]...)
	for _, name := range b.names {
		b.channels[name] = append(b.channels[name], p.Signals[name][start:]...)
	}
	return len(p.Time) - start, nil
}

// Range returns the index range [lo, hi) of samples with start <= t <= end
func (b *Buffer) Range(start, end float64) (int, int) {
	lo := sort.SearchFloat64s(b.time, start)
	hi := sort.Search(len(b.time), func(i int) bool {
		return b.time[i] > end
	})
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Window copies the samples with start <= t <= end for the given channels.
// Unknown channels are skipped.
func (b *Buffer) Window(start, end float64, channels []string) ([]float64, map[string][]float64) {
	lo, hi := b.Range(start, end)

	t := make([]float64, hi-lo)
	copy(t, b.time[lo:hi])

	signals := make(map[string][]float64, len(channels))
	for _, name := range channels {
		samples, ok := b.channels[name]
		if !ok {
			continue
		}
		s := make([]float64, hi-lo)
		copy(s, samples[lo:hi])
		signals[name] = s
	}
	return t, signals
}

// MinMax returns the value range of a channel over indices [lo, hi).
// The last result is false when the range holds no samples.
func (b *Buffer) MinMax(channel string, lo, hi int) (float64, float64, bool) {
	samples, ok := b.channels[channel]
	if !ok {
		return 0, 0, false
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(samples) {
		hi = len(samples)
	}
	if lo >= hi {
		return 0, 0, false
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range samples[lo:hi] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV, true
}
