package series

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedPage is returned when a page payload cannot be merged
var ErrMalformedPage = errors.New("malformed page")

// Page is one bounded-size response fragment of a larger time series
type Page struct {
	Time    []float64            `json:"time"`
	Signals map[string][]float64 `json:"signals"`
}

// Len returns the number of samples in the page
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Time)
}

// Empty reports whether the page carries no samples
func (p *Page) Empty() bool {
	return p.Len() == 0
}

// ChannelNames returns the page channel names in sorted order
func (p *Page) ChannelNames() []string {
	names := make([]string, 0, len(p.Signals))
	for name := range p.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the page against the wire contract: a time array, a
// signals object with at least one channel when there are samples, equal
// lengths and strictly increasing timestamps.
func (p *Page) Validate() error {
	if p == nil || p.Time == nil {
		return fmt.Errorf("%w: missing time", ErrMalformedPage)
	}
	if p.Signals == nil {
		return fmt.Errorf("%w: missing signals", ErrMalformedPage)
	}
	if len(p.Time) > 0 && len(p.Signals) == 0 {
		return fmt.Errorf("%w: samples without channels", ErrMalformedPage)
	}
	for name, samples := range p.Signals {
		if name == "" {
			return fmt.Errorf("%w: empty channel name", ErrMalformedPage)
		}
		if len(samples) != len(p.Time) {
			return fmt.Errorf("%w: channel %q has %d samples, time has %d",
				ErrMalformedPage, name, len(samples), len(p.Time))
		}
	}
	for i := 1; i < len(p.Time); i++ {
		if p.Time[i] <= p.Time[i-1] {
			return fmt.Errorf("%w: time not increasing at index %d", ErrMalformedPage, i)
		}
	}
	return nil
}
