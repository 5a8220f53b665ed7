package source

import (
	"context"
	"path"
	"strings"

	"github.com/TimelordUK/sigview/internal/series"
)

// FilteredSource wraps a PageSource and keeps only the channels matching a
// set of patterns. Patterns use path.Match syntax, e.g. "Fp*" or "ch[1-4]".
// With no patterns every channel passes through.
type FilteredSource struct {
	source   PageSource
	patterns []string
}

// NewFilteredSource creates a filtered source. Empty patterns are ignored.
func NewFilteredSource(src PageSource, patterns []string) *FilteredSource {
	f := &FilteredSource{source: src}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			f.patterns = append(f.patterns, p)
		}
	}
	return f
}

// IsFiltered reports whether any pattern is active
func (f *FilteredSource) IsFiltered() bool {
	return len(f.patterns) > 0
}

// Patterns returns the active patterns
func (f *FilteredSource) Patterns() []string {
	return append([]string(nil), f.patterns...)
}

// Matches reports whether channel passes the filter
func (f *FilteredSource) Matches(channel string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, p := range f.patterns {
		if ok, err := path.Match(p, channel); err == nil && ok {
			return true
		}
		if strings.EqualFold(p, channel) {
			return true
		}
	}
	return false
}

// FetchPage implements PageSource. A page whose channels all fail the filter
// keeps its time axis, so it reads as malformed rather than end of data.
func (f *FilteredSource) FetchPage(ctx context.Context, fileID string, page, limit int) (*series.Page, error) {
	p, err := f.source.FetchPage(ctx, fileID, page, limit)
	if err != nil || p == nil || len(f.patterns) == 0 {
		return p, err
	}

	kept := make(map[string][]float64, len(p.Signals))
	for name, values := range p.Signals {
		if f.Matches(name) {
			kept[name] = values
		}
	}
	return &series.Page{Time: p.Time, Signals: kept}, nil
}
