package playback

// Ledger records page numbers that have been requested.
// A page is marked before its request is issued and released only if the
// request fails, so a page that succeeded is never requested again.
type Ledger struct {
	requested map[int]struct{}
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{requested: make(map[int]struct{})}
}

// Mark records page as requested. It returns false if it already was.
func (l *Ledger) Mark(page int) bool {
	if _, ok := l.requested[page]; ok {
		return false
	}
	l.requested[page] = struct{}{}
	return true
}

// Release forgets page so it can be requested again
func (l *Ledger) Release(page int) {
	delete(l.requested, page)
}

// Has reports whether page has been requested
func (l *Ledger) Has(page int) bool {
	_, ok := l.requested[page]
	return ok
}

// Len returns the number of recorded pages
func (l *Ledger) Len() int {
	return len(l.requested)
}

// Reset forgets every page
func (l *Ledger) Reset() {
	l.requested = make(map[int]struct{})
}
