// Package timecol converts the time column of a recording into seconds.
package timecol

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser turns time cells into seconds. Plain numbers are taken as seconds.
// Absolute timestamps (unix or calendar) are returned relative to the first
// absolute timestamp the parser has seen, so a market series starts at 0.
type Parser struct {
	patterns []timePattern
	base     time.Time
	hasBase  bool
}

type timePattern struct {
	regex  *regexp.Regexp
	layout string
}

// NewParser creates a parser with the timestamp formats recordings use
func NewParser() *Parser {
	return &Parser{
		patterns: []timePattern{
			// 1705315845
			{regex: regexp.MustCompile(`^\d{10}$`), layout: "unix"},
			// 1705315845123
			{regex: regexp.MustCompile(`^\d{13}$`), layout: "unix_ms"},
			// 2024-01-15T10:30:45.123Z
			{regex: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`), layout: time.RFC3339Nano},
			// 2024-01-15 10:30:45.123
			{regex: regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d+$`), layout: "2006-01-02 15:04:05.999999999"},
			// 2024-01-15 10:30:45
			{regex: regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`), layout: "2006-01-02 15:04:05"},
			// 2024-01-15
			{regex: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), layout: "2006-01-02"},
		},
	}
}

// Seconds parses one time cell. It reports false for cells it cannot read.
func (p *Parser) Seconds(cell string) (float64, bool) {
	cell = strings.Trim(strings.TrimSpace(cell), `"`)
	if cell == "" {
		return 0, false
	}

	for _, pattern := range p.patterns {
		if !pattern.regex.MatchString(cell) {
			continue
		}
		t, ok := parseLayout(pattern.layout, cell)
		if !ok {
			continue
		}
		return p.relative(t), true
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Base returns the first absolute timestamp seen
func (p *Parser) Base() (time.Time, bool) {
	return p.base, p.hasBase
}

func (p *Parser) relative(t time.Time) float64 {
	if !p.hasBase {
		p.base = t
		p.hasBase = true
	}
	return t.Sub(p.base).Seconds()
}

func parseLayout(layout, s string) (time.Time, bool) {
	switch layout {
	case "unix", "unix_ms":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		if layout == "unix" {
			return time.Unix(n, 0).UTC(), true
		}
		return time.UnixMilli(n).UTC(), true
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatSeconds formats a playhead position as mm:ss.mmm
func FormatSeconds(s float64) string {
	sign := ""
	if s < 0 {
		sign = "-"
		s = -s
	}
	ms := int64(math.Round(s * 1000))
	return fmt.Sprintf("%s%02d:%02d.%03d", sign, ms/60000, (ms/1000)%60, ms%1000)
}
