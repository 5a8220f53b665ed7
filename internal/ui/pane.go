package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/sigview/internal/config"
	"github.com/TimelordUK/sigview/internal/playback"
	"github.com/TimelordUK/sigview/internal/render"
	"github.com/TimelordUK/sigview/internal/source"
	"github.com/TimelordUK/sigview/internal/view"
)

// metaWidth is the width of the metadata side panel
const metaWidth = 38

// Pane is the view of one recording: its playback controller, the chart
// viewport and whatever the backend reported about it on upload
type Pane struct {
	controller *playback.Controller
	viewport   *view.Viewport
	meta       *render.MetaRenderer
	config     *config.Config

	upload   *source.UploadResult
	showMeta bool
}

// NewPane creates a pane around ctrl
func NewPane(cfg *config.Config, ctrl *playback.Controller) *Pane {
	viewport := view.NewViewport(80, 24)
	viewport.SetPalette(render.NewPalette(cfg.Theme))
	viewport.SetShowAxis(cfg.Display.ShowAxis)
	viewport.SetXOR(cfg.Display.XORChunk, cfg.Display.XORTolerance, cfg.Display.XORBaseline)
	if mode, err := view.ParseMode(cfg.Display.ViewMode); err == nil {
		viewport.SetMode(mode)
	}

	return &Pane{
		controller: ctrl,
		viewport:   viewport,
		meta:       render.NewMetaRenderer(cfg.Theme.Syntax),
		config:     cfg,
		showMeta:   cfg.Display.ShowMeta,
	}
}

// Controller returns the pane's playback controller
func (p *Pane) Controller() *playback.Controller {
	return p.controller
}

// Viewport returns the pane's viewport
func (p *Pane) Viewport() *view.Viewport {
	return p.viewport
}

// Load switches the pane to fileID. A matching upload result supplies the
// expected duration.
func (p *Pane) Load(fileID string, expectedDuration float64) playback.Fetch {
	f := p.controller.LoadFile(fileID)
	if p.upload != nil && p.upload.FileID == fileID && p.upload.Features.Duration > 0 {
		expectedDuration = p.upload.Features.Duration
	}
	p.controller.SetExpectedDuration(expectedDuration)
	return f
}

// SetUpload records the backend analysis for the next Load
func (p *Pane) SetUpload(res *source.UploadResult) {
	p.upload = res
}

// Upload returns the last upload result, if any
func (p *Pane) Upload() *source.UploadResult {
	return p.upload
}

// ToggleMeta shows or hides the metadata panel
func (p *Pane) ToggleMeta() bool {
	p.showMeta = !p.showMeta
	return p.showMeta
}

// MetaVisible reports whether the metadata panel is drawn
func (p *Pane) MetaVisible() bool {
	return p.showMeta && p.upload != nil
}

// Render draws the chart and, if enabled, the metadata panel
func (p *Pane) Render(width, height int) string {
	snap := p.controller.Snapshot()
	if !p.MetaVisible() || width < metaWidth*2 {
		p.viewport.SetSize(width, height)
		return p.viewport.Render(snap)
	}

	p.viewport.SetSize(width-metaWidth, height)
	panel := p.meta.Panel("Analysis", map[string]interface{}{
		"features":    p.upload.Features,
		"predictions": p.upload.Predictions,
	}, metaWidth, height)
	panel = lipgloss.NewStyle().MaxHeight(height).Render(panel)
	return lipgloss.JoinHorizontal(lipgloss.Top, p.viewport.Render(snap), panel)
}

// ToggleChannelAt hides or shows the n-th channel (1-based) of the recording
func (p *Pane) ToggleChannelAt(n int) (string, bool, bool) {
	channels := p.controller.Buffer().Channels()
	if n < 1 || n > len(channels) {
		return "", false, false
	}
	name := channels[n-1]
	return name, p.controller.ToggleChannel(name), true
}

// ParseSeek turns a seek reference into a playhead position. Accepted forms:
// "." (current), "$" (frontier), "^" (start), "+N"/"-N" seconds relative to
// the playhead, "$-N" relative to the frontier, "mm:ss[.mmm]" and plain
// seconds.
func (p *Pane) ParseSeek(ref string) (float64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("empty position")
	}

	cur := p.controller.Cursor().Position
	origin, _ := p.controller.Buffer().Origin()
	frontier, hasData := p.controller.Buffer().Frontier()

	switch {
	case ref == ".":
		return cur, nil
	case ref == "^":
		return origin, nil
	case strings.HasPrefix(ref, "$"):
		if !hasData {
			return 0, fmt.Errorf("no data loaded")
		}
		if ref == "$" {
			return frontier, nil
		}
		off, err := parseSeconds(ref[1:])
		if err != nil {
			return 0, err
		}
		return frontier + off, nil
	case strings.HasPrefix(ref, "+"), strings.HasPrefix(ref, "-"):
		off, err := parseSeconds(ref)
		if err != nil {
			return 0, err
		}
		return cur + off, nil
	}

	return parseSeconds(ref)
}

// parseSeconds reads "12.5", "-3" or "mm:ss[.mmm]"
func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	sign := 1.0
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(mins)
		if err != nil || m < 0 {
			return 0, fmt.Errorf("invalid minutes %q", mins)
		}
		sec, err := strconv.ParseFloat(secs, 64)
		if err != nil || !(sec >= 0 && sec < 60) {
			return 0, fmt.Errorf("invalid seconds %q", secs)
		}
		return sign * (float64(m)*60 + sec), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return sign * v, nil
}
