package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimelordUK/sigview/internal/config"
	"github.com/TimelordUK/sigview/internal/export"
	"github.com/TimelordUK/sigview/internal/playback"
	"github.com/TimelordUK/sigview/internal/render"
	"github.com/TimelordUK/sigview/internal/source"
	"github.com/TimelordUK/sigview/pkg/timecol"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSeek
	ModeLoad
)

// flashTTL is how long a status message stays visible
const flashTTL = 4 * time.Second

// Uploader sends a local recording to the backend
type Uploader interface {
	Upload(ctx context.Context, path string) (*source.UploadResult, error)
}

// Publisher receives every snapshot the UI renders
type Publisher interface {
	Publish(snap playback.Snapshot) bool
}

type (
	fetchResultMsg struct{ result playback.Result }
	tickMsg        time.Time
	retryMsg       struct{ fileID string }
	uploadedMsg    struct {
		path   string
		result *source.UploadResult
		err    error
	}
	exportedMsg struct {
		infos []*export.Info
		err   error
	}
)

// ModelOptions configures a new Model
type ModelOptions struct {
	Config           *config.Config
	Source           source.PageSource
	FileID           string
	ExpectedDuration float64
	Upload           *source.UploadResult
	Uploader         Uploader
	Publisher        Publisher
	Exporter         *export.Exporter
	Logger           *slog.Logger
}

// Model is the main application model
type Model struct {
	pane      *Pane
	config    *config.Config
	keys      keyMap
	help      help.Model
	input     textinput.Model
	spinner   spinner.Model
	statusBar lipgloss.Style
	errStyle  lipgloss.Style

	mode   Mode
	width  int
	height int

	// playback loop
	ticking  bool
	lastTick time.Time
	speeds   []float64
	speedIdx int

	uploader  Uploader
	uploading bool
	publisher Publisher
	exporter  *export.Exporter
	logger    *slog.Logger

	initialFile      string
	expectedDuration float64

	flash     string
	flashErr  bool
	flashTime time.Time
}

// NewModel creates a new application model
func NewModel(opts ModelOptions) (*Model, error) {
	if opts.Source == nil {
		return nil, errors.New("no page source")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctrl, err := playback.NewController(opts.Source, cfg.PlaybackOptions(), logger)
	if err != nil {
		return nil, err
	}
	pane := NewPane(cfg, ctrl)
	pane.SetUpload(opts.Upload)

	ti := textinput.New()
	ti.CharLimit = 256

	palette := render.NewPalette(cfg.Theme)
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)

	exporter := opts.Exporter
	if exporter == nil {
		exporter = export.NewExporter("", cfg.Theme.Channels)
	}

	speeds := cfg.Playback.Speeds
	if len(speeds) == 0 {
		speeds = []float64{1}
	}
	m := &Model{
		pane:             pane,
		config:           cfg,
		keys:             newKeyMap(cfg.Keybindings),
		help:             help.New(),
		input:            ti,
		spinner:          sp,
		statusBar:        palette.StatusBar,
		errStyle:         palette.Error,
		speeds:           speeds,
		uploader:         opts.Uploader,
		publisher:        opts.Publisher,
		exporter:         exporter,
		logger:           logger.With("component", "ui"),
		initialFile:      opts.FileID,
		expectedDuration: opts.ExpectedDuration,
	}
	m.speedIdx = m.closestSpeed(1)
	if err := ctrl.SetSpeed(m.speeds[m.speedIdx]); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) closestSpeed(target float64) int {
	best := 0
	for i, s := range m.speeds {
		if math.Abs(s-target) < math.Abs(m.speeds[best]-target) {
			best = i
		}
	}
	return best
}

// Pane returns the active pane
func (m *Model) Pane() *Pane {
	return m.pane
}

// Mode returns the current UI mode
func (m *Model) Mode() Mode {
	return m.mode
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.initialFile != "" {
		cmds = append(cmds, m.fetch(m.pane.Load(m.initialFile, m.expectedDuration)))
	}
	return tea.Batch(cmds...)
}

// fetch runs f off the update loop and feeds its result back as a message
func (m *Model) fetch(f playback.Fetch) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		return fetchResultMsg{result: f(context.Background())}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.config.PlaybackOptions().TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// startPlayback begins the tick loop unless one is already pending
func (m *Model) startPlayback() tea.Cmd {
	m.lastTick = time.Now()
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.tick()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if _, isSpin := msg.(spinner.TickMsg); !isSpin && m.publisher != nil {
		m.publisher.Publish(m.pane.Controller().Snapshot())
	}
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	ctrl := m.pane.Controller()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return nil

	case fetchResultMsg:
		next := ctrl.HandleResult(msg.result)
		if msg.result.Err != nil && msg.result.FileID == ctrl.FileID() {
			fileID := msg.result.FileID
			return tea.Tick(m.config.RetryInterval(), func(time.Time) tea.Msg {
				return retryMsg{fileID: fileID}
			})
		}
		return m.fetch(next)

	case retryMsg:
		if msg.fileID != ctrl.FileID() {
			return nil
		}
		return m.fetch(ctrl.Prefetch())

	case tickMsg:
		if ctrl.State() != playback.StatePlaying {
			m.ticking = false
			return nil
		}
		now := time.Time(msg)
		elapsed := now.Sub(m.lastTick)
		m.lastTick = now
		next := ctrl.Advance(elapsed)
		if ctrl.State() != playback.StatePlaying {
			m.ticking = false
			return m.fetch(next)
		}
		return tea.Batch(m.fetch(next), m.tick())

	case uploadedMsg:
		m.uploading = false
		if msg.err != nil {
			m.setFlash(fmt.Sprintf("upload %s: %v", filepath.Base(msg.path), msg.err), true)
			return nil
		}
		m.pane.SetUpload(msg.result)
		m.setFlash(fmt.Sprintf("uploaded %s as %s", filepath.Base(msg.path), msg.result.FileID), false)
		return m.fetch(m.pane.Load(msg.result.FileID, 0))

	case exportedMsg:
		if msg.err != nil {
			m.setFlash("export: "+msg.err.Error(), true)
			return nil
		}
		paths := make([]string, len(msg.infos))
		for i, info := range msg.infos {
			paths[i] = info.Path
		}
		m.setFlash("exported "+strings.Join(paths, ", "), false)
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}

	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.mode == ModeSeek || m.mode == ModeLoad {
		return m.handlePromptKey(msg)
	}

	ctrl := m.pane.Controller()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.PlayPause):
		if ctrl.Toggle() {
			return m.startPlayback()
		}
		if ctrl.State() == playback.StateReady && !m.ticking {
			if f, ok := ctrl.Buffer().Frontier(); ok && ctrl.Cursor().Position >= f {
				m.setFlash("buffering: playhead is at the loaded frontier", false)
			}
		}
		return nil

	case key.Matches(msg, m.keys.Faster):
		return m.stepSpeed(1)
	case key.Matches(msg, m.keys.Slower):
		return m.stepSpeed(-1)

	case key.Matches(msg, m.keys.ZoomIn):
		return m.fetch(ctrl.Zoom(true))
	case key.Matches(msg, m.keys.ZoomOut):
		return m.fetch(ctrl.Zoom(false))

	case key.Matches(msg, m.keys.PanLeft):
		return m.fetch(ctrl.Pan(-1))
	case key.Matches(msg, m.keys.PanRight):
		return m.fetch(ctrl.Pan(1))

	case key.Matches(msg, m.keys.Start):
		origin, _ := ctrl.Buffer().Origin()
		return m.fetch(ctrl.Seek(origin + ctrl.Cursor().Size))
	case key.Matches(msg, m.keys.End):
		if f, ok := ctrl.Buffer().Frontier(); ok {
			return m.fetch(ctrl.Seek(f))
		}
		return nil

	case key.Matches(msg, m.keys.Seek):
		return m.openPrompt(ModeSeek, "seek: ", "12.5, 01:30, +5, $-2")
	case key.Matches(msg, m.keys.Load):
		placeholder := "file id"
		if m.uploader != nil {
			placeholder = "file id or path to upload"
		}
		return m.openPrompt(ModeLoad, "load: ", placeholder)

	case key.Matches(msg, m.keys.ViewMode):
		mode := m.pane.Viewport().CycleMode()
		m.setFlash("view: "+mode.String(), false)
		return nil

	case key.Matches(msg, m.keys.WindowMode):
		mode := playback.WindowCumulative
		if ctrl.Options().WindowMode == playback.WindowCumulative {
			mode = playback.WindowFixed
		}
		m.setFlash("window: "+mode.String(), false)
		return m.fetch(ctrl.SetWindowMode(mode))

	case key.Matches(msg, m.keys.Channel):
		n := int(msg.String()[0] - '0')
		if name, visible, ok := m.pane.ToggleChannelAt(n); ok {
			state := "hidden"
			if visible {
				state = "shown"
			}
			m.setFlash(name+" "+state, false)
		}
		return nil

	case key.Matches(msg, m.keys.ShowAll):
		ctrl.ShowAllChannels()
		return nil

	case key.Matches(msg, m.keys.Meta):
		if m.pane.Upload() == nil {
			m.setFlash("no analysis for this recording", false)
			return nil
		}
		m.pane.ToggleMeta()
		return nil

	case key.Matches(msg, m.keys.Export):
		return m.exportWindow()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}

	return nil
}

func (m *Model) stepSpeed(dir int) tea.Cmd {
	idx := m.speedIdx + dir
	if idx < 0 || idx >= len(m.speeds) {
		return nil
	}
	if err := m.pane.Controller().SetSpeed(m.speeds[idx]); err != nil {
		m.setFlash(err.Error(), true)
		return nil
	}
	m.speedIdx = idx
	return nil
}

func (m *Model) openPrompt(mode Mode, prompt, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.input.Blur()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.closePrompt()
		if value == "" {
			return nil
		}
		if mode == ModeSeek {
			return m.seekTo(value)
		}
		return m.loadOrUpload(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) seekTo(ref string) tea.Cmd {
	pos, err := m.pane.ParseSeek(ref)
	if err != nil {
		m.setFlash(err.Error(), true)
		return nil
	}
	return m.fetch(m.pane.Controller().Seek(pos))
}

func (m *Model) loadOrUpload(value string) tea.Cmd {
	if m.uploader != nil {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			m.uploading = true
			uploader := m.uploader
			return func() tea.Msg {
				res, err := uploader.Upload(context.Background(), value)
				return uploadedMsg{path: value, result: res, err: err}
			}
		}
	}
	return m.fetch(m.pane.Load(value, 0))
}

func (m *Model) exportWindow() tea.Cmd {
	snap := m.pane.Controller().Snapshot()
	exporter := m.exporter
	return func() tea.Msg {
		csvInfo, err := exporter.CSV(snap)
		if err != nil {
			return exportedMsg{err: err}
		}
		pngInfo, err := exporter.PNG(snap)
		if err != nil {
			return exportedMsg{infos: []*export.Info{csvInfo}, err: err}
		}
		return exportedMsg{infos: []*export.Info{csvInfo, pngInfo}}
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashTime = time.Now()
	if isErr {
		m.logger.Warn(text)
	} else {
		m.logger.Debug(text)
	}
}

// View implements tea.Model
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	helpView := m.help.View(m.keys)
	helpLines := strings.Count(helpView, "\n") + 1
	chartHeight := m.height - 1 - helpLines
	if chartHeight < 1 {
		chartHeight = 1
	}

	var builder strings.Builder
	builder.WriteString(m.pane.Render(m.width, chartHeight))
	builder.WriteString("\n")
	builder.WriteString(m.statusLine())
	builder.WriteString("\n")
	builder.WriteString(helpView)
	return builder.String()
}

func (m *Model) statusLine() string {
	style := m.statusBar.Width(m.width).MaxWidth(m.width)

	switch m.mode {
	case ModeSeek, ModeLoad:
		return style.Render(m.input.View())
	}

	ctrl := m.pane.Controller()
	snap := ctrl.Snapshot()

	icon := "⏸"
	if snap.IsPlaying {
		icon = "▶"
	}
	name := snap.FileID
	if name == "" {
		name = "-"
	}

	parts := []string{
		" " + icon + " " + name,
		fmt.Sprintf("%s / %s", timecol.FormatSeconds(snap.WindowEnd), timecol.FormatSeconds(snap.Frontier)),
		fmt.Sprintf("%gx", snap.Speed),
		snap.WindowMode,
		m.pane.Viewport().Mode().String(),
	}
	if snap.LoadedFraction > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", snap.LoadedFraction*100))
	}
	parts = append(parts, fmt.Sprintf("%d pages", snap.Pages))

	if snap.State == playback.StateLoading.String() || snap.Fetching || m.uploading {
		parts = append(parts, m.spinner.View()+" "+snap.State)
	} else if snap.Exhausted {
		parts = append(parts, "end")
	}

	status := strings.Join(parts, "  ")
	switch {
	case m.flash != "" && time.Since(m.flashTime) < flashTTL:
		text := m.flash
		if m.flashErr {
			text = m.errStyle.Render(text)
		}
		status += "  " + text
	case snap.LastError != "":
		status += "  " + m.errStyle.Render("retrying: "+snap.LastError)
	}
	return style.Render(status)
}
