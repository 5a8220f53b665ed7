package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/TimelordUK/sigview/internal/config"
)

type keyMap struct {
	Quit       key.Binding
	PlayPause  key.Binding
	Faster     key.Binding
	Slower     key.Binding
	ZoomIn     key.Binding
	ZoomOut    key.Binding
	PanLeft    key.Binding
	PanRight   key.Binding
	Start      key.Binding
	End        key.Binding
	Seek       key.Binding
	Load       key.Binding
	ViewMode   key.Binding
	WindowMode key.Binding
	Channel    key.Binding
	ShowAll    key.Binding
	Meta       key.Binding
	Export     key.Binding
	Help       key.Binding
}

func binding(keys []string, desc string) key.Binding {
	labels := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		labels[i] = k
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(strings.Join(labels, "/"), desc))
}

func newKeyMap(kb config.KeybindingConfig) keyMap {
	return keyMap{
		Quit:       binding(kb.Quit, "quit"),
		PlayPause:  binding(kb.PlayPause, "play/pause"),
		Faster:     binding(kb.Faster, "faster"),
		Slower:     binding(kb.Slower, "slower"),
		ZoomIn:     binding(kb.ZoomIn, "zoom in"),
		ZoomOut:    binding(kb.ZoomOut, "zoom out"),
		PanLeft:    binding(kb.PanLeft, "pan back"),
		PanRight:   binding(kb.PanRight, "pan forward"),
		Start:      binding(kb.Start, "start"),
		End:        binding(kb.End, "frontier"),
		Seek:       binding(kb.Seek, "seek"),
		Load:       binding(kb.Load, "load"),
		ViewMode:   binding(kb.ViewMode, "view mode"),
		WindowMode: binding(kb.WindowMode, "window mode"),
		Channel:    binding([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}, "toggle channel"),
		ShowAll:    binding(kb.ShowAll, "all channels"),
		Meta:       binding(kb.Meta, "analysis"),
		Export:     binding(kb.Export, "export"),
		Help:       binding(kb.Help, "help"),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Faster, k.Slower, k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Faster, k.Slower, k.Start, k.End, k.Seek},
		{k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.WindowMode},
		{k.ViewMode, k.Channel, k.ShowAll, k.Meta},
		{k.Load, k.Export, k.Help, k.Quit},
	}
}
