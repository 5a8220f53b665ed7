package playback

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidSpeed is returned for non-positive playback speeds
	ErrInvalidSpeed = errors.New("speed must be positive")
	// ErrInvalidWindow is returned for non-positive window sizes
	ErrInvalidWindow = errors.New("window size must be positive")
)

// WindowMode controls how the visible window is anchored
type WindowMode int

const (
	// WindowFixed slides a window of constant size behind the playhead
	WindowFixed WindowMode = iota
	// WindowCumulative keeps the window start pinned to the first sample
	WindowCumulative
)

func (m WindowMode) String() string {
	switch m {
	case WindowCumulative:
		return "cumulative"
	default:
		return "fixed"
	}
}

// ParseWindowMode parses "fixed" or "cumulative"
func ParseWindowMode(s string) (WindowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return WindowFixed, nil
	case "cumulative":
		return WindowCumulative, nil
	}
	return WindowFixed, fmt.Errorf("unknown window mode %q", s)
}

const (
	minWindowSize = 0.1
	maxWindowSize = 600.0
)

// Options parameterises a controller
type Options struct {
	PageLimit    int           // samples requested per page
	WindowMode   WindowMode    // fixed or cumulative
	WindowSize   float64       // seconds visible in fixed mode
	TickInterval time.Duration // playback schedule
	BaseStep     float64       // seconds advanced per tick at 1x
	StepScale    float64       // per-view multiplier on BaseStep
	Lookahead    float64       // prefetch when the window end is this close to the frontier
	FetchTimeout time.Duration // per-page deadline, 0 disables
}

// DefaultOptions mirrors the continuous EEG viewer: 2s window, 50ms ticks,
// 0.05s per tick, 1000-sample pages and 1s of lookahead.
func DefaultOptions() Options {
	return Options{
		PageLimit:    1000,
		WindowMode:   WindowFixed,
		WindowSize:   2.0,
		TickInterval: 50 * time.Millisecond,
		BaseStep:     0.05,
		StepScale:    1.0,
		Lookahead:    1.0,
		FetchTimeout: 10 * time.Second,
	}
}

// Validate checks that the options describe a usable controller
func (o Options) Validate() error {
	if o.PageLimit <= 0 {
		return fmt.Errorf("page limit must be positive, got %d", o.PageLimit)
	}
	if o.WindowSize <= 0 {
		return ErrInvalidWindow
	}
	if o.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", o.TickInterval)
	}
	if o.BaseStep <= 0 || o.StepScale <= 0 {
		return fmt.Errorf("step must be positive, got %g x %g", o.BaseStep, o.StepScale)
	}
	if o.Lookahead < 0 {
		return fmt.Errorf("lookahead must not be negative, got %g", o.Lookahead)
	}
	return nil
}
