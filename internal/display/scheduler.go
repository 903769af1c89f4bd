package display

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDwell           = 15 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
)

// Renderer draws screens. The scheduler only ever calls it from the display
// loop goroutine.
type Renderer interface {
	DrawScreen(id ScreenID, data ScreenData) error
	// Capture returns the last presented frame for use as a fade overlay.
	Capture() Frame
	Composite(frame Frame, alpha int)
	PresentFrame() error
}

// RefreshRequester must not block. It returns false when a request was
// already pending.
type RefreshRequester interface {
	RequestRefresh() bool
}

type Recorder interface {
	IncScreenChange(reason string)
	IncRenderFailure(screen string)
	SetCurrentScreen(screen string)
}

// ScheduleState is owned by the DisplayScheduler and only changed by its
// methods.
type ScheduleState struct {
	ScreenOrder  []ScreenID       `json:"screen_order"`
	CurrentIndex int              `json:"current_index"`
	DwellElapsed time.Duration    `json:"dwell_elapsed"`
	Paused       bool             `json:"paused"`
	Transition   *TransitionState `json:"-"`
}

func (s ScheduleState) Current() ScreenID {
	if len(s.ScreenOrder) == 0 {
		return ""
	}
	return s.ScreenOrder[s.CurrentIndex]
}

func (s ScheduleState) Transitioning() bool {
	return s.Transition != nil
}

type nopRecorder struct{}

func (nopRecorder) IncScreenChange(string)  {}
func (nopRecorder) IncRenderFailure(string) {}
func (nopRecorder) SetCurrentScreen(string) {}

type RenderError struct {
	Screen ScreenID
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Screen, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

type SchedulerConfig struct {
	Dwell           time.Duration
	RefreshInterval time.Duration
}

// DisplayScheduler decides which screen is showing. It is Showing while
// Transition is nil and Transitioning otherwise.
type DisplayScheduler struct {
	catalog   *Catalog
	flags     Flags
	state     ScheduleState
	renderer  Renderer
	data      DataProvider
	refresher RefreshRequester
	recorder  Recorder
	logger    *zap.Logger

	dwell           time.Duration
	refreshInterval time.Duration
	refreshElapsed  time.Duration
}

func NewDisplayScheduler(cfg SchedulerConfig, catalog *Catalog, flags Flags, renderer Renderer, data DataProvider, refresher RefreshRequester, recorder Recorder, logger *zap.Logger) *DisplayScheduler {
	if cfg.Dwell <= 0 {
		cfg.Dwell = DefaultDwell
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	s := &DisplayScheduler{
		catalog:         catalog,
		flags:           flags,
		renderer:        renderer,
		data:            data,
		refresher:       refresher,
		recorder:        recorder,
		logger:          logger,
		dwell:           cfg.Dwell,
		refreshInterval: cfg.RefreshInterval,
	}
	s.state.ScreenOrder = catalog.Build(flags)
	s.recordScreen()
	return s
}

// Tick advances all timers by dt and draws one frame.
func (s *DisplayScheduler) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}

	s.refreshElapsed += dt
	if s.refreshElapsed >= s.refreshInterval {
		s.refreshElapsed %= s.refreshInterval
		if s.refresher != nil && !s.refresher.RequestRefresh() {
			s.logger.Debug("Refresh already pending")
		}
	}

	if !s.state.Paused {
		s.state.DwellElapsed += dt
		if s.state.DwellElapsed >= s.dwell {
			// overflow is dropped so one long tick cannot skip a screen
			s.advance(1, "dwell")
		}
	}

	s.render()
}

func (s *DisplayScheduler) render() {
	current := s.state.Current()
	if err := s.drawSafely(current); err != nil {
		s.logger.Error("Screen render failed",
			zap.String("screen", string(current)),
			zap.Error(err))
		s.recorder.IncRenderFailure(string(current))
	}

	if t := s.state.Transition; t != nil {
		s.renderer.Composite(t.Frame, t.Alpha)
		t.Step()
		if t.Done() {
			s.state.Transition = nil
		}
	}

	if err := s.renderer.PresentFrame(); err != nil {
		s.logger.Warn("Frame present failed", zap.Error(err))
	}
}

func (s *DisplayScheduler) drawSafely(id ScreenID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Screen: id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var data ScreenData
	if s.data != nil {
		data = s.data.ScreenData()
	}
	if drawErr := s.renderer.DrawScreen(id, data); drawErr != nil {
		return &RenderError{Screen: id, Err: drawErr}
	}
	return nil
}

func (s *DisplayScheduler) advance(delta int, reason string) {
	n := len(s.state.ScreenOrder)
	from := s.state.Current()
	s.state.CurrentIndex = ((s.state.CurrentIndex+delta)%n + n) % n
	s.beginTransition(from, reason)
}

func (s *DisplayScheduler) beginTransition(from ScreenID, reason string) {
	s.state.DwellElapsed = 0
	s.state.Transition = NewFade(s.renderer.Capture())
	s.recordScreen()
	s.recorder.IncScreenChange(reason)
	s.logger.Debug("Screen change",
		zap.String("from", string(from)),
		zap.String("to", string(s.state.Current())),
		zap.String("reason", reason))
}

func (s *DisplayScheduler) recordScreen() {
	s.recorder.SetCurrentScreen(string(s.state.Current()))
}

// Next and Previous work while paused and always start a transition.
func (s *DisplayScheduler) Next() {
	s.advance(1, "next")
}

func (s *DisplayScheduler) Previous() {
	s.advance(-1, "previous")
}

// TogglePause leaves the screen and timers alone.
func (s *DisplayScheduler) TogglePause() bool {
	s.state.Paused = !s.state.Paused
	s.logger.Info("Pause toggled", zap.Bool("paused", s.state.Paused))
	return s.state.Paused
}

// Jump switches straight to id, dropping any running fade.
func (s *DisplayScheduler) Jump(id ScreenID) error {
	i := slices.Index(s.state.ScreenOrder, id)
	if i < 0 {
		return fmt.Errorf("screen %q is not in the current sequence", id)
	}
	from := s.state.Current()
	s.state.CurrentIndex = i
	s.state.DwellElapsed = 0
	s.state.Transition = nil
	s.recordScreen()
	s.recorder.IncScreenChange("jump")
	s.logger.Debug("Screen jump",
		zap.String("from", string(from)),
		zap.String("to", string(id)))
	return nil
}

// SetFlags rebuilds the sequence. A fade starts only when the active screen
// was removed.
func (s *DisplayScheduler) SetFlags(flags Flags) {
	if flags == s.flags {
		return
	}
	from := s.state.Current()
	s.flags = flags
	if s.catalog.Rebuild(&s.state, flags) {
		s.beginTransition(from, "catalog")
	}
	s.logger.Info("Screen catalog rebuilt",
		zap.Int("screens", len(s.state.ScreenOrder)),
		zap.String("current", string(s.state.Current())))
}

func (s *DisplayScheduler) Flags() Flags {
	return s.flags
}

// State returns a copy safe to hand to other goroutines.
func (s *DisplayScheduler) State() ScheduleState {
	out := s.state
	out.ScreenOrder = slices.Clone(s.state.ScreenOrder)
	if s.state.Transition != nil {
		t := *s.state.Transition
		out.Transition = &t
	}
	return out
}
