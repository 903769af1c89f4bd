package api

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/display"
	"github.com/bobby-s-dev/weatherstar/internal/models"
	"github.com/bobby-s-dev/weatherstar/internal/scheduler"
)

const commandTimeout = 2 * time.Second

var validate = validator.New()

// DisplayController is the display loop as seen from HTTP handlers. All
// schedule changes go through it so they run between ticks.
type DisplayController interface {
	Send(cmd display.Command) error
	Do(ctx context.Context, fn func(*display.DisplayScheduler)) error
	Status(ctx context.Context) (display.ScheduleState, display.Flags, error)
}

type SnapshotSource interface {
	Snapshot() models.WeatherSnapshot
}

type HistorySource interface {
	Latest() models.HistorySeries
}

type FlagStore interface {
	SaveFlags(flags display.Flags) error
}

type RefreshControl interface {
	ForceRun() bool
	GetStatus() scheduler.Status
}

type Handler struct {
	display   DisplayController
	snapshots SnapshotSource
	history   HistorySource
	flags     FlagStore
	refresher RefreshControl
	location  *models.Location
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(ctrl DisplayController, snapshots SnapshotSource, history HistorySource, flags FlagStore, refresher RefreshControl, location *models.Location, logger *zap.Logger) *Handler {
	return &Handler{
		display:   ctrl,
		snapshots: snapshots,
		history:   history,
		flags:     flags,
		refresher: refresher,
		location:  location,
		logger:    logger,
		startTime: time.Now(),
	}
}

type statusResponse struct {
	Screen        display.ScreenID   `json:"screen"`
	Index         int                `json:"index"`
	Order         []display.ScreenID `json:"order"`
	Paused        bool               `json:"paused"`
	Transitioning bool               `json:"transitioning"`
	DwellElapsed  int64              `json:"dwell_elapsed_ms"`
	Flags         display.Flags      `json:"flags"`
}

func loopError(err error) error {
	if errors.Is(err, display.ErrLoopBusy) || errors.Is(err, display.ErrLoopStopped) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return err
}

func accepted(c *fiber.Ctx, extra fiber.Map) error {
	body := fiber.Map{"accepted": true}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(fiber.StatusAccepted).JSON(body)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
	}
	if h.refresher != nil {
		body["refresh"] = h.refresher.GetStatus()
	}
	return c.JSON(body)
}

// GetStatus handles GET /api/v1/status
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), commandTimeout)
	defer cancel()

	state, flags, err := h.display.Status(ctx)
	if err != nil {
		return loopError(err)
	}
	return c.JSON(statusResponse{
		Screen:        state.Current(),
		Index:         state.CurrentIndex,
		Order:         state.ScreenOrder,
		Paused:        state.Paused,
		Transitioning: state.Transitioning(),
		DwellElapsed:  state.DwellElapsed.Milliseconds(),
		Flags:         flags,
	})
}

// GetWeather handles GET /api/v1/weather
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"location": h.location,
		"snapshot": h.snapshots.Snapshot(),
	})
}

// GetHistory handles GET /api/v1/history
func (h *Handler) GetHistory(c *fiber.Ctx) error {
	series := h.history.Latest()
	if len(series) == 0 {
		return fiber.NewError(fiber.StatusNotFound, "history not loaded yet")
	}
	return c.JSON(fiber.Map{"days": series})
}

func (h *Handler) send(c *fiber.Ctx, name string, cmd display.Command) error {
	if err := h.display.Send(cmd); err != nil {
		h.logger.Warn("Display command rejected", zap.String("command", name), zap.Error(err))
		return loopError(err)
	}
	h.logger.Debug("Display command queued", zap.String("command", name))
	return accepted(c, fiber.Map{"command": name})
}

// Next handles POST /api/v1/display/next
func (h *Handler) Next(c *fiber.Ctx) error {
	return h.send(c, "next", display.NextCommand())
}

// Previous handles POST /api/v1/display/prev
func (h *Handler) Previous(c *fiber.Ctx) error {
	return h.send(c, "previous", display.PreviousCommand())
}

// TogglePause handles POST /api/v1/display/pause
func (h *Handler) TogglePause(c *fiber.Ctx) error {
	return h.send(c, "pause", display.TogglePauseCommand())
}

// Jump handles POST /api/v1/display/jump/:screen
func (h *Handler) Jump(c *fiber.Ctx) error {
	id, ok := display.ParseScreenID(c.Params("screen"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unknown screen")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), commandTimeout)
	defer cancel()

	var jumpErr error
	if err := h.display.Do(ctx, func(s *display.DisplayScheduler) {
		jumpErr = s.Jump(id)
	}); err != nil {
		return loopError(err)
	}
	if jumpErr != nil {
		return fiber.NewError(fiber.StatusConflict, jumpErr.Error())
	}
	return accepted(c, fiber.Map{"screen": id})
}

// flagsRequest changes only the flags it names.
type flagsRequest struct {
	ShowMarine    *bool `json:"show_marine" validate:"required_without_all=ShowMSN ShowReddit ShowLocalNews"`
	ShowMSN       *bool `json:"show_msn"`
	ShowReddit    *bool `json:"show_reddit"`
	ShowLocalNews *bool `json:"show_local_news"`
}

func (r flagsRequest) merge(f display.Flags) display.Flags {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.ShowMarine, r.ShowMarine)
	set(&f.ShowMSN, r.ShowMSN)
	set(&f.ShowReddit, r.ShowReddit)
	set(&f.ShowLocalNews, r.ShowLocalNews)
	return f
}

// UpdateFlags handles PATCH /api/v1/display/flags
func (h *Handler) UpdateFlags(c *fiber.Ctx) error {
	var req flagsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "at least one flag is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), commandTimeout)
	defer cancel()

	var flags display.Flags
	if err := h.display.Do(ctx, func(s *display.DisplayScheduler) {
		flags = req.merge(s.Flags())
		s.SetFlags(flags)
	}); err != nil {
		return loopError(err)
	}

	if h.flags != nil {
		if err := h.flags.SaveFlags(flags); err != nil {
			h.logger.Error("Failed to persist display flags", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "flags applied but not saved")
		}
	}

	h.logger.Info("Display flags updated",
		zap.Bool("show_marine", flags.ShowMarine),
		zap.Bool("show_msn", flags.ShowMSN),
		zap.Bool("show_reddit", flags.ShowReddit),
		zap.Bool("show_local_news", flags.ShowLocalNews))
	return accepted(c, fiber.Map{"flags": flags})
}

// Refresh handles POST /api/v1/refresh
func (h *Handler) Refresh(c *fiber.Ctx) error {
	if h.refresher == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "refresher not running")
	}
	return accepted(c, fiber.Map{"queued": h.refresher.ForceRun()})
}
