package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/display"
	"github.com/bobby-s-dev/weatherstar/internal/models"
	"github.com/bobby-s-dev/weatherstar/internal/scheduler"
	"github.com/bobby-s-dev/weatherstar/internal/services"
)

type nopRenderer struct{}

func (nopRenderer) DrawScreen(display.ScreenID, display.ScreenData) error { return nil }
func (nopRenderer) Capture() display.Frame                                { return nil }
func (nopRenderer) Composite(display.Frame, int)                          {}
func (nopRenderer) PresentFrame() error                                   { return nil }

type fakeFlagStore struct {
	mu    sync.Mutex
	saved []display.Flags
	err   error
}

func (f *fakeFlagStore) SaveFlags(flags display.Flags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, flags)
	return f.err
}

type fakeRefresh struct {
	forced int
}

func (f *fakeRefresh) ForceRun() bool {
	f.forced++
	return f.forced == 1
}

func (f *fakeRefresh) GetStatus() scheduler.Status {
	return scheduler.Status{Running: true, Cycles: 3}
}

type staticHistory models.HistorySeries

func (h staticHistory) Latest() models.HistorySeries { return models.HistorySeries(h) }

type testServer struct {
	app     *fiber.App
	loop    *display.Loop
	flags   *fakeFlagStore
	refresh *fakeRefresh
	store   *services.SnapshotStore
	history staticHistory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sched := display.NewDisplayScheduler(display.SchedulerConfig{}, nil, display.Flags{ShowMSN: true}, nopRenderer{}, nil, nil, nil, zap.NewNop())
	loop := display.NewLoop(sched, 30, clockwork.NewFakeClock(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(cancel)

	ts := &testServer{
		loop:    loop,
		flags:   &fakeFlagStore{},
		refresh: &fakeRefresh{},
		store:   services.NewSnapshotStore(clockwork.NewFakeClock()),
	}
	ts.store.SetScrollText("Conditions at Orlando, FL")

	reg := prometheus.NewRegistry()
	services.NewMetrics(reg).IncScreenChange("next")

	loc := &models.Location{City: "Orlando", State: "FL"}
	handler := NewHandler(loop, ts.store, &ts.history, ts.flags, ts.refresh, loc, zap.NewNop())

	ts.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	SetupRoutes(ts.app, handler, reg, zap.NewNop())
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (ts *testServer) status(t *testing.T) map[string]any {
	t.Helper()
	resp, body := ts.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	body := ts.status(t)
	assert.Equal(t, string(display.ScreenCurrentConditions), body["screen"])
	assert.EqualValues(t, 0, body["index"])
	assert.Equal(t, false, body["paused"])
	flags := body["flags"].(map[string]any)
	assert.Equal(t, true, flags["show_msn"])
}

func TestNavigationCommands(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/api/v1/display/next", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "next", body["command"])

	assert.Eventually(t, func() bool {
		return ts.status(t)["screen"] == string(display.ScreenExtendedForecast)
	}, time.Second, 10*time.Millisecond)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/display/prev", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/api/v1/display/pause", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Eventually(t, func() bool {
		st := ts.status(t)
		return st["screen"] == string(display.ScreenCurrentConditions) && st["paused"] == true
	}, time.Second, 10*time.Millisecond)
}

func TestJump(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/display/jump/radar", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, string(display.ScreenRadar), ts.status(t)["screen"])

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/display/jump/bogus", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/display/jump/marine-forecast", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateFlags(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPatch, "/api/v1/display/flags", `{"show_marine": true}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	flags := body["flags"].(map[string]any)
	assert.Equal(t, true, flags["show_marine"])
	assert.Equal(t, true, flags["show_msn"], "unnamed flags keep their value")

	require.Len(t, ts.flags.saved, 1)
	assert.Equal(t, display.Flags{ShowMarine: true, ShowMSN: true}, ts.flags.saved[0])

	order := ts.status(t)["order"].([]any)
	assert.Contains(t, order, string(display.ScreenMarineForecast))
}

func TestUpdateFlagsRejectsEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPatch, "/api/v1/display/flags", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPatch, "/api/v1/display/flags", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, ts.flags.saved)
}

func TestUpdateFlagsSaveFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.flags.err = errors.New("disk full")

	resp, body := ts.do(t, http.MethodPatch, "/api/v1/display/flags", `{"show_reddit": true}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestWeatherAndHistory(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/weather", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := body["snapshot"].(map[string]any)
	assert.Equal(t, "Conditions at Orlando, FL", snap["scroll_text"])
	assert.Equal(t, "Orlando", body["location"].(map[string]any)["city"])

	resp, _ = ts.do(t, http.MethodGet, "/api/v1/history", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts.history = staticHistory{{TempHigh: 90, TempLow: 70}}
	resp, body = ts.do(t, http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["days"], 1)
}

func TestRefreshAndHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, true, body["queued"])

	_, body = ts.do(t, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, false, body["queued"])

	resp, body = ts.do(t, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 3, body["refresh"].(map[string]any)["cycles"])
}

func TestMetricsAndNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `weatherstar_screen_changes_total{reason="next"} 1`)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Endpoint not found", body["error"])
}

func TestStoppedLoopIsUnavailable(t *testing.T) {
	sched := display.NewDisplayScheduler(display.SchedulerConfig{}, nil, display.Flags{}, nopRenderer{}, nil, nil, nil, zap.NewNop())
	loop := display.NewLoop(sched, 30, clockwork.NewFakeClock(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = loop.Run(ctx)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	SetupRoutes(app, NewHandler(loop, services.NewSnapshotStore(nil), staticHistory(nil), nil, nil, nil, zap.NewNop()), nil, zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/display/next", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
