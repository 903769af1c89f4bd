package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
	"github.com/bobby-s-dev/weatherstar/internal/services"
)

const (
	DefaultFetchTimeout = 60 * time.Second
	DefaultHistorySpec  = "@hourly"
	DefaultNewsSpec     = "@every 15m"
	DefaultPruneSpec    = "@every 10m"
)

type WeatherRefresher interface {
	Refresh(ctx context.Context, loc *models.Location, store *services.SnapshotStore) services.RefreshReport
}

type HistoryRefresher interface {
	Series(ctx context.Context, lat, lon float64) (models.HistorySeries, error)
}

type HeadlineRefresher interface {
	Refresh(ctx context.Context, place string, store *services.SnapshotStore) int
}

type CachePruner interface {
	Prune(olderThan time.Duration) int
}

type Config struct {
	FetchTimeout time.Duration
	HistorySpec  string
	NewsSpec     string
	PruneSpec    string
}

type JobStatus struct {
	Name string    `json:"name"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

type Status struct {
	Running      bool          `json:"running"`
	Pending      bool          `json:"pending"`
	Cycles       int           `json:"cycles"`
	LastRun      time.Time     `json:"last_run"`
	LastDuration time.Duration `json:"last_duration"`
	LastFailed   []string      `json:"last_failed"`
	Jobs         []JobStatus   `json:"jobs"`
}

// Refresher performs every network fetch off the display goroutine. Weather
// refreshes are requested through a one-slot queue, so any number of
// requests made during a running refresh collapse into one follow-up run.
// Slower feeds run on cron schedules.
type Refresher struct {
	weather WeatherRefresher
	history HistoryRefresher
	news    HeadlineRefresher
	caches  []CachePruner
	store   *services.SnapshotStore
	loc     *models.Location
	place   string
	cfg     Config
	metrics *services.Metrics
	clock   clockwork.Clock
	logger  *zap.Logger

	requests chan struct{}
	cron     *cron.Cron
	jobs     map[cron.EntryID]string

	mu         sync.Mutex
	running    bool
	cycles     int
	lastRun    time.Time
	lastDur    time.Duration
	lastFailed []string

	stop chan struct{}
	done chan struct{}
}

func NewRefresher(cfg Config, loc *models.Location, place string, weather WeatherRefresher, history HistoryRefresher, news HeadlineRefresher, store *services.SnapshotStore, caches []CachePruner, metrics *services.Metrics, clock clockwork.Clock, logger *zap.Logger) *Refresher {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.HistorySpec == "" {
		cfg.HistorySpec = DefaultHistorySpec
	}
	if cfg.NewsSpec == "" {
		cfg.NewsSpec = DefaultNewsSpec
	}
	if cfg.PruneSpec == "" {
		cfg.PruneSpec = DefaultPruneSpec
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	cronLog := cronLogger{logger.Sugar()}
	return &Refresher{
		weather:  weather,
		history:  history,
		news:     news,
		caches:   caches,
		store:    store,
		loc:      loc,
		place:    place,
		cfg:      cfg,
		metrics:  metrics,
		clock:    clock,
		logger:   logger,
		requests: make(chan struct{}, 1),
		cron:     cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		jobs:     make(map[cron.EntryID]string),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start registers the periodic jobs, queues an initial refresh of every feed
// and starts the worker. It returns once the worker is running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"history", r.cfg.HistorySpec, r.refreshHistory},
		{"news", r.cfg.NewsSpec, r.refreshNews},
		{"prune", r.cfg.PruneSpec, r.pruneCaches},
	}
	for _, j := range jobs {
		id, err := r.cron.AddFunc(j.spec, j.fn)
		if err != nil {
			r.mu.Unlock()
			return fmt.Errorf("schedule %s job %q: %w", j.name, j.spec, err)
		}
		r.jobs[id] = j.name
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info("Refresher started",
		zap.String("history_spec", r.cfg.HistorySpec),
		zap.String("news_spec", r.cfg.NewsSpec),
		zap.Duration("fetch_timeout", r.cfg.FetchTimeout))

	r.RequestRefresh()
	go r.refreshHistory()
	go r.refreshNews()

	r.cron.Start()
	go r.run(ctx)
	return nil
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-r.requests:
			r.runCycle(ctx)
		}
	}
}

// RequestRefresh queues a weather refresh without blocking. It reports false
// when one is already queued.
func (r *Refresher) RequestRefresh() bool {
	select {
	case r.requests <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Refresher) ForceRun() bool {
	r.logger.Info("Manually triggering weather refresh")
	return r.RequestRefresh()
}

func (r *Refresher) runCycle(ctx context.Context) {
	logger := r.logger.With(zap.String("cycle_id", uuid.NewString()))
	start := r.clock.Now()
	logger.Debug("Starting weather refresh")

	ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	report := r.weather.Refresh(ctx, r.loc, r.store)
	elapsed := r.clock.Since(start)

	r.mu.Lock()
	r.cycles++
	r.lastRun = start
	r.lastDur = elapsed
	r.lastFailed = report.Failed
	r.mu.Unlock()

	r.metrics.IncRefreshCycle(report.OK())
	if !report.OK() {
		logger.Warn("Weather refresh incomplete",
			zap.Strings("failed", report.Failed),
			zap.Duration("duration", elapsed))
		return
	}
	logger.Info("Weather refresh completed", zap.Duration("duration", elapsed))
}

func (r *Refresher) refreshHistory() {
	if r.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()

	series, err := r.history.Series(ctx, r.loc.Latitude, r.loc.Longitude)
	if err != nil {
		r.logger.Warn("History refresh failed", zap.Error(err))
		return
	}
	r.logger.Debug("History refreshed", zap.Int("days", len(series)))
}

func (r *Refresher) refreshNews() {
	if r.news == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()

	n := r.news.Refresh(ctx, r.place, r.store)
	r.logger.Debug("Headlines refreshed", zap.Int("feeds", n))
}

func (r *Refresher) pruneCaches() {
	removed := 0
	for _, c := range r.caches {
		removed += c.Prune(services.MaxTTL)
	}
	if removed > 0 {
		r.logger.Debug("Pruned stale cache entries", zap.Int("removed", removed))
	}
}

// Stop halts the cron jobs and the worker, waiting for running jobs to
// finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.logger.Info("Stopping refresher")
	<-r.cron.Stop().Done()
	close(r.stop)
	<-r.done
}

func (r *Refresher) GetStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		Running:      r.running,
		Pending:      len(r.requests) > 0,
		Cycles:       r.cycles,
		LastRun:      r.lastRun,
		LastDuration: r.lastDur,
		LastFailed:   append([]string(nil), r.lastFailed...),
	}
	for _, e := range r.cron.Entries() {
		st.Jobs = append(st.Jobs, JobStatus{Name: r.jobs[e.ID], Next: e.Next, Prev: e.Prev})
	}
	return st
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
