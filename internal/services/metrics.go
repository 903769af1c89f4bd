package services

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics records weatherstar activity in Prometheus. All methods are safe on
// a nil receiver so components can run without instrumentation.
type Metrics struct {
	once           sync.Once
	fetchDuration  *prom.HistogramVec
	fetchResults   *prom.CounterVec
	cacheLookups   *prom.CounterVec
	screenChanges  *prom.CounterVec
	renderFailures *prom.CounterVec
	refreshCycles  *prom.CounterVec
	currentScreen  *prom.GaugeVec
}

func NewMetrics(reg prom.Registerer) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{}
	m.once.Do(func() {
		m.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "weatherstar",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream fetches by data kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		m.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "weatherstar",
			Name:      "fetch_results_total",
			Help:      "Upstream fetch outcomes by data kind",
		}, []string{"kind", "result"})
		m.cacheLookups = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "weatherstar",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and hit/miss",
		}, []string{"cache", "result"})
		m.screenChanges = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "weatherstar",
			Name:      "screen_changes_total",
			Help:      "Screen changes by trigger",
		}, []string{"reason"})
		m.renderFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "weatherstar",
			Name:      "render_failures_total",
			Help:      "Screen render failures by screen",
		}, []string{"screen"})
		m.refreshCycles = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "weatherstar",
			Name:      "refresh_cycles_total",
			Help:      "Completed refresh cycles by outcome",
		}, []string{"result"})
		m.currentScreen = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "weatherstar",
			Name:      "current_screen",
			Help:      "1 for the screen currently showing",
		}, []string{"screen"})
		reg.MustRegister(m.fetchDuration, m.fetchResults, m.cacheLookups, m.screenChanges,
			m.renderFailures, m.refreshCycles, m.currentScreen)
	})
	return m
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

func (m *Metrics) ObserveFetch(kind string, d time.Duration, ok bool) {
	if m == nil || m.fetchDuration == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.fetchResults.WithLabelValues(kind, resultLabel(ok)).Inc()
}

func (m *Metrics) IncCacheLookup(cache string, hit bool) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, res).Inc()
}

func (m *Metrics) IncScreenChange(reason string) {
	if m == nil || m.screenChanges == nil {
		return
	}
	m.screenChanges.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncRenderFailure(screen string) {
	if m == nil || m.renderFailures == nil {
		return
	}
	m.renderFailures.WithLabelValues(screen).Inc()
}

func (m *Metrics) IncRefreshCycle(ok bool) {
	if m == nil || m.refreshCycles == nil {
		return
	}
	m.refreshCycles.WithLabelValues(resultLabel(ok)).Inc()
}

func (m *Metrics) SetCurrentScreen(screen string) {
	if m == nil || m.currentScreen == nil {
		return
	}
	m.currentScreen.Reset()
	m.currentScreen.WithLabelValues(screen).Set(1)
}
