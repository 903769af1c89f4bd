package services

import (
	"maps"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

// SnapshotStore holds the shared WeatherSnapshot. Only the fetch path writes
// to it; every setter replaces one field whole. Readers get a copy.
type SnapshotStore struct {
	mu    sync.RWMutex
	snap  models.WeatherSnapshot
	clock clockwork.Clock
}

func NewSnapshotStore(clock clockwork.Clock) *SnapshotStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SnapshotStore{clock: clock}
}

func (s *SnapshotStore) update(fn func(*models.WeatherSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
	s.snap.UpdatedAt = s.clock.Now()
}

func (s *SnapshotStore) SetCurrent(obs *models.Observation) {
	if obs == nil {
		return
	}
	cp := *obs
	cp.CloudLayers = slices.Clone(obs.CloudLayers)
	s.update(func(w *models.WeatherSnapshot) { w.Current = &cp })
}

func (s *SnapshotStore) SetForecast(periods models.PeriodList) {
	cp := slices.Clone(periods)
	s.update(func(w *models.WeatherSnapshot) { w.Forecast = cp })
}

func (s *SnapshotStore) SetHourly(periods models.PeriodList) {
	cp := slices.Clone(periods)
	s.update(func(w *models.WeatherSnapshot) { w.Hourly = cp })
}

func (s *SnapshotStore) SetAlerts(alerts []models.Alert) {
	cp := slices.Clone(alerts)
	s.update(func(w *models.WeatherSnapshot) { w.Alerts = cp })
}

func (s *SnapshotStore) SetAirQuality(aq *models.AirQuality) {
	if aq == nil {
		return
	}
	cp := *aq
	s.update(func(w *models.WeatherSnapshot) { w.AirQuality = &cp })
}

func (s *SnapshotStore) SetTrends(t models.Trends) {
	s.update(func(w *models.WeatherSnapshot) { w.Trends = t })
}

func (s *SnapshotStore) SetScrollText(text string) {
	s.update(func(w *models.WeatherSnapshot) { w.ScrollText = text })
}

func (s *SnapshotStore) SetHeadlines(source string, headlines []models.Headline) {
	cp := slices.Clone(headlines)
	s.update(func(w *models.WeatherSnapshot) {
		next := maps.Clone(w.Headlines)
		if next == nil {
			next = make(map[string][]models.Headline)
		}
		next[source] = cp
		w.Headlines = next
	})
}

// Snapshot returns a copy that shares nothing mutable with the store.
func (s *SnapshotStore) Snapshot() models.WeatherSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	if s.snap.Current != nil {
		cur := *s.snap.Current
		cur.CloudLayers = slices.Clone(s.snap.Current.CloudLayers)
		out.Current = &cur
	}
	if s.snap.AirQuality != nil {
		aq := *s.snap.AirQuality
		out.AirQuality = &aq
	}
	out.Forecast = slices.Clone(s.snap.Forecast)
	out.Hourly = slices.Clone(s.snap.Hourly)
	out.Alerts = slices.Clone(s.snap.Alerts)
	if s.snap.Headlines != nil {
		out.Headlines = make(map[string][]models.Headline, len(s.snap.Headlines))
		for k, v := range s.snap.Headlines {
			out.Headlines[k] = slices.Clone(v)
		}
	}
	return out
}
