package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

// ErrUnavailable is returned whenever an upstream fetch fails for any reason.
// It always wraps the underlying cause.
var ErrUnavailable = errors.New("weather data unavailable")

const (
	PointTTL       = time.Hour
	StationsTTL    = time.Hour
	ObservationTTL = 5 * time.Minute
	ForecastTTL    = 30 * time.Minute
	HourlyTTL      = 30 * time.Minute
	HistoryTTL     = time.Hour
	PlaceNameTTL   = 5 * time.Minute
	AlertsTTL      = 5 * time.Minute
	AirQualityTTL  = 30 * time.Minute

	// MaxTTL is the longest TTL above; anything older can be pruned.
	MaxTTL = time.Hour

	trendWindow            = 5
	pressureTrendThreshold = 67.7 // Pa, 0.02 inHg
	tempTrendThreshold     = 0.5  // degC
)

type NOAAAPI interface {
	GetPoint(ctx context.Context, lat, lon float64) (*models.PointMetadata, error)
	GetStations(ctx context.Context, stationsURL string) ([]models.Station, error)
	GetLatestObservation(ctx context.Context, stationID string) (*models.Observation, error)
	GetForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error)
	GetHourlyForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error)
	GetActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error)
}

type OpenMeteoAPI interface {
	GetDailyHistory(ctx context.Context, lat, lon float64) (*models.DailyHistory, error)
	GetAirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error)
}

type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// WeatherDataSource serves typed weather data from its cache, fetching from
// NOAA and Open-Meteo when an entry is missing or older than its TTL. A failed
// fetch never returns or disturbs what is already cached.
type WeatherDataSource struct {
	noaa     NOAAAPI
	meteo    OpenMeteoAPI
	geocoder ReverseGeocoder
	cache    *TimedCache
	clock    clockwork.Clock
	metrics  *Metrics
	logger   *zap.Logger

	trendMu  sync.Mutex
	temps    []float64
	pressure []float64
}

func NewWeatherDataSource(noaa NOAAAPI, meteo OpenMeteoAPI, geocoder ReverseGeocoder, cache *TimedCache, clock clockwork.Clock, metrics *Metrics, logger *zap.Logger) *WeatherDataSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WeatherDataSource{
		noaa:     noaa,
		meteo:    meteo,
		geocoder: geocoder,
		cache:    cache,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

func coordKey(prefix string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.4f,%.4f", prefix, lat, lon)
}

func gridKey(prefix, office string, x, y int) string {
	return fmt.Sprintf("%s:%s/%d,%d", prefix, office, x, y)
}

// cached returns the fresh cache entry for key or runs fetch and stores its
// result.
func cached[T any](ctx context.Context, ds *WeatherDataSource, kind, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := ds.cache.GetFresh(key, ttl); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	start := ds.clock.Now()
	value, err := fetch(ctx)
	ds.metrics.ObserveFetch(kind, ds.clock.Since(start), err == nil)
	if err != nil {
		ds.logger.Warn("Fetch failed",
			zap.String("kind", kind),
			zap.String("key", key),
			zap.Error(err))
		var zero T
		return zero, fmt.Errorf("%w: %s: %w", ErrUnavailable, kind, err)
	}

	ds.cache.Put(key, value)
	return value, nil
}

func (ds *WeatherDataSource) PointMetadata(ctx context.Context, lat, lon float64) (*models.PointMetadata, error) {
	return cached(ctx, ds, "point", coordKey("point", lat, lon), PointTTL, func(ctx context.Context) (*models.PointMetadata, error) {
		return ds.noaa.GetPoint(ctx, lat, lon)
	})
}

func (ds *WeatherDataSource) Stations(ctx context.Context, stationsURL string) ([]models.Station, error) {
	return cached(ctx, ds, "stations", "stations:"+stationsURL, StationsTTL, func(ctx context.Context) ([]models.Station, error) {
		return ds.noaa.GetStations(ctx, stationsURL)
	})
}

// CurrentObservation also feeds the trend buffers, once per network fetch.
func (ds *WeatherDataSource) CurrentObservation(ctx context.Context, stationID string) (*models.Observation, error) {
	return cached(ctx, ds, "observation", "obs:"+stationID, ObservationTTL, func(ctx context.Context) (*models.Observation, error) {
		obs, err := ds.noaa.GetLatestObservation(ctx, stationID)
		if err != nil {
			return nil, err
		}
		ds.recordSample(obs)
		return obs, nil
	})
}

func (ds *WeatherDataSource) Forecast(ctx context.Context, office string, x, y int) (models.PeriodList, error) {
	return cached(ctx, ds, "forecast", gridKey("forecast", office, x, y), ForecastTTL, func(ctx context.Context) (models.PeriodList, error) {
		return ds.noaa.GetForecast(ctx, office, x, y)
	})
}

func (ds *WeatherDataSource) HourlyForecast(ctx context.Context, office string, x, y int) (models.PeriodList, error) {
	return cached(ctx, ds, "hourly", gridKey("hourly", office, x, y), HourlyTTL, func(ctx context.Context) (models.PeriodList, error) {
		return ds.noaa.GetHourlyForecast(ctx, office, x, y)
	})
}

func (ds *WeatherDataSource) History(ctx context.Context, lat, lon float64) (*models.DailyHistory, error) {
	return cached(ctx, ds, "history", coordKey("history", lat, lon), HistoryTTL, func(ctx context.Context) (*models.DailyHistory, error) {
		return ds.meteo.GetDailyHistory(ctx, lat, lon)
	})
}

func (ds *WeatherDataSource) Alerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	return cached(ctx, ds, "alerts", coordKey("alerts", lat, lon), AlertsTTL, func(ctx context.Context) ([]models.Alert, error) {
		return ds.noaa.GetActiveAlerts(ctx, lat, lon)
	})
}

func (ds *WeatherDataSource) AirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	return cached(ctx, ds, "air_quality", coordKey("aqi", lat, lon), AirQualityTTL, func(ctx context.Context) (*models.AirQuality, error) {
		return ds.meteo.GetAirQuality(ctx, lat, lon)
	})
}

// LocationName never fails. When reverse geocoding is unavailable the
// coordinates themselves are returned, uncached.
func (ds *WeatherDataSource) LocationName(ctx context.Context, lat, lon float64) string {
	name, err := cached(ctx, ds, "place", coordKey("place", lat, lon), PlaceNameTTL, func(ctx context.Context) (string, error) {
		return ds.geocoder.ReverseGeocode(ctx, lat, lon)
	})
	if err != nil {
		return fmt.Sprintf("%.2f, %.2f", lat, lon)
	}
	return name
}

func (ds *WeatherDataSource) recordSample(obs *models.Observation) {
	ds.trendMu.Lock()
	defer ds.trendMu.Unlock()

	if obs.TemperatureC != nil {
		ds.temps = pushSample(ds.temps, *obs.TemperatureC)
	}
	if obs.PressurePa != nil {
		ds.pressure = pushSample(ds.pressure, *obs.PressurePa)
	}
}

func pushSample(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > trendWindow {
		buf = buf[len(buf)-trendWindow:]
	}
	return buf
}

func trendOf(samples []float64, threshold float64) models.Trend {
	if len(samples) < 2 {
		return models.TrendUnknown
	}
	change := samples[len(samples)-1] - samples[0]
	switch {
	case change > threshold:
		return models.TrendRising
	case change < -threshold:
		return models.TrendFalling
	default:
		return models.TrendSteady
	}
}

// Trends compares the newest and oldest samples in the rolling window.
func (ds *WeatherDataSource) Trends() models.Trends {
	ds.trendMu.Lock()
	defer ds.trendMu.Unlock()

	return models.Trends{
		Temperature: trendOf(ds.temps, tempTrendThreshold),
		Pressure:    trendOf(ds.pressure, pressureTrendThreshold),
	}
}

// RefreshReport lists the snapshot fields a refresh updated and those it had
// to leave untouched.
type RefreshReport struct {
	Updated []string
	Failed  []string
}

func (r RefreshReport) OK() bool {
	return len(r.Failed) == 0
}

// Refresh fetches every snapshot field for loc concurrently and writes each
// success into store. Failed fields keep their previous value.
func (ds *WeatherDataSource) Refresh(ctx context.Context, loc *models.Location, store *SnapshotStore) RefreshReport {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report RefreshReport
	)

	record := func(field string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed = append(report.Failed, field)
			return
		}
		report.Updated = append(report.Updated, field)
	}

	run := func(field string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(field, fn())
		}()
	}

	run("current", func() error {
		obs, err := ds.CurrentObservation(ctx, loc.ObservationStationID)
		if err != nil {
			return err
		}
		store.SetCurrent(obs)
		store.SetTrends(ds.Trends())
		return nil
	})
	run("forecast", func() error {
		periods, err := ds.Forecast(ctx, loc.GridOffice, loc.GridX, loc.GridY)
		if err != nil {
			return err
		}
		store.SetForecast(periods)
		return nil
	})
	run("hourly", func() error {
		periods, err := ds.HourlyForecast(ctx, loc.GridOffice, loc.GridX, loc.GridY)
		if err != nil {
			return err
		}
		store.SetHourly(periods)
		return nil
	})
	run("alerts", func() error {
		alerts, err := ds.Alerts(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return err
		}
		store.SetAlerts(alerts)
		return nil
	})
	run("air_quality", func() error {
		aq, err := ds.AirQuality(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			return err
		}
		store.SetAirQuality(aq)
		return nil
	})

	wg.Wait()

	store.SetScrollText(ScrollText(ds.placeLabel(ctx, loc), store.Snapshot()))

	ds.logger.Info("Weather refresh completed",
		zap.Strings("updated", report.Updated),
		zap.Strings("failed", report.Failed))
	return report
}

func (ds *WeatherDataSource) placeLabel(ctx context.Context, loc *models.Location) string {
	if loc.City != "" && loc.State != "" {
		return loc.City + ", " + loc.State
	}
	return ds.LocationName(ctx, loc.Latitude, loc.Longitude)
}

// ScrollText builds the bottom ticker line from whatever the snapshot holds.
func ScrollText(place string, snap models.WeatherSnapshot) string {
	text := "Conditions at " + place
	if cur := snap.Current; cur != nil {
		if cur.TextDescription != "" {
			text += "  " + cur.TextDescription
		}
		if cur.TemperatureC != nil {
			text += fmt.Sprintf("  Temp %.0f°F", models.CelsiusToFahrenheit(*cur.TemperatureC))
		}
		if cur.HumidityPct != nil {
			text += fmt.Sprintf("  Humidity %.0f%%", *cur.HumidityPct)
		}
	}
	if len(snap.Forecast) > 0 {
		p := snap.Forecast[0]
		text += fmt.Sprintf("  %s: %s", p.Name, p.ShortForecast)
	}
	return text
}
