package services

import (
	"context"
	"errors"
	"sync"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

var errUpstream = errors.New("upstream exploded")

func ptr(v float64) *float64 { return &v }

// fakeNOAA counts calls per method and fails any method listed in fail.
type fakeNOAA struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool

	point    *models.PointMetadata
	stations []models.Station
	obs      []*models.Observation
	forecast models.PeriodList
	hourly   models.PeriodList
	alerts   []models.Alert
}

func newFakeNOAA() *fakeNOAA {
	return &fakeNOAA{
		calls: make(map[string]int),
		fail:  make(map[string]bool),
		point: &models.PointMetadata{
			GridOffice:          "MLB",
			GridX:               26,
			GridY:               68,
			ObservationStations: "https://api.weather.gov/gridpoints/MLB/26,68/stations",
			RadarStation:        "KMLB",
			City:                "Orlando",
			State:               "FL",
		},
		stations: []models.Station{{ID: "KORL"}, {ID: "KMCO"}},
		obs: []*models.Observation{
			{StationID: "KORL", TextDescription: "Sunny", TemperatureC: ptr(25), PressurePa: ptr(101600)},
		},
		forecast: models.PeriodList{{Number: 1, Name: "Today", IsDaytime: true, ShortForecast: "Sunny"}},
		hourly:   models.PeriodList{{Number: 1, Name: "", IsDaytime: true}},
		alerts:   []models.Alert{{Event: "Heat Advisory"}},
	}
}

func (f *fakeNOAA) hit(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.fail[method] {
		return errUpstream
	}
	return nil
}

func (f *fakeNOAA) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeNOAA) setFail(method string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = fail
}

func (f *fakeNOAA) GetPoint(ctx context.Context, lat, lon float64) (*models.PointMetadata, error) {
	if err := f.hit("point"); err != nil {
		return nil, err
	}
	return f.point, nil
}

func (f *fakeNOAA) GetStations(ctx context.Context, stationsURL string) ([]models.Station, error) {
	if err := f.hit("stations"); err != nil {
		return nil, err
	}
	return f.stations, nil
}

// GetLatestObservation walks through obs, repeating the last one.
func (f *fakeNOAA) GetLatestObservation(ctx context.Context, stationID string) (*models.Observation, error) {
	if err := f.hit("obs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls["obs"] - 1
	if i >= len(f.obs) {
		i = len(f.obs) - 1
	}
	return f.obs[i], nil
}

func (f *fakeNOAA) GetForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error) {
	if err := f.hit("forecast"); err != nil {
		return nil, err
	}
	return f.forecast, nil
}

func (f *fakeNOAA) GetHourlyForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error) {
	if err := f.hit("hourly"); err != nil {
		return nil, err
	}
	return f.hourly, nil
}

func (f *fakeNOAA) GetActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	if err := f.hit("alerts"); err != nil {
		return nil, err
	}
	return f.alerts, nil
}

type fakeMeteo struct {
	mu      sync.Mutex
	calls   int
	fail    bool
	history *models.DailyHistory
}

func (f *fakeMeteo) GetDailyHistory(ctx context.Context, lat, lon float64) (*models.DailyHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errUpstream
	}
	return f.history, nil
}

func (f *fakeMeteo) GetAirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	if f.fail {
		return nil, errUpstream
	}
	return &models.AirQuality{AQI: 42, Category: "Good"}, nil
}

type fakeGeocoder struct {
	calls int
	name  string
	err   error
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	f.calls++
	return f.name, f.err
}

type fakeGeolocator struct {
	loc *models.DetectedLocation
	err error
}

func (f *fakeGeolocator) Detect(ctx context.Context) (*models.DetectedLocation, error) {
	return f.loc, f.err
}
