package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/pkg/client"
)

const pointBody = `{
  "properties": {
    "gridId": "MLB",
    "gridX": 26,
    "gridY": 68,
    "forecast": "https://api.weather.gov/gridpoints/MLB/26,68/forecast",
    "forecastHourly": "https://api.weather.gov/gridpoints/MLB/26,68/forecast/hourly",
    "observationStations": "https://api.weather.gov/gridpoints/MLB/26,68/stations",
    "radarStation": "KMLB",
    "relativeLocation": {"properties": {"city": "Orlando", "state": "FL"}}
  }
}`

const observationBody = `{
  "properties": {
    "timestamp": "2026-10-19T12:53:00+00:00",
    "textDescription": "Mostly Cloudy",
    "temperature": {"unitCode": "wmoUnit:degC", "value": 27.2},
    "dewpoint": {"unitCode": "wmoUnit:degC", "value": 21.1},
    "relativeHumidity": {"unitCode": "wmoUnit:percent", "value": 69.5},
    "windDirection": {"unitCode": "wmoUnit:degree_(angle)", "value": 90},
    "windSpeed": {"unitCode": "wmoUnit:km_h-1", "value": 14.8},
    "windGust": {"unitCode": "wmoUnit:km_h-1", "value": null},
    "barometricPressure": {"unitCode": "wmoUnit:Pa", "value": 101660},
    "visibility": {"unitCode": "wmoUnit:m", "value": 16090},
    "cloudLayers": [{"base": {"unitCode": "wmoUnit:m", "value": 910}, "amount": "BKN"}]
  }
}`

const forecastBody = `{
  "properties": {
    "periods": [
      {"number": 1, "name": "Tonight", "isDaytime": false, "temperature": 72, "temperatureUnit": "F",
       "windSpeed": "5 mph", "windDirection": "E", "shortForecast": "Partly Cloudy",
       "detailedForecast": "Partly cloudy, with a low around 72.", "startTime": "2026-10-19T18:00:00-04:00",
       "endTime": "2026-10-20T06:00:00-04:00"},
      {"number": 2, "name": "Monday", "isDaytime": true, "temperature": 88, "temperatureUnit": "F",
       "windSpeed": "10 mph", "windDirection": "E", "shortForecast": "Chance Showers And Thunderstorms",
       "detailedForecast": "A chance of showers.", "startTime": "2026-10-20T06:00:00-04:00",
       "endTime": "2026-10-20T18:00:00-04:00"}
    ]
  }
}`

func newNOAAServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/points/28.5383,-81.3792", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pointBody))
	})
	mux.HandleFunc("/gridpoints/MLB/26,68/stations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": [
			{"properties": {"stationIdentifier": "KORL", "name": "Orlando Executive Airport"}},
			{"properties": {"stationIdentifier": "KMCO", "name": "Orlando International Airport"}}
		]}`))
	})
	mux.HandleFunc("/stations/KORL/observations/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(observationBody))
	})
	mux.HandleFunc("/gridpoints/MLB/26,68/forecast", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/alerts/active", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "28.5383,-81.3792", r.URL.Query().Get("point"))
		_, _ = w.Write([]byte(`{"features": [{"properties": {
			"event": "Rip Current Statement", "headline": "Rip Current Statement issued",
			"severity": "Moderate", "description": "Dangerous rip currents.",
			"onset": "2026-10-19T08:00:00-04:00", "ends": null}}]}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"properties": `))
	})
	return httptest.NewServer(mux)
}

func newNOAAClient(ts *httptest.Server) *client.NOAAClient {
	cfg := testConfig()
	cfg.MaxRetries = 0
	return client.NewNOAAClient(client.NewBaseClient("noaa", cfg, zap.NewNop()), ts.URL, time.Second)
}

func TestNOAAClient_GetPoint(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()

	point, err := newNOAAClient(ts).GetPoint(context.Background(), 28.5383, -81.3792)

	require.NoError(t, err)
	assert.Equal(t, "MLB", point.GridOffice)
	assert.Equal(t, 26, point.GridX)
	assert.Equal(t, 68, point.GridY)
	assert.Equal(t, "KMLB", point.RadarStation)
	assert.Equal(t, "Orlando", point.City)
	assert.Equal(t, "FL", point.State)
}

func TestNOAAClient_GetStations(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()

	stations, err := newNOAAClient(ts).GetStations(context.Background(), ts.URL+"/gridpoints/MLB/26,68/stations")

	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "KORL", stations[0].ID)
	assert.Equal(t, "Orlando International Airport", stations[1].Name)
}

func TestNOAAClient_GetLatestObservation(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()

	obs, err := newNOAAClient(ts).GetLatestObservation(context.Background(), "KORL")

	require.NoError(t, err)
	assert.Equal(t, "KORL", obs.StationID)
	assert.Equal(t, "Mostly Cloudy", obs.TextDescription)
	require.NotNil(t, obs.TemperatureC)
	assert.InDelta(t, 27.2, *obs.TemperatureC, 0.001)
	require.NotNil(t, obs.PressurePa)
	assert.InDelta(t, 101660, *obs.PressurePa, 0.001)
	assert.Nil(t, obs.WindGustKmh)
	require.Len(t, obs.CloudLayers, 1)
	assert.Equal(t, "BKN", obs.CloudLayers[0].Amount)
}

func TestNOAAClient_GetForecast(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()

	periods, err := newNOAAClient(ts).GetForecast(context.Background(), "MLB", 26, 68)

	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "Tonight", periods[0].Name)
	assert.False(t, periods[0].IsDaytime)
	assert.Equal(t, 88, periods[1].Temperature)
}

func TestNOAAClient_GetActiveAlerts(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()

	alerts, err := newNOAAClient(ts).GetActiveAlerts(context.Background(), 28.5383, -81.3792)

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Rip Current Statement", alerts[0].Event)
	assert.True(t, alerts[0].Ends.IsZero())
	assert.False(t, alerts[0].Onset.IsZero())
}

func TestNOAAClient_Errors(t *testing.T) {
	ts := newNOAAServer(t)
	defer ts.Close()
	c := newNOAAClient(ts)

	_, err := c.GetLatestObservation(context.Background(), "NOPE")
	assert.ErrorIs(t, err, client.ErrUnexpectedStatus)

	_, err = c.GetStations(context.Background(), ts.URL+"/broken")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
