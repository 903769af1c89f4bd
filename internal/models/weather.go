package models

import (
	"strings"
	"time"
)

type Location struct {
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	City                 string  `json:"city"`
	State                string  `json:"state"`
	GridOffice           string  `json:"grid_office"`
	GridX                int     `json:"grid_x"`
	GridY                int     `json:"grid_y"`
	ObservationStationID string  `json:"observation_station_id"`
	RadarStationID       string  `json:"radar_station_id"`
}

// PointMetadata is the subset of the NOAA /points response the display needs.
type PointMetadata struct {
	GridOffice          string `json:"grid_office"`
	GridX               int    `json:"grid_x"`
	GridY               int    `json:"grid_y"`
	ForecastURL         string `json:"forecast_url"`
	ForecastHourlyURL   string `json:"forecast_hourly_url"`
	ObservationStations string `json:"observation_stations"`
	RadarStation        string `json:"radar_station"`
	City                string `json:"city"`
	State               string `json:"state"`
}

type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CloudLayer struct {
	Amount string   `json:"amount"`
	BaseM  *float64 `json:"base_m,omitempty"`
}

// Observation is a station's latest report. Measurements are in SI units as
// published by NOAA and are nil when the station omitted them.
type Observation struct {
	StationID       string       `json:"station_id"`
	Timestamp       time.Time    `json:"timestamp"`
	TextDescription string       `json:"text_description"`
	Icon            string       `json:"icon"`
	TemperatureC    *float64     `json:"temperature_c,omitempty"`
	DewpointC       *float64     `json:"dewpoint_c,omitempty"`
	HumidityPct     *float64     `json:"humidity_pct,omitempty"`
	WindDirection   *float64     `json:"wind_direction,omitempty"`
	WindSpeedKmh    *float64     `json:"wind_speed_kmh,omitempty"`
	WindGustKmh     *float64     `json:"wind_gust_kmh,omitempty"`
	PressurePa      *float64     `json:"pressure_pa,omitempty"`
	VisibilityM     *float64     `json:"visibility_m,omitempty"`
	HeatIndexC      *float64     `json:"heat_index_c,omitempty"`
	WindChillC      *float64     `json:"wind_chill_c,omitempty"`
	CloudLayers     []CloudLayer `json:"cloud_layers,omitempty"`
}

type Period struct {
	Number           int       `json:"number"`
	Name             string    `json:"name"`
	IsDaytime        bool      `json:"is_daytime"`
	Temperature      int       `json:"temperature"`
	TemperatureUnit  string    `json:"temperature_unit"`
	WindSpeed        string    `json:"wind_speed"`
	WindDirection    string    `json:"wind_direction"`
	ShortForecast    string    `json:"short_forecast"`
	DetailedForecast string    `json:"detailed_forecast"`
	Icon             string    `json:"icon"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
}

// PeriodList is ordered chronologically. Consumers pair day and night
// periods by index parity, so the order must never be changed.
type PeriodList []Period

// DayNightPair is one calendar day of a 12-hourly forecast. Night is nil when
// the list ends on a daytime period.
type DayNightPair struct {
	Day   *Period
	Night *Period
}

// DayNightPairs groups periods two at a time. When the list starts at night
// (forecast issued in the evening) the first pair carries only Night.
func (pl PeriodList) DayNightPairs() []DayNightPair {
	var pairs []DayNightPair
	i := 0
	if len(pl) > 0 && !pl[0].IsDaytime {
		pairs = append(pairs, DayNightPair{Night: &pl[0]})
		i = 1
	}
	for ; i < len(pl); i += 2 {
		p := DayNightPair{Day: &pl[i]}
		if i+1 < len(pl) {
			p.Night = &pl[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// Weekend returns the Saturday and Sunday periods, day and night.
func (pl PeriodList) Weekend() PeriodList {
	var out PeriodList
	for _, p := range pl {
		name := strings.ToLower(p.Name)
		if strings.HasPrefix(name, "saturday") || strings.HasPrefix(name, "sunday") {
			out = append(out, p)
		}
	}
	return out
}

var hazardKeywords = []string{"storm", "severe", "warning", "watch", "advisory"}

// Hazards returns the periods whose detailed forecast mentions hazardous
// weather. It backs the hazards screen when NOAA reports no active alerts.
func (pl PeriodList) Hazards() PeriodList {
	var out PeriodList
	for _, p := range pl {
		text := strings.ToLower(p.DetailedForecast)
		for _, kw := range hazardKeywords {
			if strings.Contains(text, kw) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

type Alert struct {
	Event       string    `json:"event"`
	Headline    string    `json:"headline"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Onset       time.Time `json:"onset"`
	Ends        time.Time `json:"ends"`
}

type AirQuality struct {
	AQI      int     `json:"aqi"`
	PM10     float64 `json:"pm10"`
	PM25     float64 `json:"pm2_5"`
	Ozone    float64 `json:"ozone"`
	Category string  `json:"category"`
}

type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

type Trend string

const (
	TrendUnknown Trend = "unknown"
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendSteady  Trend = "steady"
)

type Trends struct {
	Temperature Trend `json:"temperature"`
	Pressure    Trend `json:"pressure"`
}

// WeatherSnapshot is filled field by field as fetches complete. Any field may
// be absent at any time.
type WeatherSnapshot struct {
	Current    *Observation          `json:"current,omitempty"`
	Forecast   PeriodList            `json:"forecast,omitempty"`
	Hourly     PeriodList            `json:"hourly,omitempty"`
	Alerts     []Alert               `json:"alerts,omitempty"`
	AirQuality *AirQuality           `json:"air_quality,omitempty"`
	Headlines  map[string][]Headline `json:"headlines,omitempty"`
	Trends     Trends                `json:"trends"`
	ScrollText string                `json:"scroll_text,omitempty"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// DailyHistory is the raw Open-Meteo daily payload. Entries may be null
// upstream, hence the pointers.
type DailyHistory struct {
	Dates         []string   `json:"dates"`
	TempMax       []*float64 `json:"temp_max"`
	TempMin       []*float64 `json:"temp_min"`
	Precipitation []*float64 `json:"precipitation"`
	Conditions    []string   `json:"conditions"`
}

type HistoryDay struct {
	Date          time.Time `json:"date"`
	TempHigh      float64   `json:"temp_high"`
	TempLow       float64   `json:"temp_low"`
	TempAvg       float64   `json:"temp_avg"`
	Precipitation float64   `json:"precipitation"`
	Conditions    string    `json:"conditions,omitempty"`
}

// HistorySeries is ordered oldest to newest.
type HistorySeries []HistoryDay

// DetectedLocation is the result of IP geolocation.
type DetectedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}
