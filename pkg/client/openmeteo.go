package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

const (
	DefaultOpenMeteoBaseURL  = "https://api.open-meteo.com/v1"
	DefaultAirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1"

	historyPastDays = 30
)

type OpenMeteoClient struct {
	http       HTTPGetter
	baseURL    string
	airBaseURL string
	timeout    time.Duration
}

type OpenMeteoHistoryResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     struct {
		Time             []string   `json:"time"`
		Temperature2MMax []*float64 `json:"temperature_2m_max"`
		Temperature2MMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		WeatherCode      []*int     `json:"weather_code"`
	} `json:"daily"`
}

type OpenMeteoAirQualityResponse struct {
	Current struct {
		Time  string   `json:"time"`
		USAQI *float64 `json:"us_aqi"`
		PM10  *float64 `json:"pm10"`
		PM25  *float64 `json:"pm2_5"`
		Ozone *float64 `json:"ozone"`
		NO2   *float64 `json:"nitrogen_dioxide"`
		CO    *float64 `json:"carbon_monoxide"`
		SO2   *float64 `json:"sulphur_dioxide"`
	} `json:"current"`
}

func NewOpenMeteoClient(getter HTTPGetter, baseURL, airBaseURL string, timeout time.Duration) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	if airBaseURL == "" {
		airBaseURL = DefaultAirQualityBaseURL
	}
	return &OpenMeteoClient{
		http:       getter,
		baseURL:    baseURL,
		airBaseURL: airBaseURL,
		timeout:    timeout,
	}
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("timezone", "auto")
	return params
}

// GetDailyHistory fetches the last 30 days of daily highs, lows and
// precipitation in Fahrenheit and inches. Missing upstream values stay nil.
func (c *OpenMeteoClient) GetDailyHistory(ctx context.Context, lat, lon float64) (*models.DailyHistory, error) {
	params := coordParams(lat, lon)
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	params.Set("past_days", strconv.Itoa(historyPastDays))
	params.Set("forecast_days", "1")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("precipitation_unit", "inch")

	var response OpenMeteoHistoryResponse
	if err := getJSON(ctx, c.http, c.baseURL+"/forecast", params, nil, c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	d := response.Daily
	history := &models.DailyHistory{
		Dates:         d.Time,
		TempMax:       d.Temperature2MMax,
		TempMin:       d.Temperature2MMin,
		Precipitation: d.PrecipitationSum,
		Conditions:    make([]string, len(d.Time)),
	}
	for i := range d.Time {
		if i < len(d.WeatherCode) && d.WeatherCode[i] != nil {
			history.Conditions[i] = WeatherCodeDescription(*d.WeatherCode[i])
		}
	}
	return history, nil
}

func (c *OpenMeteoClient) GetAirQuality(ctx context.Context, lat, lon float64) (*models.AirQuality, error) {
	params := coordParams(lat, lon)
	params.Set("current", "us_aqi,pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone")

	var response OpenMeteoAirQualityResponse
	if err := getJSON(ctx, c.http, c.airBaseURL+"/air-quality", params, nil, c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch air quality: %w", err)
	}

	cur := response.Current
	if cur.USAQI == nil {
		return nil, fmt.Errorf("failed to parse air quality: us_aqi missing")
	}

	aqi := int(*cur.USAQI + 0.5)
	return &models.AirQuality{
		AQI:      aqi,
		PM10:     deref(cur.PM10),
		PM25:     deref(cur.PM25),
		Ozone:    deref(cur.Ozone),
		Category: AQICategory(aqi),
	}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// AQICategory maps a US AQI value onto its EPA category name.
func AQICategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// WMO Weather interpretation codes
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func WeatherCodeDescription(code int) string {
	if desc, ok := weatherCodes[code]; ok {
		return desc
	}
	return "Unknown"
}
