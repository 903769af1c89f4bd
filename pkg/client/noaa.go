package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

const DefaultNOAABaseURL = "https://api.weather.gov"

// NOAAClient talks to api.weather.gov. It performs no caching of its own.
type NOAAClient struct {
	http    HTTPGetter
	baseURL string
	timeout time.Duration
}

type noaaValue struct {
	Value    *float64 `json:"value"`
	UnitCode string   `json:"unitCode"`
}

type noaaPointResponse struct {
	Properties struct {
		GridID              string `json:"gridId"`
		GridX               int    `json:"gridX"`
		GridY               int    `json:"gridY"`
		Forecast            string `json:"forecast"`
		ForecastHourly      string `json:"forecastHourly"`
		ObservationStations string `json:"observationStations"`
		RadarStation        string `json:"radarStation"`
		RelativeLocation    struct {
			Properties struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

type noaaStationsResponse struct {
	Features []struct {
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
			Name              string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

type noaaObservationResponse struct {
	Properties struct {
		StationID          string    `json:"stationId"`
		Timestamp          time.Time `json:"timestamp"`
		TextDescription    string    `json:"textDescription"`
		Icon               string    `json:"icon"`
		Temperature        noaaValue `json:"temperature"`
		Dewpoint           noaaValue `json:"dewpoint"`
		RelativeHumidity   noaaValue `json:"relativeHumidity"`
		WindDirection      noaaValue `json:"windDirection"`
		WindSpeed          noaaValue `json:"windSpeed"`
		WindGust           noaaValue `json:"windGust"`
		BarometricPressure noaaValue `json:"barometricPressure"`
		Visibility         noaaValue `json:"visibility"`
		HeatIndex          noaaValue `json:"heatIndex"`
		WindChill          noaaValue `json:"windChill"`
		CloudLayers        []struct {
			Base   noaaValue `json:"base"`
			Amount string    `json:"amount"`
		} `json:"cloudLayers"`
	} `json:"properties"`
}

type noaaForecastResponse struct {
	Properties struct {
		Periods []struct {
			Number           int       `json:"number"`
			Name             string    `json:"name"`
			StartTime        time.Time `json:"startTime"`
			EndTime          time.Time `json:"endTime"`
			IsDaytime        bool      `json:"isDaytime"`
			Temperature      int       `json:"temperature"`
			TemperatureUnit  string    `json:"temperatureUnit"`
			WindSpeed        string    `json:"windSpeed"`
			WindDirection    string    `json:"windDirection"`
			Icon             string    `json:"icon"`
			ShortForecast    string    `json:"shortForecast"`
			DetailedForecast string    `json:"detailedForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

type noaaAlertsResponse struct {
	Features []struct {
		Properties struct {
			Event       string    `json:"event"`
			Headline    string    `json:"headline"`
			Severity    string    `json:"severity"`
			Description string    `json:"description"`
			Onset       time.Time `json:"onset"`
			Ends        time.Time `json:"ends"`
		} `json:"properties"`
	} `json:"features"`
}

func NewNOAAClient(getter HTTPGetter, baseURL string, timeout time.Duration) *NOAAClient {
	if baseURL == "" {
		baseURL = DefaultNOAABaseURL
	}
	return &NOAAClient{
		http:    getter,
		baseURL: baseURL,
		timeout: timeout,
	}
}

func (c *NOAAClient) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/geo+json")
	return h
}

func (c *NOAAClient) GetPoint(ctx context.Context, lat, lon float64) (*models.PointMetadata, error) {
	u := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)

	var response noaaPointResponse
	if err := getJSON(ctx, c.http, u, nil, c.headers(), c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch point metadata: %w", err)
	}

	p := response.Properties
	if p.GridID == "" {
		return nil, fmt.Errorf("failed to parse point metadata: missing grid id")
	}

	return &models.PointMetadata{
		GridOffice:          p.GridID,
		GridX:               p.GridX,
		GridY:               p.GridY,
		ForecastURL:         p.Forecast,
		ForecastHourlyURL:   p.ForecastHourly,
		ObservationStations: p.ObservationStations,
		RadarStation:        p.RadarStation,
		City:                p.RelativeLocation.Properties.City,
		State:               p.RelativeLocation.Properties.State,
	}, nil
}

func (c *NOAAClient) GetStations(ctx context.Context, stationsURL string) ([]models.Station, error) {
	var response noaaStationsResponse
	if err := getJSON(ctx, c.http, stationsURL, nil, c.headers(), c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}

	stations := make([]models.Station, 0, len(response.Features))
	for _, f := range response.Features {
		if f.Properties.StationIdentifier == "" {
			continue
		}
		stations = append(stations, models.Station{
			ID:   f.Properties.StationIdentifier,
			Name: f.Properties.Name,
		})
	}
	return stations, nil
}

func (c *NOAAClient) GetLatestObservation(ctx context.Context, stationID string) (*models.Observation, error) {
	u := fmt.Sprintf("%s/stations/%s/observations/latest", c.baseURL, url.PathEscape(stationID))

	var response noaaObservationResponse
	if err := getJSON(ctx, c.http, u, nil, c.headers(), c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch observation: %w", err)
	}

	p := response.Properties
	obs := &models.Observation{
		StationID:       stationID,
		Timestamp:       p.Timestamp,
		TextDescription: p.TextDescription,
		Icon:            p.Icon,
		TemperatureC:    p.Temperature.Value,
		DewpointC:       p.Dewpoint.Value,
		HumidityPct:     p.RelativeHumidity.Value,
		WindDirection:   p.WindDirection.Value,
		WindSpeedKmh:    p.WindSpeed.Value,
		WindGustKmh:     p.WindGust.Value,
		PressurePa:      p.BarometricPressure.Value,
		VisibilityM:     p.Visibility.Value,
		HeatIndexC:      p.HeatIndex.Value,
		WindChillC:      p.WindChill.Value,
	}
	for _, layer := range p.CloudLayers {
		obs.CloudLayers = append(obs.CloudLayers, models.CloudLayer{
			Amount: layer.Amount,
			BaseM:  layer.Base.Value,
		})
	}
	return obs, nil
}

func (c *NOAAClient) GetForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error) {
	u := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast", c.baseURL, office, gridX, gridY)
	return c.getPeriods(ctx, u)
}

func (c *NOAAClient) GetHourlyForecast(ctx context.Context, office string, gridX, gridY int) (models.PeriodList, error) {
	u := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", c.baseURL, office, gridX, gridY)
	return c.getPeriods(ctx, u)
}

func (c *NOAAClient) getPeriods(ctx context.Context, u string) (models.PeriodList, error) {
	params := url.Values{}
	params.Set("units", "us")

	var response noaaForecastResponse
	if err := getJSON(ctx, c.http, u, params, c.headers(), c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	periods := make(models.PeriodList, 0, len(response.Properties.Periods))
	for _, p := range response.Properties.Periods {
		periods = append(periods, models.Period{
			Number:           p.Number,
			Name:             p.Name,
			IsDaytime:        p.IsDaytime,
			Temperature:      p.Temperature,
			TemperatureUnit:  p.TemperatureUnit,
			WindSpeed:        p.WindSpeed,
			WindDirection:    p.WindDirection,
			ShortForecast:    p.ShortForecast,
			DetailedForecast: p.DetailedForecast,
			Icon:             p.Icon,
			StartTime:        p.StartTime,
			EndTime:          p.EndTime,
		})
	}
	return periods, nil
}

func (c *NOAAClient) GetActiveAlerts(ctx context.Context, lat, lon float64) ([]models.Alert, error) {
	params := url.Values{}
	params.Set("point", fmt.Sprintf("%.4f,%.4f", lat, lon))

	var response noaaAlertsResponse
	if err := getJSON(ctx, c.http, c.baseURL+"/alerts/active", params, c.headers(), c.timeout, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	alerts := make([]models.Alert, 0, len(response.Features))
	for _, f := range response.Features {
		p := f.Properties
		alerts = append(alerts, models.Alert{
			Event:       p.Event,
			Headline:    p.Headline,
			Severity:    p.Severity,
			Description: p.Description,
			Onset:       p.Onset,
			Ends:        p.Ends,
		})
	}
	return alerts, nil
}
