package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weatherstar/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultIPAPIURL    = "https://ipapi.co/json/"
	DefaultIPAPIComURL = "http://ip-api.com/json/"
)

var ErrNotDetected = errors.New("location not detected")

// IPGeolocator resolves the host's public IP to coordinates. Only US results
// are accepted since NOAA does not cover anything else.
type IPGeolocator struct {
	http      HTTPGetter
	primary   string
	secondary string
	timeout   time.Duration
	logger    *zap.Logger
}

type ipapiResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryCode string  `json:"country_code"`
	Error       bool    `json:"error"`
}

type ipAPIComResponse struct {
	Status      string  `json:"status"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city"`
	RegionName  string  `json:"regionName"`
	CountryCode string  `json:"countryCode"`
}

func NewIPGeolocator(getter HTTPGetter, primaryURL, secondaryURL string, timeout time.Duration, logger *zap.Logger) *IPGeolocator {
	if primaryURL == "" {
		primaryURL = DefaultIPAPIURL
	}
	if secondaryURL == "" {
		secondaryURL = DefaultIPAPIComURL
	}
	return &IPGeolocator{
		http:      getter,
		primary:   primaryURL,
		secondary: secondaryURL,
		timeout:   timeout,
		logger:    logger,
	}
}

// Detect tries ipapi.co first, then ip-api.com.
func (g *IPGeolocator) Detect(ctx context.Context) (*models.DetectedLocation, error) {
	loc, err := g.detectIPAPI(ctx)
	if err == nil {
		return loc, nil
	}
	g.logger.Debug("IP geolocation failed", zap.String("provider", "ipapi.co"), zap.Error(err))

	loc, err = g.detectIPAPICom(ctx)
	if err == nil {
		return loc, nil
	}
	g.logger.Debug("IP geolocation failed", zap.String("provider", "ip-api.com"), zap.Error(err))

	return nil, ErrNotDetected
}

func (g *IPGeolocator) detectIPAPI(ctx context.Context) (*models.DetectedLocation, error) {
	var response ipapiResponse
	if err := getJSON(ctx, g.http, g.primary, nil, nil, g.timeout, &response); err != nil {
		return nil, err
	}
	if response.Error {
		return nil, fmt.Errorf("%w: provider reported an error", ErrNotDetected)
	}
	return usOnly(response.CountryCode, response.Latitude, response.Longitude, response.City, response.Region)
}

func (g *IPGeolocator) detectIPAPICom(ctx context.Context) (*models.DetectedLocation, error) {
	var response ipAPIComResponse
	if err := getJSON(ctx, g.http, g.secondary, nil, nil, g.timeout, &response); err != nil {
		return nil, err
	}
	if response.Status != "success" {
		return nil, fmt.Errorf("%w: status %q", ErrNotDetected, response.Status)
	}
	return usOnly(response.CountryCode, response.Lat, response.Lon, response.City, response.RegionName)
}

func usOnly(country string, lat, lon float64, city, region string) (*models.DetectedLocation, error) {
	if country != "US" {
		return nil, fmt.Errorf("%w: country %q outside NOAA coverage", ErrNotDetected, country)
	}
	if lat == 0 || lon == 0 {
		return nil, fmt.Errorf("%w: missing coordinates", ErrNotDetected)
	}
	return &models.DetectedLocation{
		Latitude:  lat,
		Longitude: lon,
		Label:     fmt.Sprintf("%s, %s", city, region),
	}, nil
}
