package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

const (
	FallbackLatitude  = 28.5383
	FallbackLongitude = -81.3792
	FallbackLabel     = "Orlando, FL"
)

// ConfigurationError means no usable location could be established. The
// display must not start when it is returned.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type Geolocator interface {
	Detect(ctx context.Context) (*models.DetectedLocation, error)
}

// LocationRequest carries the startup inputs, in priority order: explicit
// coordinates, then a saved location when auto detection is off, then
// geolocation.
type LocationRequest struct {
	Latitude   *float64
	Longitude  *float64
	AutoDetect bool
	Saved      *models.DetectedLocation
}

type LocationResolver struct {
	source     *WeatherDataSource
	geolocator Geolocator
	logger     *zap.Logger
}

func NewLocationResolver(source *WeatherDataSource, geolocator Geolocator, logger *zap.Logger) *LocationResolver {
	return &LocationResolver{
		source:     source,
		geolocator: geolocator,
		logger:     logger,
	}
}

// Resolve picks coordinates, then looks up the NOAA grid and an observation
// station for them.
func (r *LocationResolver) Resolve(ctx context.Context, req LocationRequest) (*models.Location, error) {
	lat, lon := r.coordinates(ctx, req)

	point, err := r.source.PointMetadata(ctx, lat, lon)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("no NOAA grid for %.4f,%.4f", lat, lon), Err: err}
	}

	loc := &models.Location{
		Latitude:       lat,
		Longitude:      lon,
		City:           point.City,
		State:          point.State,
		GridOffice:     point.GridOffice,
		GridX:          point.GridX,
		GridY:          point.GridY,
		RadarStationID: point.RadarStation,
	}

	if point.ObservationStations == "" {
		return nil, &ConfigurationError{Reason: "point metadata lists no observation stations"}
	}
	stations, err := r.source.Stations(ctx, point.ObservationStations)
	if err != nil {
		return nil, &ConfigurationError{Reason: "observation stations unavailable", Err: err}
	}
	station, ok := SelectStation(stations)
	if !ok {
		return nil, &ConfigurationError{Reason: "no observation station resolvable"}
	}
	loc.ObservationStationID = station.ID

	r.logger.Info("Location initialized",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("city", loc.City),
		zap.String("state", loc.State),
		zap.String("grid", fmt.Sprintf("%s/%d,%d", loc.GridOffice, loc.GridX, loc.GridY)),
		zap.String("station", loc.ObservationStationID),
		zap.String("radar", loc.RadarStationID))
	return loc, nil
}

func (r *LocationResolver) coordinates(ctx context.Context, req LocationRequest) (float64, float64) {
	if req.Latitude != nil && req.Longitude != nil {
		r.logger.Info("Using explicit coordinates")
		return *req.Latitude, *req.Longitude
	}

	if !req.AutoDetect && req.Saved != nil {
		r.logger.Info("Using saved location", zap.String("label", req.Saved.Label))
		return req.Saved.Latitude, req.Saved.Longitude
	}

	if r.geolocator != nil {
		detected, err := r.geolocator.Detect(ctx)
		if err == nil {
			r.logger.Info("Using auto-detected location", zap.String("label", detected.Label))
			return detected.Latitude, detected.Longitude
		}
		r.logger.Warn("Automatic location detection failed", zap.Error(err))
	}

	r.logger.Info("Using default location", zap.String("label", FallbackLabel))
	return FallbackLatitude, FallbackLongitude
}

// SelectStation prefers a 4-letter ICAO id that does not start with U or C,
// falling back to the first station listed.
func SelectStation(stations []models.Station) (models.Station, bool) {
	for _, s := range stations {
		if len(s.ID) == 4 && s.ID[0] != 'U' && s.ID[0] != 'C' {
			return s, true
		}
	}
	if len(stations) > 0 {
		return stations[0], true
	}
	return models.Station{}, false
}
