package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

func TestSelectStation(t *testing.T) {
	tests := []struct {
		name     string
		stations []models.Station
		want     string
		ok       bool
	}{
		{"prefers four letter K station", []models.Station{{ID: "UUUU"}, {ID: "CYYZ"}, {ID: "FL123"}, {ID: "KMCO"}}, "KMCO", true},
		{"falls back to first", []models.Station{{ID: "FL123"}, {ID: "CYYZ"}}, "FL123", true},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectStation(tt.stations)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestLocationResolver_ExplicitCoordinates(t *testing.T) {
	f := newSourceFixture()
	geo := &fakeGeolocator{loc: &models.DetectedLocation{Latitude: 1, Longitude: 2}}
	r := NewLocationResolver(f.ds, geo, zap.NewNop())
	lat, lon := 30.0, -90.0

	loc, err := r.Resolve(context.Background(), LocationRequest{Latitude: &lat, Longitude: &lon, AutoDetect: true})

	require.NoError(t, err)
	assert.Equal(t, 30.0, loc.Latitude)
	assert.Equal(t, -90.0, loc.Longitude)
	assert.Equal(t, "MLB", loc.GridOffice)
	assert.Equal(t, "KORL", loc.ObservationStationID)
	assert.Equal(t, "KMLB", loc.RadarStationID)
}

func TestLocationResolver_CoordinateSources(t *testing.T) {
	saved := &models.DetectedLocation{Latitude: 40, Longitude: -75, Label: "Saved"}
	detected := &models.DetectedLocation{Latitude: 35, Longitude: -80, Label: "Detected"}

	tests := []struct {
		name    string
		req     LocationRequest
		geo     *fakeGeolocator
		wantLat float64
	}{
		{"saved location when auto detect is off", LocationRequest{AutoDetect: false, Saved: saved}, &fakeGeolocator{loc: detected}, 40},
		{"detected when auto detect is on", LocationRequest{AutoDetect: true, Saved: saved}, &fakeGeolocator{loc: detected}, 35},
		{"fallback when detection fails", LocationRequest{AutoDetect: true}, &fakeGeolocator{err: errors.New("offline")}, FallbackLatitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSourceFixture()
			loc, err := NewLocationResolver(f.ds, tt.geo, zap.NewNop()).Resolve(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, loc.Latitude)
		})
	}
}

func TestLocationResolver_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeNOAA)
	}{
		{"point lookup fails", func(n *fakeNOAA) { n.setFail("point", true) }},
		{"stations fail", func(n *fakeNOAA) { n.setFail("stations", true) }},
		{"no stations", func(n *fakeNOAA) { n.stations = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSourceFixture()
			tt.setup(f.noaa)
			r := NewLocationResolver(f.ds, &fakeGeolocator{err: errors.New("offline")}, zap.NewNop())

			loc, err := r.Resolve(context.Background(), LocationRequest{AutoDetect: true})

			assert.Nil(t, loc)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.NotEmpty(t, cfgErr.Reason)
		})
	}
}
