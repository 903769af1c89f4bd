package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimClient reverse geocodes coordinates into "City, State".
type NominatimClient struct {
	http    HTTPGetter
	baseURL string
	timeout time.Duration
}

type nominatimReverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		County  string `json:"county"`
		State   string `json:"state"`
	} `json:"address"`
}

func NewNominatimClient(getter HTTPGetter, baseURL string, timeout time.Duration) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	return &NominatimClient{
		http:    getter,
		baseURL: baseURL,
		timeout: timeout,
	}
}

func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("format", "json")
	params.Set("zoom", "10")

	var response nominatimReverseResponse
	if err := getJSON(ctx, c.http, c.baseURL+"/reverse", params, nil, c.timeout, &response); err != nil {
		return "", fmt.Errorf("failed to reverse geocode: %w", err)
	}

	a := response.Address
	place := firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.County)
	switch {
	case place != "" && a.State != "":
		return place + ", " + a.State, nil
	case place != "":
		return place, nil
	default:
		return "", fmt.Errorf("failed to reverse geocode: no place for %.4f,%.4f", lat, lon)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
