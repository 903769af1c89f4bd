package display

import (
	"github.com/bobby-s-dev/weatherstar/internal/models"
)

// ScreenID names one presentation mode of the display loop.
type ScreenID string

const (
	ScreenCurrentConditions  ScreenID = "current-conditions"
	ScreenLocalForecast      ScreenID = "local-forecast"
	ScreenExtendedForecast   ScreenID = "extended-forecast"
	ScreenHourly             ScreenID = "hourly"
	ScreenLatestObservations ScreenID = "latest-observations"
	ScreenTravelCities       ScreenID = "travel-cities"
	ScreenAlmanac            ScreenID = "almanac"
	ScreenRadar              ScreenID = "radar"
	ScreenHazards            ScreenID = "hazards"
	ScreenMarineForecast     ScreenID = "marine-forecast"
	ScreenAirQuality         ScreenID = "air-quality"
	ScreenTemperatureGraph   ScreenID = "temperature-graph"
	ScreenWeatherRecords     ScreenID = "weather-records"
	ScreenSunMoon            ScreenID = "sun-moon"
	ScreenWindPressure       ScreenID = "wind-pressure"
	ScreenWeekendForecast    ScreenID = "weekend-forecast"
	ScreenMonthlyOutlook     ScreenID = "monthly-outlook"
	ScreenMSNNews            ScreenID = "msn-news"
	ScreenRedditNews         ScreenID = "reddit-news"
	ScreenLocalNews          ScreenID = "local-news"
)

// AllScreens lists every known screen, base sequence first.
var AllScreens = []ScreenID{
	ScreenCurrentConditions, ScreenExtendedForecast, ScreenHourly, ScreenLatestObservations,
	ScreenTravelCities, ScreenLocalForecast, ScreenAlmanac, ScreenRadar, ScreenHazards,
	ScreenAirQuality, ScreenTemperatureGraph, ScreenWeatherRecords, ScreenSunMoon,
	ScreenWindPressure, ScreenWeekendForecast, ScreenMonthlyOutlook,
	ScreenMarineForecast, ScreenMSNNews, ScreenRedditNews, ScreenLocalNews,
}

func ParseScreenID(s string) (ScreenID, bool) {
	for _, id := range AllScreens {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// ScreenData is everything a renderer may draw from. Any part can be empty.
type ScreenData struct {
	Location *models.Location
	Snapshot models.WeatherSnapshot
	History  models.HistorySeries
}

type SnapshotReader interface {
	Snapshot() models.WeatherSnapshot
}

type HistoryReader interface {
	Latest() models.HistorySeries
}

// DataProvider hands the scheduler a copy of the latest data. It must never
// block on the network.
type DataProvider interface {
	ScreenData() ScreenData
}

// StoreData reads from the in-memory stores filled by the refresh worker.
type StoreData struct {
	Location  *models.Location
	Snapshots SnapshotReader
	History   HistoryReader
}

func (d StoreData) ScreenData() ScreenData {
	data := ScreenData{Location: d.Location}
	if d.Snapshots != nil {
		data.Snapshot = d.Snapshots.Snapshot()
	}
	if d.History != nil {
		data.History = d.History.Latest()
	}
	return data
}
