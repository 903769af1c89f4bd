package render

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/bobby-s-dev/weatherstar/internal/display"
	"github.com/bobby-s-dev/weatherstar/internal/models"
	"github.com/bobby-s-dev/weatherstar/internal/services"
)

type screenFunc func(p *page, data display.ScreenData)

func screenTable() map[display.ScreenID]screenFunc {
	return map[display.ScreenID]screenFunc{
		display.ScreenCurrentConditions:  drawCurrentConditions,
		display.ScreenLocalForecast:      drawLocalForecast,
		display.ScreenExtendedForecast:   drawExtendedForecast,
		display.ScreenHourly:             drawHourly,
		display.ScreenLatestObservations: drawLatestObservations,
		display.ScreenTravelCities:       drawTravelForecast,
		display.ScreenAlmanac:            drawAlmanac,
		display.ScreenRadar:              drawRadar,
		display.ScreenHazards:            drawHazards,
		display.ScreenMarineForecast:     drawMarineForecast,
		display.ScreenAirQuality:         drawAirQuality,
		display.ScreenTemperatureGraph:   drawTemperatureGraph,
		display.ScreenWeatherRecords:     drawWeatherRecords,
		display.ScreenSunMoon:            drawSunMoon,
		display.ScreenWindPressure:       drawWindPressure,
		display.ScreenWeekendForecast:    drawWeekendForecast,
		display.ScreenMonthlyOutlook:     drawMonthlyOutlook,
		display.ScreenMSNNews:            newsScreen("MSN", services.NewsSourceMSN),
		display.ScreenRedditNews:         newsScreen("Reddit", services.NewsSourceReddit),
		display.ScreenLocalNews:          newsScreen("Local", services.NewsSourceLocal),
	}
}

func placeName(loc *models.Location) string {
	if loc == nil || loc.City == "" {
		return ""
	}
	if loc.State == "" {
		return loc.City
	}
	return loc.City + ", " + loc.State
}

func drawCurrentConditions(p *page, data display.ScreenData) {
	p.header("Current", "Conditions")
	if name := placeName(data.Location); name != "" {
		p.line("%s", name)
	}

	cur := data.Snapshot.Current
	if cur == nil {
		p.unavailable("current conditions")
		return
	}
	trends := data.Snapshot.Trends

	p.blank()
	p.line("  %s  %s", fahrenheit(cur.TemperatureC)+trendArrow(trends.Temperature), cur.TextDescription)
	p.blank()
	p.field("Humidity", percent(cur.HumidityPct))
	p.field("Dewpoint", fahrenheit(cur.DewpointC))
	switch {
	case cur.HeatIndexC != nil:
		p.field("Heat Index", fahrenheit(cur.HeatIndexC))
	case cur.WindChillC != nil:
		p.field("Wind Chill", fahrenheit(cur.WindChillC))
	}
	p.field("Wind", wind(cur.WindDirection, cur.WindSpeedKmh))
	if cur.WindGustKmh != nil {
		p.field("Gusts", mph(cur.WindGustKmh))
	}
	p.field("Pressure", inHg(cur.PressurePa)+" "+trendArrow(trends.Pressure))
	p.field("Visibility", miles(cur.VisibilityM))
	p.field("Ceiling", ceiling(cur.CloudLayers))
}

func drawLocalForecast(p *page, data display.ScreenData) {
	p.header("Local", "Forecast")
	periods := data.Snapshot.Forecast
	if len(periods) == 0 {
		p.unavailable("forecast")
		return
	}
	for _, period := range periods[:min(3, len(periods))] {
		p.section(period.Name)
		p.paragraph(period.DetailedForecast, 2)
	}
}

func drawExtendedForecast(p *page, data display.ScreenData) {
	p.header("Extended", "Forecast")
	pairs := data.Snapshot.Forecast.DayNightPairs()
	if len(pairs) == 0 {
		p.unavailable("extended forecast")
		return
	}
	p.blank()
	for _, pair := range pairs[:min(7, len(pairs))] {
		hi, lo, name, short := missing, missing, "", ""
		if pair.Day != nil {
			name, short = pair.Day.Name, pair.Day.ShortForecast
			hi = fmt.Sprintf("%d°", pair.Day.Temperature)
		}
		if pair.Night != nil {
			lo = fmt.Sprintf("%d°", pair.Night.Temperature)
			if name == "" {
				name, short = pair.Night.Name, pair.Night.ShortForecast
			}
		}
		p.line("  %-16s Hi %-4s Lo %-4s %s", name, hi, lo, short)
	}
}

func drawHourly(p *page, data display.ScreenData) {
	p.header("Hourly", "Forecast")
	hours := data.Snapshot.Hourly
	if len(hours) == 0 {
		p.unavailable("hourly forecast")
		return
	}
	p.blank()
	for _, h := range hours[:min(12, len(hours))] {
		p.line("  %-6s %4d°%s  %-10s %s",
			h.StartTime.In(p.now.Location()).Format("3 PM"),
			h.Temperature, h.TemperatureUnit,
			h.WindDirection+" "+h.WindSpeed,
			h.ShortForecast)
	}
}

func drawLatestObservations(p *page, data display.ScreenData) {
	p.header("Latest", "Observations")
	cur := data.Snapshot.Current
	if cur == nil {
		p.unavailable("observations")
		return
	}
	p.blank()
	p.field("Station", cur.StationID)
	p.field("Temperature", fahrenheit(cur.TemperatureC))
	p.field("Conditions", cur.TextDescription)
	p.field("Wind", wind(cur.WindDirection, cur.WindSpeedKmh))
	if !cur.Timestamp.IsZero() {
		p.field("Observed", cur.Timestamp.In(p.now.Location()).Format("3:04 PM 1/2"))
	}
}

func drawTravelForecast(p *page, data display.ScreenData) {
	p.header("Travel", "Forecast")
	periods := data.Snapshot.Forecast
	if len(periods) == 0 {
		p.unavailable("travel forecast")
		return
	}
	name := placeName(data.Location)
	if name == "" {
		name = "Local area"
	}
	p.section(name)
	for _, period := range periods[:min(4, len(periods))] {
		p.line("  %-16s %4d°  %s", period.Name, period.Temperature, period.ShortForecast)
	}
}

func drawAlmanac(p *page, data display.ScreenData) {
	p.header("Weather", "Almanac")
	p.blank()
	p.line("  %s", p.now.Format("Monday, January 2, 2006"))

	if loc := data.Location; loc != nil {
		sun := SunTimesAt(p.now, loc.Latitude, loc.Longitude)
		p.section("Sun")
		writeSunTimes(p, sun)
	}

	p.section("Moon")
	p.field("Phase", MoonPhaseAt(p.now).Name)

	if len(data.History) > 0 {
		s := summarize(data.History)
		p.section(fmt.Sprintf("Last %d days", len(data.History)))
		p.field("Average High", fmt.Sprintf("%.0f°F", s.avgHigh))
		p.field("Average Low", fmt.Sprintf("%.0f°F", s.avgLow))
		p.field("Precipitation", fmt.Sprintf("%.2f in", s.totalPrecip))
	}
}

func writeSunTimes(p *page, sun SunTimes) {
	switch {
	case sun.PolarDay:
		p.field("Sunrise", "Sun up all day")
	case sun.PolarNight:
		p.field("Sunrise", "Sun down all day")
	default:
		tz := p.now.Location()
		p.field("Sunrise", sun.Rise.In(tz).Format("3:04 PM"))
		p.field("Sunset", sun.Set.In(tz).Format("3:04 PM"))
	}
}

func drawRadar(p *page, data display.ScreenData) {
	p.header("Local", "Radar")
	p.blank()
	if loc := data.Location; loc != nil && loc.RadarStationID != "" {
		p.field("Radar Station", loc.RadarStationID)
	}
	if name := placeName(data.Location); name != "" {
		p.field("Area", name)
	}
	p.blank()
	p.line("  Radar imagery needs a graphical display.")
}

func drawHazards(p *page, data display.ScreenData) {
	p.header("Weather", "Alerts")

	if alerts := data.Snapshot.Alerts; len(alerts) > 0 {
		for _, a := range alerts[:min(4, len(alerts))] {
			p.section(a.Event)
			if a.Severity != "" {
				p.field("Severity", a.Severity)
			}
			if !a.Ends.IsZero() {
				p.field("Until", a.Ends.In(p.now.Location()).Format("3:04 PM Mon"))
			}
			p.paragraph(a.Headline, 2)
		}
		return
	}

	hazards := data.Snapshot.Forecast[:min(3, len(data.Snapshot.Forecast))].Hazards()
	if len(hazards) == 0 {
		p.blank()
		p.line("  No active weather alerts at this time")
		return
	}
	p.section("Current hazards")
	for _, period := range hazards {
		p.line("  %s:", period.Name)
		p.paragraph(period.ShortForecast, 4)
	}
}

func drawMarineForecast(p *page, data display.ScreenData) {
	p.header("Marine", "Forecast")
	periods := data.Snapshot.Forecast
	if len(periods) == 0 {
		p.unavailable("marine forecast")
		return
	}
	p.section("Coastal winds")
	for _, period := range periods[:min(6, len(periods))] {
		p.line("  %-16s %-4s %s", period.Name, period.WindDirection, period.WindSpeed)
	}
	if cur := data.Snapshot.Current; cur != nil {
		p.blank()
		p.field("Visibility", miles(cur.VisibilityM))
	}
}

var aqiAdvice = map[string]string{
	"Good":                           "Air quality is satisfactory.",
	"Moderate":                       "Unusually sensitive people should limit prolonged outdoor exertion.",
	"Unhealthy for Sensitive Groups": "Sensitive groups should reduce prolonged outdoor exertion.",
	"Unhealthy":                      "Everyone should reduce prolonged outdoor exertion.",
	"Very Unhealthy":                 "Everyone should avoid prolonged outdoor exertion.",
	"Hazardous":                      "Everyone should avoid all outdoor activity.",
}

func drawAirQuality(p *page, data display.ScreenData) {
	p.header("Air", "Quality")
	aq := data.Snapshot.AirQuality
	if aq == nil {
		p.unavailable("air quality")
		return
	}
	p.blank()
	p.field("US AQI", fmt.Sprintf("%d (%s)", aq.AQI, aq.Category))
	p.field("PM2.5", fmt.Sprintf("%.1f µg/m³", aq.PM25))
	p.field("PM10", fmt.Sprintf("%.1f µg/m³", aq.PM10))
	p.field("Ozone", fmt.Sprintf("%.1f µg/m³", aq.Ozone))
	if advice, ok := aqiAdvice[aq.Category]; ok {
		p.blank()
		p.paragraph(advice, 2)
	}
}

func drawTemperatureGraph(p *page, data display.ScreenData) {
	p.header("Temperature", "History")
	if len(data.History) == 0 {
		p.unavailable("temperature history")
		return
	}

	highs := make([]float64, len(data.History))
	lows := make([]float64, len(data.History))
	for i, d := range data.History {
		highs[i], lows[i] = d.TempHigh, d.TempLow
	}
	lo, hi := slices.Min(lows), slices.Max(highs)

	p.blank()
	p.line("  High %s", sparkline(highs, lo, hi))
	p.line("  Low  %s", sparkline(lows, lo, hi))
	p.blank()
	p.field("Range", fmt.Sprintf("%.0f°F to %.0f°F", lo, hi))
	first, last := data.History[0].Date, data.History[len(data.History)-1].Date
	p.field("Period", first.Format("Jan 2")+" - "+last.Format("Jan 2"))
}

type historySummary struct {
	avgHigh, avgLow float64
	totalPrecip     float64
	wetDays         int
	warmest         models.HistoryDay
	coldest         models.HistoryDay
	wettest         models.HistoryDay
	commonCondition string
}

func summarize(series models.HistorySeries) historySummary {
	s := historySummary{warmest: series[0], coldest: series[0], wettest: series[0]}
	counts := map[string]int{}
	for _, d := range series {
		s.avgHigh += d.TempHigh
		s.avgLow += d.TempLow
		s.totalPrecip += d.Precipitation
		if d.Precipitation >= 0.01 {
			s.wetDays++
		}
		if d.TempHigh > s.warmest.TempHigh {
			s.warmest = d
		}
		if d.TempLow < s.coldest.TempLow {
			s.coldest = d
		}
		if d.Precipitation > s.wettest.Precipitation {
			s.wettest = d
		}
		if d.Conditions != "" {
			counts[d.Conditions]++
		}
	}
	n := float64(len(series))
	s.avgHigh /= n
	s.avgLow /= n

	best := 0
	for cond, c := range counts {
		if c > best || (c == best && cond < s.commonCondition) {
			s.commonCondition, best = cond, c
		}
	}
	return s
}

func drawWeatherRecords(p *page, data display.ScreenData) {
	p.header("Weather", "Records")
	if len(data.History) == 0 {
		p.unavailable("weather records")
		return
	}
	s := summarize(data.History)
	p.section(fmt.Sprintf("Last %d days", len(data.History)))
	p.field("Warmest", fmt.Sprintf("%.0f°F on %s", s.warmest.TempHigh, s.warmest.Date.Format("Jan 2")))
	p.field("Coldest", fmt.Sprintf("%.0f°F on %s", s.coldest.TempLow, s.coldest.Date.Format("Jan 2")))
	if s.wettest.Precipitation > 0 {
		p.field("Wettest", fmt.Sprintf("%.2f in on %s", s.wettest.Precipitation, s.wettest.Date.Format("Jan 2")))
	} else {
		p.field("Wettest", "No rain recorded")
	}
	p.field("Average High", fmt.Sprintf("%.0f°F", s.avgHigh))
	p.field("Average Low", fmt.Sprintf("%.0f°F", s.avgLow))
}

func drawSunMoon(p *page, data display.ScreenData) {
	p.header("Sun & Moon", "")
	if loc := data.Location; loc != nil {
		sun := SunTimesAt(p.now, loc.Latitude, loc.Longitude)
		p.section("Sun")
		writeSunTimes(p, sun)
		p.field("Solar Noon", sun.Noon.In(p.now.Location()).Format("3:04 PM"))
		length := sun.DayLength()
		p.field("Day Length", fmt.Sprintf("%dh %02dm", int(length.Hours()), int(length.Minutes())%60))
	}

	moon := MoonPhaseAt(p.now)
	p.section("Moon")
	p.field("Phase", moon.Name)
	p.field("Illumination", fmt.Sprintf("%.0f%%", moon.Illumination))
	p.field("Age", fmt.Sprintf("%.0f days", math.Floor(moon.AgeDays)))
	untilFull := math.Mod(synodicMonth/2-moon.AgeDays+synodicMonth, synodicMonth)
	p.field("Next Full", p.now.Add(time.Duration(untilFull*24*float64(time.Hour))).Format("Jan 2"))
}

func drawWindPressure(p *page, data display.ScreenData) {
	p.header("Wind &", "Pressure")
	cur := data.Snapshot.Current
	if cur == nil {
		p.unavailable("wind and pressure")
		return
	}
	p.section("Wind conditions")
	p.field("Speed", mph(cur.WindSpeedKmh))
	if cur.WindDirection != nil {
		p.field("Direction", fmt.Sprintf("%s (%.0f°)", models.CompassDirection(*cur.WindDirection), *cur.WindDirection))
	}
	if cur.WindGustKmh != nil {
		p.field("Gusts", mph(cur.WindGustKmh))
	}
	if cur.WindChillC != nil {
		p.field("Wind Chill", fahrenheit(cur.WindChillC))
	}

	p.section("Barometric pressure")
	p.field("Current", inHg(cur.PressurePa))
	p.field("Trend", p.title.String(string(data.Snapshot.Trends.Pressure)))
}

func drawWeekendForecast(p *page, data display.ScreenData) {
	p.header("Weekend", "Forecast")
	weekend := data.Snapshot.Forecast.Weekend()
	if len(weekend) == 0 {
		p.unavailable("weekend forecast")
		return
	}
	for _, period := range weekend[:min(4, len(weekend))] {
		p.section(period.Name)
		p.field("Temperature", fmt.Sprintf("%d°", period.Temperature))
		p.field("Conditions", period.ShortForecast)
	}
}

func drawMonthlyOutlook(p *page, data display.ScreenData) {
	p.header("30-Day", "Summary")
	if len(data.History) == 0 {
		p.unavailable("30-day summary")
		return
	}
	s := summarize(data.History)
	p.blank()
	p.field("Average High", fmt.Sprintf("%.0f°F", s.avgHigh))
	p.field("Average Low", fmt.Sprintf("%.0f°F", s.avgLow))
	p.field("Total Rain", fmt.Sprintf("%.2f in", s.totalPrecip))
	p.field("Wet Days", fmt.Sprintf("%d of %d", s.wetDays, len(data.History)))
	if s.commonCondition != "" {
		p.field("Most Common", s.commonCondition)
	}
}

func newsScreen(label, source string) screenFunc {
	return func(p *page, data display.ScreenData) {
		p.header(label, "News")
		headlines := data.Snapshot.Headlines[source]
		if len(headlines) == 0 {
			p.unavailable("headlines")
			return
		}
		p.blank()
		for i, h := range headlines[:min(8, len(headlines))] {
			p.line("  %d. %s", i+1, h.Title)
		}
	}
}
