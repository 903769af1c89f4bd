package render

import (
	"math"
	"time"
)

const (
	unixEpochJD   = 2440587.5
	j2000         = 2451545.0
	synodicMonth  = 29.530588853
	newMoonEpoch  = 2451550.1
	obliquity     = 23.4397
	horizonOffset = -0.833
)

// SunTimes is one day's sunrise and sunset in UTC. Rise and Set are zero
// during polar day or night.
type SunTimes struct {
	Rise       time.Time
	Set        time.Time
	Noon       time.Time
	PolarDay   bool
	PolarNight bool
}

func (s SunTimes) DayLength() time.Duration {
	switch {
	case s.PolarDay:
		return 24 * time.Hour
	case s.PolarNight:
		return 0
	}
	return s.Set.Sub(s.Rise)
}

func julianDate(t time.Time) float64 {
	return float64(t.UnixNano())/float64(24*time.Hour) + unixEpochJD
}

func fromJulian(jd float64) time.Time {
	ns := (jd - unixEpochJD) * float64(24*time.Hour)
	return time.Unix(0, int64(ns)).UTC()
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }

// SunTimesAt computes the solar day nearest to t at lat, lon (east
// positive) using the standard sunrise equation.
func SunTimesAt(t time.Time, lat, lon float64) SunTimes {
	n := math.Round(julianDate(t) - j2000 + lon/360)
	meanNoon := n - lon/360

	m := math.Mod(357.5291+0.98560028*meanNoon, 360)
	center := 1.9148*math.Sin(rad(m)) + 0.0200*math.Sin(rad(2*m)) + 0.0003*math.Sin(rad(3*m))
	ecliptic := math.Mod(m+center+180+102.9372, 360)
	transit := j2000 + meanNoon + 0.0053*math.Sin(rad(m)) - 0.0069*math.Sin(rad(2*ecliptic))

	sinDecl := math.Sin(rad(ecliptic)) * math.Sin(rad(obliquity))
	cosDecl := math.Cos(math.Asin(sinDecl))
	cosHour := (math.Sin(rad(horizonOffset)) - math.Sin(rad(lat))*sinDecl) / (math.Cos(rad(lat)) * cosDecl)

	st := SunTimes{Noon: fromJulian(transit)}
	switch {
	case cosHour > 1:
		st.PolarNight = true
	case cosHour < -1:
		st.PolarDay = true
	default:
		hour := deg(math.Acos(cosHour)) / 360
		st.Rise = fromJulian(transit - hour)
		st.Set = fromJulian(transit + hour)
	}
	return st
}

type MoonPhase struct {
	Name         string
	AgeDays      float64
	Illumination float64
}

var moonPhaseNames = []string{
	"New Moon", "Waxing Crescent", "First Quarter", "Waxing Gibbous",
	"Full Moon", "Waning Gibbous", "Last Quarter", "Waning Crescent",
}

// MoonPhaseAt uses the mean synodic month, which is accurate to within a
// day or so.
func MoonPhaseAt(t time.Time) MoonPhase {
	age := math.Mod(julianDate(t)-newMoonEpoch, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}
	frac := age / synodicMonth
	return MoonPhase{
		Name:         moonPhaseNames[int(math.Round(frac*8))%8],
		AgeDays:      age,
		Illumination: (1 - math.Cos(2*math.Pi*frac)) / 2 * 100,
	}
}
