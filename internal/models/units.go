package models

import "math"

func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func KmhToMph(kmh float64) float64 {
	return kmh * 0.621371
}

func PascalToInHg(pa float64) float64 {
	return pa / 3386.389
}

func MetersToMiles(m float64) float64 {
	return m / 1609.344
}

func MetersToFeet(m float64) float64 {
	return m * 3.28084
}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection names a bearing in degrees on a 16-point rose.
func CompassDirection(degrees float64) string {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	return compassPoints[int(math.Round(d/22.5))%len(compassPoints)]
}
