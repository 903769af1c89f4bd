package render

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

const missing = "--"

func fahrenheit(c *float64) string {
	if c == nil {
		return missing
	}
	return fmt.Sprintf("%.0f°F", models.CelsiusToFahrenheit(*c))
}

func percent(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func wind(dirDeg, kmh *float64) string {
	if kmh == nil {
		return missing
	}
	mph := models.KmhToMph(*kmh)
	if math.Round(mph) == 0 {
		return "Calm"
	}
	if dirDeg == nil {
		return fmt.Sprintf("%.0f mph", mph)
	}
	return fmt.Sprintf("%s %.0f mph", models.CompassDirection(*dirDeg), mph)
}

func mph(kmh *float64) string {
	if kmh == nil {
		return missing
	}
	return fmt.Sprintf("%.0f mph", models.KmhToMph(*kmh))
}

func inHg(pa *float64) string {
	if pa == nil {
		return missing
	}
	return fmt.Sprintf("%.2f in", models.PascalToInHg(*pa))
}

func miles(m *float64) string {
	if m == nil {
		return missing
	}
	return fmt.Sprintf("%.0f mi", models.MetersToMiles(*m))
}

// ceiling is the base of the lowest broken or overcast layer.
func ceiling(layers []models.CloudLayer) string {
	for _, l := range layers {
		if (l.Amount == "BKN" || l.Amount == "OVC") && l.BaseM != nil {
			return fmt.Sprintf("%.0f ft", models.MetersToFeet(*l.BaseM))
		}
	}
	return "Unlimited"
}

func trendArrow(t models.Trend) string {
	switch t {
	case models.TrendRising:
		return "↑"
	case models.TrendFalling:
		return "↓"
	case models.TrendSteady:
		return "→"
	}
	return ""
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	var (
		lines []string
		line  strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && utf8.RuneCountInString(line.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline scales values between lo and hi onto block characters.
func sparkline(values []float64, lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		i := 0
		if span > 0 {
			i = int((v - lo) / span * float64(len(sparkLevels)-1))
		}
		i = min(max(i, 0), len(sparkLevels)-1)
		b.WriteRune(sparkLevels[i])
	}
	return b.String()
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
