package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func periods(names ...string) PeriodList {
	pl := make(PeriodList, len(names))
	for i, n := range names {
		pl[i] = Period{Number: i + 1, Name: n, IsDaytime: !isNight(n)}
	}
	return pl
}

func isNight(name string) bool {
	return name == "Tonight" || len(name) > 6 && name[len(name)-5:] == "Night"
}

func TestDayNightPairs(t *testing.T) {
	t.Run("starts with day", func(t *testing.T) {
		pairs := periods("Today", "Tonight", "Friday", "Friday Night", "Saturday").DayNightPairs()
		require.Len(t, pairs, 3)
		assert.Equal(t, "Today", pairs[0].Day.Name)
		assert.Equal(t, "Tonight", pairs[0].Night.Name)
		assert.Equal(t, "Friday Night", pairs[1].Night.Name)
		assert.Equal(t, "Saturday", pairs[2].Day.Name)
		assert.Nil(t, pairs[2].Night)
	})

	t.Run("starts with night", func(t *testing.T) {
		pairs := periods("Tonight", "Friday", "Friday Night").DayNightPairs()
		require.Len(t, pairs, 2)
		assert.Nil(t, pairs[0].Day)
		assert.Equal(t, "Tonight", pairs[0].Night.Name)
		assert.Equal(t, "Friday", pairs[1].Day.Name)
		assert.Equal(t, "Friday Night", pairs[1].Night.Name)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, PeriodList(nil).DayNightPairs())
	})
}

func TestWeekend(t *testing.T) {
	pl := periods("Thursday", "Thursday Night", "Friday", "Saturday", "Saturday Night", "Sunday", "Sunday Night", "Monday")
	var names []string
	for _, p := range pl.Weekend() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Saturday", "Saturday Night", "Sunday", "Sunday Night"}, names)
}

func TestHazards(t *testing.T) {
	pl := PeriodList{
		{Name: "Today", DetailedForecast: "Sunny, with a high near 91."},
		{Name: "Tonight", DetailedForecast: "Showers and thunderstorms likely. Some storms could be severe."},
		{Name: "Friday", DetailedForecast: "A Heat Advisory is in effect."},
	}
	got := pl.Hazards()
	require.Len(t, got, 2)
	assert.Equal(t, "Tonight", got[0].Name)
	assert.Equal(t, "Friday", got[1].Name)
}
