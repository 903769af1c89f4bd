package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

func sampleHistory() *models.DailyHistory {
	return &models.DailyHistory{
		Dates:         []string{"2026-10-16", "2026-10-17", "2026-10-18", "bogus"},
		TempMax:       []*float64{ptr(90), nil, ptr(86), ptr(80)},
		TempMin:       []*float64{ptr(70), ptr(68), ptr(72), ptr(60)},
		Precipitation: []*float64{nil, ptr(0.1), ptr(0.5), ptr(0)},
		Conditions:    []string{"Clear sky", "", "Thunderstorm", ""},
	}
}

func TestDeriveSeries(t *testing.T) {
	series := DeriveSeries(sampleHistory())

	require.Len(t, series, 2, "days missing a high or with a bad date are skipped")

	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), series[0].Date)
	assert.Equal(t, 80.0, series[0].TempAvg)
	assert.Equal(t, 0.0, series[0].Precipitation, "absent precipitation is zero")
	assert.Equal(t, "Clear sky", series[0].Conditions)

	assert.Equal(t, 79.0, series[1].TempAvg)
	assert.Equal(t, 0.5, series[1].Precipitation)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

func TestDeriveSeries_Nil(t *testing.T) {
	assert.Nil(t, DeriveSeries(nil))
}

func TestHistoryAggregator_CachesDerivedSeries(t *testing.T) {
	f := newSourceFixture()
	f.meteo.history = sampleHistory()
	agg := NewHistoryAggregator(f.ds, NewTimedCache("history", f.clock, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	assert.Empty(t, agg.Latest())

	first, err := agg.Series(ctx, 28.5383, -81.3792)
	require.NoError(t, err)
	second, err := agg.Series(ctx, 28.5383, -81.3792)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.meteo.calls)
	assert.Equal(t, first, agg.Latest())
}

func TestHistoryAggregator_FailureKeepsLatest(t *testing.T) {
	f := newSourceFixture()
	f.meteo.history = sampleHistory()
	agg := NewHistoryAggregator(f.ds, NewTimedCache("history", f.clock, nil, zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	first, err := agg.Series(ctx, 28.5383, -81.3792)
	require.NoError(t, err)

	f.clock.Advance(HistoryTTL)
	f.meteo.fail = true

	_, err = agg.Series(ctx, 28.5383, -81.3792)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, first, agg.Latest())
}

