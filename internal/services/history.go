package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/models"
)

// HistoryAggregator derives the 30-day temperature and precipitation series
// from the raw Open-Meteo payload. The derived series has its own cache,
// separate from the data source's.
type HistoryAggregator struct {
	source *WeatherDataSource
	cache  *TimedCache
	logger *zap.Logger

	mu     sync.RWMutex
	latest models.HistorySeries
}

func NewHistoryAggregator(source *WeatherDataSource, cache *TimedCache, logger *zap.Logger) *HistoryAggregator {
	return &HistoryAggregator{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

func (h *HistoryAggregator) Series(ctx context.Context, lat, lon float64) (models.HistorySeries, error) {
	key := coordKey("series", lat, lon)
	if v, ok := h.cache.GetFresh(key, HistoryTTL); ok {
		if series, ok := v.(models.HistorySeries); ok {
			return series, nil
		}
	}

	raw, err := h.source.History(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("history series: %w", err)
	}

	series := DeriveSeries(raw)
	h.cache.Put(key, series)

	h.mu.Lock()
	h.latest = series
	h.mu.Unlock()

	h.logger.Debug("History series derived",
		zap.Int("days", len(series)),
		zap.String("key", key))
	return series, nil
}

// Latest returns the most recently derived series without any I/O.
func (h *HistoryAggregator) Latest() models.HistorySeries {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append(models.HistorySeries(nil), h.latest...)
}

// DeriveSeries averages each day's high and low and treats a missing
// precipitation total as zero. Days without both a high and a low, or with an
// unparseable date, are skipped. The result is ordered oldest first.
func DeriveSeries(raw *models.DailyHistory) models.HistorySeries {
	if raw == nil {
		return nil
	}

	series := make(models.HistorySeries, 0, len(raw.Dates))
	for i, ds := range raw.Dates {
		date, err := time.Parse("2006-01-02", ds)
		if err != nil {
			continue
		}
		high := at(raw.TempMax, i)
		low := at(raw.TempMin, i)
		if high == nil || low == nil {
			continue
		}

		day := models.HistoryDay{
			Date:     date,
			TempHigh: *high,
			TempLow:  *low,
			TempAvg:  (*high + *low) / 2,
		}
		if p := at(raw.Precipitation, i); p != nil {
			day.Precipitation = *p
		}
		if i < len(raw.Conditions) {
			day.Conditions = raw.Conditions[i]
		}
		series = append(series, day)
	}

	sort.SliceStable(series, func(a, b int) bool {
		return series[a].Date.Before(series[b].Date)
	})
	return series
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
