package display

import "slices"

// Flags are the user toggles that shape the screen sequence.
type Flags struct {
	ShowMarine    bool `json:"show_marine" yaml:"show_marine"`
	ShowMSN       bool `json:"show_msn" yaml:"show_msn"`
	ShowReddit    bool `json:"show_reddit" yaml:"show_reddit"`
	ShowLocalNews bool `json:"show_local_news" yaml:"show_local_news"`
}

type Placement int

const (
	// PlaceInsert puts the screen at Rule.Index of the list built so far.
	PlaceInsert Placement = iota
	// PlaceAppend puts the screen at the end.
	PlaceAppend
)

// Rule adds Screen to the sequence when Enabled reports true.
type Rule struct {
	Name      string
	Enabled   func(Flags) bool
	Screen    ScreenID
	Placement Placement
	Index     int
}

// Catalog turns a flag set into an ordered screen list. Rules are applied in
// table order, so the same flags always give the same sequence.
type Catalog struct {
	Base  []ScreenID
	Rules []Rule
}

var baseSequence = []ScreenID{
	ScreenCurrentConditions,
	ScreenExtendedForecast,
	ScreenHourly,
	ScreenLatestObservations,
	ScreenTravelCities,
	ScreenLocalForecast,
	ScreenAlmanac,
	ScreenRadar,
	ScreenHazards,
	ScreenAirQuality,
	ScreenTemperatureGraph,
	ScreenWeatherRecords,
	ScreenSunMoon,
	ScreenWindPressure,
	ScreenWeekendForecast,
	ScreenMonthlyOutlook,
}

var defaultRules = []Rule{
	{Name: "show_marine", Enabled: func(f Flags) bool { return f.ShowMarine }, Screen: ScreenMarineForecast, Placement: PlaceInsert, Index: 9},
	{Name: "show_msn", Enabled: func(f Flags) bool { return f.ShowMSN }, Screen: ScreenMSNNews, Placement: PlaceAppend},
	{Name: "show_reddit", Enabled: func(f Flags) bool { return f.ShowReddit }, Screen: ScreenRedditNews, Placement: PlaceAppend},
	{Name: "show_local_news", Enabled: func(f Flags) bool { return f.ShowLocalNews }, Screen: ScreenLocalNews, Placement: PlaceAppend},
}

func DefaultCatalog() *Catalog {
	return &Catalog{Base: baseSequence, Rules: defaultRules}
}

func (c *Catalog) Build(flags Flags) []ScreenID {
	order := slices.Clone(c.Base)
	for _, r := range c.Rules {
		if !r.Enabled(flags) {
			continue
		}
		switch r.Placement {
		case PlaceInsert:
			i := min(max(r.Index, 0), len(order))
			order = slices.Insert(order, i, r.Screen)
		default:
			order = append(order, r.Screen)
		}
	}
	return order
}

// Rebuild swaps in the sequence for flags and remaps CurrentIndex. When the
// active screen survives the index follows it. Otherwise the index moves to
// the next surviving screen after it in the old order, wrapping, and Rebuild
// reports true.
func (c *Catalog) Rebuild(state *ScheduleState, flags Flags) bool {
	oldOrder := state.ScreenOrder
	newOrder := c.Build(flags)
	state.ScreenOrder = newOrder

	if len(oldOrder) == 0 {
		state.CurrentIndex = 0
		return false
	}

	current := oldOrder[state.CurrentIndex]
	if i := slices.Index(newOrder, current); i >= 0 {
		state.CurrentIndex = i
		return false
	}

	for step := 1; step <= len(oldOrder); step++ {
		candidate := oldOrder[(state.CurrentIndex+step)%len(oldOrder)]
		if i := slices.Index(newOrder, candidate); i >= 0 {
			state.CurrentIndex = i
			return true
		}
	}
	state.CurrentIndex = 0
	return true
}
