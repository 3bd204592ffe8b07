package costs

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"viaggi/internal/core"
)

// RateSource resolves per-day baseline costs for a city. The boolean is false
// when the city is unknown and the default rate was returned instead.
type RateSource interface {
	RatesFor(city string) (core.CityRates, bool)
}

// DefaultRate is used for any city missing from the table.
var DefaultRate = core.CityRates{
	City:          "default",
	Accommodation: core.Dollars(80),
	Food:          core.Dollars(40),
	Transport:     core.Dollars(15),
	CostIndex:     1.0,
}

// BuiltinRates is the reference table shipped with the service. Values are
// per day in USD.
var BuiltinRates = []core.CityRates{
	{City: "Paris", Country: "France", Accommodation: core.Dollars(100), Food: core.Dollars(50), Transport: core.Dollars(20), CostIndex: 1.25},
	{City: "London", Country: "United Kingdom", Accommodation: core.Dollars(150), Food: core.Dollars(60), Transport: core.Dollars(25), CostIndex: 1.45},
	{City: "Rome", Country: "Italy", Accommodation: core.Dollars(90), Food: core.Dollars(45), Transport: core.Dollars(15), CostIndex: 1.1},
	{City: "Barcelona", Country: "Spain", Accommodation: core.Dollars(85), Food: core.Dollars(40), Transport: core.Dollars(15), CostIndex: 1.05},
	{City: "Amsterdam", Country: "Netherlands", Accommodation: core.Dollars(130), Food: core.Dollars(55), Transport: core.Dollars(20), CostIndex: 1.3},
	{City: "Berlin", Country: "Germany", Accommodation: core.Dollars(90), Food: core.Dollars(40), Transport: core.Dollars(15), CostIndex: 1.05},
	{City: "Prague", Country: "Czech Republic", Accommodation: core.Dollars(60), Food: core.Dollars(30), Transport: core.Dollars(10), CostIndex: 0.75},
	{City: "Lisbon", Country: "Portugal", Accommodation: core.Dollars(70), Food: core.Dollars(35), Transport: core.Dollars(12), CostIndex: 0.9},
	{City: "Istanbul", Country: "Turkey", Accommodation: core.Dollars(50), Food: core.Dollars(25), Transport: core.Dollars(10), CostIndex: 0.65},
	{City: "New York", Country: "United States", Accommodation: core.Dollars(200), Food: core.Dollars(70), Transport: core.Dollars(30), CostIndex: 1.8},
	{City: "Mexico City", Country: "Mexico", Accommodation: core.Dollars(55), Food: core.Dollars(25), Transport: core.Dollars(8), CostIndex: 0.65},
	{City: "Tokyo", Country: "Japan", Accommodation: core.Dollars(120), Food: core.Dollars(50), Transport: core.Dollars(20), CostIndex: 1.35},
	{City: "Bangkok", Country: "Thailand", Accommodation: core.Dollars(40), Food: core.Dollars(20), Transport: core.Dollars(10), CostIndex: 0.5},
	{City: "Bali", Country: "Indonesia", Accommodation: core.Dollars(45), Food: core.Dollars(20), Transport: core.Dollars(10), CostIndex: 0.5},
	{City: "Dubai", Country: "United Arab Emirates", Accommodation: core.Dollars(160), Food: core.Dollars(60), Transport: core.Dollars(30), CostIndex: 1.5},
	{City: "Sydney", Country: "Australia", Accommodation: core.Dollars(140), Food: core.Dollars(60), Transport: core.Dollars(25), CostIndex: 1.4},
}

// NormalizeCity folds a city name to its lookup key: lowercased, trimmed and
// with inner whitespace collapsed.
// e.g., "  New   York " -> "new york"
func NormalizeCity(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// RateTable maps cities to their per-day rates. It is safe for concurrent use.
type RateTable struct {
	mu       sync.RWMutex
	fallback core.CityRates
	cities   map[string]core.CityRates
}

// NewRateTable builds a table with the given fallback rate and cities.
func NewRateTable(fallback core.CityRates, cities ...core.CityRates) *RateTable {
	t := &RateTable{fallback: fallback, cities: make(map[string]core.CityRates, len(cities))}
	for _, c := range cities {
		t.cities[NormalizeCity(c.City)] = c
	}
	return t
}

// DefaultRateTable returns a fresh table holding the built-in rates.
func DefaultRateTable() *RateTable {
	return NewRateTable(DefaultRate, BuiltinRates...)
}

// Set adds or replaces the rates of one city.
func (t *RateTable) Set(r core.CityRates) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cities[NormalizeCity(r.City)] = r
}

// SetDefault replaces the fallback rate.
func (t *RateTable) SetDefault(r core.CityRates) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = r
}

func (t *RateTable) Default() core.CityRates {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fallback
}

// Lookup returns the rates for a city, normalizing the name first. A
// "City, Country" form is tried without its suffix when the full name is
// unknown. Returns zero rates and false if the city is unknown.
func (t *RateTable) Lookup(city string) (core.CityRates, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	key := NormalizeCity(city)
	if r, ok := t.cities[key]; ok {
		return r, true
	}
	if i := strings.Index(key, ","); i > 0 {
		if r, ok := t.cities[strings.TrimSpace(key[:i])]; ok {
			return r, true
		}
	}
	return core.CityRates{}, false
}

// RatesFor implements RateSource.
func (t *RateTable) RatesFor(city string) (core.CityRates, bool) {
	if r, ok := t.Lookup(city); ok {
		return r, true
	}
	return t.Default(), false
}

// Cities returns every city rate sorted by city name.
func (t *RateTable) Cities() []core.CityRates {
	t.mu.RLock()
	out := make([]core.CityRates, 0, len(t.cities))
	for _, r := range t.cities {
		out = append(out, r)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return NormalizeCity(out[i].City) < NormalizeCity(out[j].City)
	})
	return out
}

func (t *RateTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cities)
}

// Clone returns an independent copy of the table.
func (t *RateTable) Clone() *RateTable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c := &RateTable{fallback: t.fallback, cities: make(map[string]core.CityRates, len(t.cities))}
	for k, v := range t.cities {
		c.cities[k] = v
	}
	return c
}

// RateOverride holds optional per-field overrides for one city. Amounts are
// in dollars per day.
type RateOverride struct {
	Country       *string  `toml:"country,omitempty"`
	Accommodation *float64 `toml:"accommodation,omitempty"`
	Food          *float64 `toml:"food,omitempty"`
	Transport     *float64 `toml:"transport,omitempty"`
	CostIndex     *float64 `toml:"cost_index,omitempty"`
}

// RatesFile is the TOML document accepted by LoadRatesFile:
//
//	[default]
//	accommodation = 90.0
//
//	[cities."Paris"]
//	food = 55.0
type RatesFile struct {
	Default *RateOverride           `toml:"default,omitempty"`
	Cities  map[string]RateOverride `toml:"cities,omitempty"`
}

// LoadRatesFile reads rate overrides from a TOML file.
func LoadRatesFile(path string) (RatesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RatesFile{}, fmt.Errorf("reading rates file: %w", err)
	}
	return ParseRates(data)
}

// ParseRates decodes rate overrides from TOML. Unknown keys are rejected so a
// typo does not silently leave a rate untouched.
func ParseRates(data []byte) (RatesFile, error) {
	var f RatesFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return RatesFile{}, fmt.Errorf("parsing rates file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return RatesFile{}, fmt.Errorf("parsing rates file: unknown keys %s", strings.Join(keys, ", "))
	}
	return f, nil
}

// Apply merges the overrides into the table. Fields left unset keep their
// current value; cities not yet in the table start from the fallback rate.
func (t *RateTable) Apply(f RatesFile) error {
	if f.Default != nil {
		def, err := merge(t.Default(), *f.Default)
		if err != nil {
			return fmt.Errorf("default rate: %w", err)
		}
		t.SetDefault(def)
	}

	names := make([]string, 0, len(f.Cities))
	for name := range f.Cities {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		base, ok := t.Lookup(name)
		if !ok {
			base = t.Default()
			base.Country = ""
		}
		base.City = strings.TrimSpace(name)
		r, err := merge(base, f.Cities[name])
		if err != nil {
			return fmt.Errorf("city %q: %w", name, err)
		}
		t.Set(r)
	}
	return nil
}

func merge(base core.CityRates, o RateOverride) (core.CityRates, error) {
	if o.Country != nil {
		base.Country = *o.Country
	}
	if o.Accommodation != nil {
		m, err := core.ParseFloatAmount(*o.Accommodation)
		if err != nil {
			return core.CityRates{}, fmt.Errorf("accommodation: %w", err)
		}
		base.Accommodation = m
	}
	if o.Food != nil {
		m, err := core.ParseFloatAmount(*o.Food)
		if err != nil {
			return core.CityRates{}, fmt.Errorf("food: %w", err)
		}
		base.Food = m
	}
	if o.Transport != nil {
		m, err := core.ParseFloatAmount(*o.Transport)
		if err != nil {
			return core.CityRates{}, fmt.Errorf("transport: %w", err)
		}
		base.Transport = m
	}
	if o.CostIndex != nil {
		base.CostIndex = *o.CostIndex
	}
	if err := base.Validate(); err != nil {
		return core.CityRates{}, err
	}
	return base, nil
}
