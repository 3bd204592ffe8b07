package costs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"viaggi/internal/core"
)

func TestNormalizeCity(t *testing.T) {
	cases := map[string]string{
		"Paris":          "paris",
		"  New   York ":  "new york",
		"MEXICO\tCITY":   "mexico city",
		"":               "",
	}
	for in, want := range cases {
		if got := NormalizeCity(in); got != want {
			t.Errorf("NormalizeCity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRateTableLookup(t *testing.T) {
	table := DefaultRateTable()

	for _, name := range []string{"Paris", "paris", " PARIS ", "Paris, France"} {
		r, ok := table.Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) returned !ok", name)
		}
		if r.Accommodation != core.Dollars(100) || r.Food != core.Dollars(50) || r.Transport != core.Dollars(20) {
			t.Fatalf("Lookup(%q) = %+v", name, r)
		}
	}

	if _, ok := table.Lookup("Atlantis"); ok {
		t.Fatal("expected unknown city")
	}
	r, found := table.RatesFor("Atlantis")
	if found {
		t.Fatal("RatesFor should report fallback")
	}
	if r != DefaultRate {
		t.Fatalf("RatesFor fallback = %+v, want %+v", r, DefaultRate)
	}
}

func TestDefaultRateDiffersFromBuiltins(t *testing.T) {
	for _, c := range BuiltinRates {
		if c.Accommodation == DefaultRate.Accommodation && c.Food == DefaultRate.Food && c.Transport == DefaultRate.Transport {
			t.Fatalf("%s has the same rates as the default", c.City)
		}
		if err := c.Validate(); err != nil {
			t.Fatalf("%s: %v", c.City, err)
		}
	}
}

func TestCitiesSorted(t *testing.T) {
	cities := DefaultRateTable().Cities()
	if len(cities) != len(BuiltinRates) {
		t.Fatalf("got %d cities, want %d", len(cities), len(BuiltinRates))
	}
	for i := 1; i < len(cities); i++ {
		if NormalizeCity(cities[i-1].City) > NormalizeCity(cities[i].City) {
			t.Fatalf("cities not sorted at %d: %s > %s", i, cities[i-1].City, cities[i].City)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	f, err := ParseRates([]byte(`
[default]
accommodation = 90.0

[cities."Paris"]
food = 55.5

[cities."Reykjavik"]
country = "Iceland"
accommodation = 180.0
`))
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}

	table := DefaultRateTable()
	if err := table.Apply(f); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	paris, _ := table.Lookup("paris")
	if paris.Food != (core.Money{Cents: 5550}) {
		t.Errorf("Paris food = %s, want $55.50", paris.Food)
	}
	if paris.Accommodation != core.Dollars(100) {
		t.Errorf("Paris accommodation changed to %s", paris.Accommodation)
	}

	if def := table.Default(); def.Accommodation != core.Dollars(90) || def.Food != DefaultRate.Food {
		t.Errorf("default = %+v", def)
	}

	rk, ok := table.Lookup("Reykjavik")
	if !ok {
		t.Fatal("Reykjavik not added")
	}
	if rk.Country != "Iceland" || rk.Accommodation != core.Dollars(180) || rk.Food != DefaultRate.Food {
		t.Errorf("Reykjavik = %+v", rk)
	}

	if fresh, _ := DefaultRateTable().Lookup("Paris"); fresh.Food != core.Dollars(50) {
		t.Error("Apply must not modify the built-in table")
	}
}

func TestParseRatesRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": "[cities.\"Paris\"]\nfod = 10\n",
		"bad toml":    "[cities\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRates([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	f, err := ParseRates([]byte("[cities.\"Paris\"]\nfood = -1.0\n"))
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}
	if err := DefaultRateTable().Apply(f); err == nil || !strings.Contains(err.Error(), "Paris") {
		t.Fatalf("expected negative rate error naming the city, got %v", err)
	}

	f, err = ParseRates([]byte("[cities.\"Paris\"]\naccommodation = 1e300\n"))
	if err != nil {
		t.Fatalf("ParseRates: %v", err)
	}
	if err := DefaultRateTable().Apply(f); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected out-of-range amount to be rejected, got %v", err)
	}
}

func TestLoadRatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.toml")
	if err := os.WriteFile(path, []byte("[cities.\"Rome\"]\ntransport = 18.0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := LoadRatesFile(path)
	if err != nil {
		t.Fatalf("LoadRatesFile: %v", err)
	}
	if got := *f.Cities["Rome"].Transport; got != 18 {
		t.Fatalf("transport = %v", got)
	}
	if _, err := LoadRatesFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
