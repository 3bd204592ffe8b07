package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"viaggi/internal/core"
)

// tripFile is the TOML trip description read by the breakdown command:
//
//	name = "Summer in Europe"
//
//	[[stops]]
//	city = "Paris"
//	start = "2025-06-01"
//	end = "2025-06-04"
//
//	[[stops.activities]]
//	name = "Louvre"
//	cost = 22.0
type tripFile struct {
	Name  string     `toml:"name"`
	Stops []stopFile `toml:"stops"`
}

type stopFile struct {
	City       string         `toml:"city"`
	Country    string         `toml:"country"`
	Start      string         `toml:"start"`
	End        string         `toml:"end"`
	Order      *int           `toml:"order"`
	Activities []activityFile `toml:"activities"`
}

type activityFile struct {
	Name string  `toml:"name"`
	Cost float64 `toml:"cost"`
}

func loadTripFile(path string) (core.Trip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Trip{}, fmt.Errorf("reading trip file: %w", err)
	}
	return parseTrip(data)
}

// parseTrip decodes a trip file. Stops without an explicit order keep their
// position in the file.
func parseTrip(data []byte) (core.Trip, error) {
	var f tripFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return core.Trip{}, fmt.Errorf("parsing trip file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return core.Trip{}, fmt.Errorf("parsing trip file: unknown keys %s", strings.Join(keys, ", "))
	}

	trip := core.Trip{ID: "local", Name: f.Name}
	for i, s := range f.Stops {
		if strings.TrimSpace(s.City) == "" {
			return core.Trip{}, fmt.Errorf("stop %d: %w", i+1, core.ErrEmptyCity)
		}
		start, err := core.ParseDate(s.Start)
		if err != nil {
			return core.Trip{}, fmt.Errorf("stop %d: %w", i+1, err)
		}
		end, err := core.ParseDate(s.End)
		if err != nil {
			return core.Trip{}, fmt.Errorf("stop %d: %w", i+1, err)
		}
		stop := core.TripStop{
			ID:         fmt.Sprintf("stop-%d", i+1),
			CityName:   s.City,
			Country:    s.Country,
			StartDate:  start,
			EndDate:    end,
			OrderIndex: i,
		}
		if s.Order != nil {
			stop.OrderIndex = *s.Order
		}
		for j, a := range s.Activities {
			cost, err := core.ParseFloatAmount(a.Cost)
			if err == nil {
				err = cost.Validate()
			}
			if err != nil {
				return core.Trip{}, fmt.Errorf("stop %d activity %d: %w", i+1, j+1, err)
			}
			stop.Activities = append(stop.Activities, core.TripActivity{
				CustomName:    a.Name,
				EstimatedCost: cost,
			})
		}
		trip.Stops = append(trip.Stops, stop)
	}
	return trip, nil
}
