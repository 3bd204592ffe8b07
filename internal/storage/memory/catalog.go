package memory

import "viaggi/internal/core"

func act(id, name string, typ core.ActivityType, desc string, hours float64, minCents, maxCents int64) core.Activity {
	return core.Activity{
		ID:                   id,
		Name:                 name,
		Type:                 typ,
		Description:          desc,
		TypicalDurationHours: hours,
		MinCost:              core.Money{Cents: minCents},
		MaxCost:              core.Money{Cents: maxCents},
	}
}

// SeedCatalog mirrors the catalog rows seeded by the SQLite migrations.
var SeedCatalog = []core.Activity{
	act("city-walking-tour", "Guided City Walking Tour", core.Sightseeing, "Small-group walk through the historic centre", 3, 1500, 3500),
	act("observation-deck", "Observation Deck Visit", core.Sightseeing, "Skyline views from the tallest viewpoint in town", 1.5, 2000, 4000),
	act("museum-pass", "Museum Day Pass", core.Culture, "Entry to the main art and history museums", 4, 1700, 3000),
	act("opera-evening", "Opera or Classical Concert", core.Culture, "Evening performance in a historic venue", 3, 4000, 15000),
	act("food-market-tour", "Street Food Market Tour", core.Food, "Tasting tour through local markets", 3, 3500, 7000),
	act("cooking-class", "Local Cooking Class", core.Food, "Hands-on class with a local chef", 3, 5000, 11000),
	act("wine-tasting", "Wine Tasting", core.Food, "Guided tasting of regional wines", 2, 3000, 8000),
	act("bike-tour", "Bike Tour", core.Adventure, "Cycling tour of the main neighbourhoods", 3, 2500, 5000),
	act("kayak-trip", "Kayak Excursion", core.Adventure, "Half-day paddling trip with equipment included", 4, 4000, 9000),
	act("theme-park", "Theme Park Day", core.Entertainment, "Full-day ticket to the local theme park", 8, 6000, 12000),
	act("live-show", "Live Show", core.Entertainment, "Musical, cabaret or comedy night", 2.5, 3500, 12000),
	act("bar-crawl", "Guided Bar Crawl", core.Nightlife, "Evening tour of popular bars with a guide", 4, 2000, 4500),
	act("rooftop-bar", "Rooftop Bar Evening", core.Nightlife, "Drinks with a view", 2, 2500, 6000),
	act("spa-day", "Spa Day", core.Wellness, "Thermal baths or day spa access", 4, 4000, 12000),
	act("yoga-class", "Drop-in Yoga Class", core.Wellness, "Single class at a local studio", 1.5, 1200, 2500),
	act("boat-cruise", "River or Harbour Cruise", core.Water, "Sightseeing cruise on the water", 1.5, 1500, 4500),
	act("snorkeling", "Snorkeling Trip", core.Water, "Boat trip with snorkeling gear", 4, 4500, 10000),
	act("market-shopping", "Local Market Shopping", core.Shopping, "Crafts and souvenirs from the main markets", 3, 2000, 10000),
	act("national-park-hike", "National Park Hike", core.Nature, "Guided hike in a nearby park", 6, 2500, 7000),
	act("botanical-garden", "Botanical Garden", core.Nature, "Entry to the botanical garden", 2, 500, 1500),
	act("day-trip-countryside", "Countryside Day Trip", core.DayTrip, "Coach day trip to nearby towns", 10, 6000, 14000),
	act("day-trip-coast", "Coastal Day Trip", core.DayTrip, "Train and guided visit to the coast", 10, 5000, 12000),
	act("hot-air-balloon", "Hot Air Balloon Ride", core.Unique, "Sunrise balloon flight", 3, 18000, 35000),
	act("helicopter-tour", "Helicopter Tour", core.Unique, "Short scenic flight over the city", 0.5, 15000, 30000),
}
