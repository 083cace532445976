package search

import (
	"sort"

	"github.com/chachabrian/carpool-backend/internal/models"
)

// Direction selects which end of the routes city discovery projects.
type Direction string

const (
	DirectionOrigins      Direction = "origins"
	DirectionDestinations Direction = "destinations"
)

// DiscoverCities reduces a ride set to the distinct origin or destination
// cities across its routes, for populating search pickers. Pure function
// of its input; output is sorted by city name for stable display.
func DiscoverCities(rides []models.Ride, direction Direction) ([]models.City, error) {
	if direction != DirectionOrigins && direction != DirectionDestinations {
		return nil, &InvalidFilterError{
			Field:  "direction",
			Reason: "must be origins or destinations",
		}
	}

	seen := make(map[uint]models.City)
	for _, ride := range rides {
		if ride.Route == nil {
			continue
		}
		var city *models.City
		if direction == DirectionOrigins {
			city = ride.Route.FromCity
		} else {
			city = ride.Route.ToCity
		}
		if city == nil {
			continue
		}
		seen[city.ID] = *city
	}

	cities := make([]models.City, 0, len(seen))
	for _, city := range seen {
		cities = append(cities, city)
	}
	sort.Slice(cities, func(i, j int) bool {
		return cities[i].Name < cities[j].Name
	})
	return cities, nil
}
