package search

import (
	"context"
	"testing"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/chachabrian/carpool-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memLister applies RideFilter predicates over an in-memory ride set the
// way the SQL store would.
type memLister struct {
	rides []models.Ride
}

func (m *memLister) ListRides(_ context.Context, f store.RideFilter) ([]models.Ride, error) {
	var out []models.Ride
	for _, ride := range m.rides {
		if f.FromCityID != nil && (ride.Route == nil || ride.Route.FromCityID != *f.FromCityID) {
			continue
		}
		if f.ToCityID != nil && (ride.Route == nil || ride.Route.ToCityID != *f.ToCityID) {
			continue
		}
		if f.Day != nil {
			day := f.Day.UTC()
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
			if ride.Date.Before(start) || !ride.Date.Before(start.Add(24*time.Hour)) {
				continue
			}
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				if ride.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if f.ExcludeUserID != nil && ride.DriverID == *f.ExcludeUserID {
			continue
		}
		if f.MinSeatsLeft != nil && ride.SeatsLeft() < *f.MinSeatsLeft {
			continue
		}
		out = append(out, ride)
	}
	return out, nil
}

var (
	lagos = models.City{Model: gorm.Model{ID: 1}, Name: "Lagos"}
	abuja = models.City{Model: gorm.Model{ID: 2}, Name: "Abuja"}
	kano  = models.City{Model: gorm.Model{ID: 3}, Name: "Kano"}
)

func route(id, fromID, toID uint, from, to *models.City) *models.Route {
	return &models.Route{
		Model:      gorm.Model{ID: id},
		Rate:       2500,
		FromCityID: fromID,
		ToCityID:   toID,
		FromCity:   from,
		ToCity:     to,
	}
}

func lagosAbujaRide() models.Ride {
	return models.Ride{
		Model:            gorm.Model{ID: 10},
		AvailableSeats:   3,
		BookedSeats:      0,
		Status:           models.RideStatusAvailable,
		GenderPreference: models.GenderNone,
		RouteID:          1,
		DriverID:         7,
		CarID:            1,
		Date:             time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Route:            route(1, lagos.ID, abuja.ID, &lagos, &abuja),
		Locations: []models.Location{
			{Model: gorm.Model{ID: 100}, RideID: 10, Kind: models.LocationKindPickup, Latitude: 6.5, Longitude: 3.3, Address: "Ikeja Bus Stop"},
			{Model: gorm.Model{ID: 101}, RideID: 10, Kind: models.LocationKindDropoff, Latitude: 9.0, Longitude: 7.4, Address: "Wuse Market"},
		},
	}
}

func uintPtr(v uint) *uint { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func kmPtr(v float64) *float64 { return &v }

func TestFindRidesExactAndGeoFilters(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	criteria := Criteria{
		FromCityID: uintPtr(lagos.ID),
		ToCityID:   uintPtr(abuja.ID),
		Date:       timePtr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}, RadiusKm: kmPtr(5)},
	}

	rides, err := engine.FindRides(context.Background(), criteria)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, uint(10), rides[0].ID)
}

func TestFindRidesTinyRadiusFarPointMatchesNothing(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	criteria := Criteria{
		// roughly 50km away from the ride's pickup
		PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.95, Lng: 3.3}, RadiusKm: kmPtr(0.01)},
	}

	rides, err := engine.FindRides(context.Background(), criteria)
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestFindRidesDefaultRadiusApplied(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	// ~1.6km from the pickup. No radius given: the 5km default applies.
	criteria := Criteria{
		PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}},
	}

	rides, err := engine.FindRides(context.Background(), criteria)
	require.NoError(t, err)
	assert.Len(t, rides, 1)
}

func TestFindRidesExplicitZeroRadiusRejected(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	// same point as the default-radius case, but the radius is supplied
	// as 0: that is a client error, not a request for the default
	rides, err := engine.FindRides(context.Background(), Criteria{
		PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}, RadiusKm: kmPtr(0)},
	})
	var filterErr *InvalidFilterError
	require.ErrorAs(t, err, &filterErr)
	assert.Equal(t, "pickup_radius", filterErr.Field)
	assert.Empty(t, rides)
}

func TestFindRidesDayMatchIgnoresTimeOfDay(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	// ride departs at 08:00; querying the bare day still matches
	rides, err := engine.FindRides(context.Background(), Criteria{
		Date: timePtr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Len(t, rides, 1)

	rides, err = engine.FindRides(context.Background(), Criteria{
		Date: timePtr(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestFindRidesExcludesOwner(t *testing.T) {
	ride := lagosAbujaRide()
	engine := NewEngine(&memLister{rides: []models.Ride{ride}})

	rides, err := engine.FindRides(context.Background(), Criteria{
		ExcludeUserID: uintPtr(ride.DriverID),
	})
	require.NoError(t, err)
	assert.Empty(t, rides)

	rides, err = engine.FindRides(context.Background(), Criteria{
		ExcludeUserID: uintPtr(999),
	})
	require.NoError(t, err)
	assert.Len(t, rides, 1)
}

func TestFindRidesDefaultStatusAvailableOnly(t *testing.T) {
	available := lagosAbujaRide()
	deleted := lagosAbujaRide()
	deleted.ID = 11
	deleted.Status = models.RideStatusDeleted

	engine := NewEngine(&memLister{rides: []models.Ride{available, deleted}})

	rides, err := engine.FindRides(context.Background(), Criteria{})
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, available.ID, rides[0].ID)

	rides, err = engine.FindRides(context.Background(), Criteria{AllStatuses: true})
	require.NoError(t, err)
	assert.Len(t, rides, 2)
}

func TestFindRidesMinSeatsLeft(t *testing.T) {
	nearlyFull := lagosAbujaRide()
	nearlyFull.BookedSeats = 2 // one of three seats left

	engine := NewEngine(&memLister{rides: []models.Ride{nearlyFull}})

	seats := 1
	rides, err := engine.FindRides(context.Background(), Criteria{MinSeatsLeft: &seats})
	require.NoError(t, err)
	assert.Len(t, rides, 1)

	seats = 2
	rides, err = engine.FindRides(context.Background(), Criteria{MinSeatsLeft: &seats})
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestFindRidesMinSeatsLeftRejectsNonPositive(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	seats := 0
	_, err := engine.FindRides(context.Background(), Criteria{MinSeatsLeft: &seats})
	var filterErr *InvalidFilterError
	require.ErrorAs(t, err, &filterErr)
	assert.Equal(t, "seats", filterErr.Field)
}

func TestFindRidesUnknownCityMatchesNothing(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	rides, err := engine.FindRides(context.Background(), Criteria{
		FromCityID: uintPtr(4242),
	})
	require.NoError(t, err)
	assert.Empty(t, rides)
}

func TestFindRidesConjunctiveAcrossBothGeoFilters(t *testing.T) {
	ride := lagosAbujaRide()
	engine := NewEngine(&memLister{rides: []models.Ride{ride}})

	// pickup matches but dropoff reference is nowhere near Abuja
	rides, err := engine.FindRides(context.Background(), Criteria{
		PickupNear:  &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}, RadiusKm: kmPtr(5)},
		DropoffNear: &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}, RadiusKm: kmPtr(5)},
	})
	require.NoError(t, err)
	assert.Empty(t, rides)

	// both ends near their candidates
	rides, err = engine.FindRides(context.Background(), Criteria{
		PickupNear:  &GeoFilter{Point: utils.Point{Lat: 6.51, Lng: 3.31}, RadiusKm: kmPtr(5)},
		DropoffNear: &GeoFilter{Point: utils.Point{Lat: 9.01, Lng: 7.41}, RadiusKm: kmPtr(5)},
	})
	require.NoError(t, err)
	assert.Len(t, rides, 1)
}

func TestFindRidesInvalidGeoInput(t *testing.T) {
	engine := NewEngine(&memLister{rides: []models.Ride{lagosAbujaRide()}})

	tests := []struct {
		name     string
		criteria Criteria
	}{
		{
			"latitude out of range",
			Criteria{PickupNear: &GeoFilter{Point: utils.Point{Lat: 95, Lng: 3.3}}},
		},
		{
			"longitude out of range",
			Criteria{DropoffNear: &GeoFilter{Point: utils.Point{Lat: 6.5, Lng: 200}}},
		},
		{
			"negative radius",
			Criteria{PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.5, Lng: 3.3}, RadiusKm: kmPtr(-1)}},
		},
		{
			"zero radius",
			Criteria{PickupNear: &GeoFilter{Point: utils.Point{Lat: 6.5, Lng: 3.3}, RadiusKm: kmPtr(0)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.FindRides(context.Background(), tt.criteria)
			var filterErr *InvalidFilterError
			require.ErrorAs(t, err, &filterErr)
		})
	}
}

func TestDiscoverCities(t *testing.T) {
	lagosAbuja := lagosAbujaRide()

	kanoAbuja := lagosAbujaRide()
	kanoAbuja.ID = 12
	kanoAbuja.Route = route(2, kano.ID, abuja.ID, &kano, &abuja)

	rides := []models.Ride{lagosAbuja, kanoAbuja}

	origins, err := DiscoverCities(rides, DirectionOrigins)
	require.NoError(t, err)
	require.Len(t, origins, 2)
	// sorted by name
	assert.Equal(t, "Kano", origins[0].Name)
	assert.Equal(t, "Lagos", origins[1].Name)

	destinations, err := DiscoverCities(rides, DirectionDestinations)
	require.NoError(t, err)
	require.Len(t, destinations, 1)
	assert.Equal(t, "Abuja", destinations[0].Name)
}

func TestDiscoverCitiesInvalidDirection(t *testing.T) {
	_, err := DiscoverCities(nil, Direction("sideways"))
	var filterErr *InvalidFilterError
	require.ErrorAs(t, err, &filterErr)
}

func TestDiscoverCitiesEmptyInput(t *testing.T) {
	cities, err := DiscoverCities(nil, DirectionOrigins)
	require.NoError(t, err)
	assert.Empty(t, cities)
}
