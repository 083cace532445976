// Package search implements ride discovery: exact relational filters are
// pushed down to the entity store, geospatial proximity filters are applied
// on the returned candidate set.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

// DefaultMaxDistanceKm applies when a reference point is supplied without
// a radius.
const DefaultMaxDistanceKm = 5

// InvalidFilterError reports malformed discovery criteria. It is a client
// error; "no results" is never an error.
type InvalidFilterError struct {
	Field  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s", e.Field, e.Reason)
}

// GeoFilter keeps rides having at least one candidate location within
// RadiusKm of Point. A nil RadiusKm means DefaultMaxDistanceKm; a
// supplied radius must be positive.
type GeoFilter struct {
	Point    utils.Point
	RadiusKm *float64
}

// Criteria describes one discovery query. All fields are optional; empty
// criteria match every ride subject to the default status and exclusion
// rules.
type Criteria struct {
	FromCityID *uint
	ToCityID   *uint

	// Date matches the calendar day only; a ride at any time on that day
	// matches.
	Date *time.Time

	// AllStatuses lifts the default AVAILABLE-only restriction, for
	// owner/internal queries.
	AllStatuses bool

	// ExcludeUserID drops rides owned by this user, so a driver never sees
	// their own ride as a rider option.
	ExcludeUserID *uint

	// MinSeatsLeft keeps rides that can still take a party of this size.
	MinSeatsLeft *int

	PickupNear  *GeoFilter
	DropoffNear *GeoFilter
}

// RideLister is the slice of the entity store the engine consumes.
type RideLister interface {
	ListRides(ctx context.Context, f store.RideFilter) ([]models.Ride, error)
}

// Engine composes relational and geospatial predicates into a single
// candidate set. The result is the intersection of every predicate's
// matches, so predicate order cannot change it; relational filters go
// first only because they are the cheap ones.
type Engine struct {
	rides RideLister
}

func NewEngine(rides RideLister) *Engine {
	return &Engine{rides: rides}
}

// FindRides returns the rides matching every set criterion. Unknown city
// ids simply match nothing.
func (e *Engine) FindRides(ctx context.Context, c Criteria) ([]models.Ride, error) {
	pickup, err := normalizeGeoFilter("pickup", c.PickupNear)
	if err != nil {
		return nil, err
	}
	dropoff, err := normalizeGeoFilter("dropoff", c.DropoffNear)
	if err != nil {
		return nil, err
	}

	if c.MinSeatsLeft != nil && *c.MinSeatsLeft < 1 {
		return nil, &InvalidFilterError{
			Field:  "seats",
			Reason: "must be at least 1",
		}
	}

	f := store.RideFilter{
		FromCityID:    c.FromCityID,
		ToCityID:      c.ToCityID,
		Day:           c.Date,
		ExcludeUserID: c.ExcludeUserID,
		MinSeatsLeft:  c.MinSeatsLeft,
	}
	if !c.AllStatuses {
		f.Statuses = []string{models.RideStatusAvailable}
	}

	rides, err := e.rides.ListRides(ctx, f)
	if err != nil {
		return nil, err
	}

	if pickup != nil {
		rides = keepRidesNear(rides, models.LocationKindPickup, *pickup)
	}
	if dropoff != nil {
		rides = keepRidesNear(rides, models.LocationKindDropoff, *dropoff)
	}
	return rides, nil
}

// proximity is a validated geo filter with the default radius applied.
type proximity struct {
	point    utils.Point
	radiusKm float64
}

func normalizeGeoFilter(field string, g *GeoFilter) (*proximity, error) {
	if g == nil {
		return nil, nil
	}
	if err := utils.ValidatePoint(g.Point); err != nil {
		var coordErr *utils.InvalidCoordinateError
		if errors.As(err, &coordErr) {
			return nil, &InvalidFilterError{
				Field:  field + "_" + coordErr.Field,
				Reason: err.Error(),
			}
		}
		return nil, err
	}
	out := proximity{point: g.Point, radiusKm: DefaultMaxDistanceKm}
	if g.RadiusKm != nil {
		if *g.RadiusKm <= 0 {
			return nil, &InvalidFilterError{
				Field:  field + "_radius",
				Reason: "radius must be positive",
			}
		}
		out.radiusKm = *g.RadiusKm
	}
	return &out, nil
}

// keepRidesNear keeps rides with at least one candidate location of the
// given kind inside the radius. A bounding box prunes candidates before
// the exact great-circle check.
func keepRidesNear(rides []models.Ride, kind string, g proximity) []models.Ride {
	bbox := utils.GetBoundingBox(g.point, g.radiusKm)

	matched := rides[:0]
	for _, ride := range rides {
		for _, loc := range ride.Locations {
			if loc.Kind != kind {
				continue
			}
			p := utils.Point{Lat: loc.Latitude, Lng: loc.Longitude}
			if !utils.IsPointInBoundingBox(p, bbox) {
				continue
			}
			if utils.HaversineDistance(g.point, p) <= g.radiusKm {
				matched = append(matched, ride)
				break
			}
		}
	}
	return matched
}
