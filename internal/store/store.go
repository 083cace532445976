package store

import (
	"context"
	"errors"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
)

// Business-rule and infrastructure errors surfaced by the store. Handlers
// map these to HTTP status codes with errors.Is.
var (
	ErrNotFound              = errors.New("record not found")
	ErrRideUnavailable       = errors.New("ride is not available")
	ErrDuplicateRegistration = errors.New("rider already registered for this ride")
	ErrInvalidPickup         = errors.New("pickup is not offered on this ride")
	ErrInvalidDropoff        = errors.New("dropoff is not offered on this ride")
	ErrNotRideOwner          = errors.New("ride does not belong to this user")
	ErrRideTerminal          = errors.New("ride is already completed or deleted")
	ErrStoreTimeout          = errors.New("store operation timed out")
)

// RideFilter holds the exact-match predicates pushed down to SQL. Nil
// fields are not applied. Geo predicates are applied by the search engine
// on the returned set.
type RideFilter struct {
	FromCityID    *uint
	ToCityID      *uint
	Day           *time.Time // calendar day, time-of-day ignored
	Statuses      []string
	ExcludeUserID *uint
	MinSeatsLeft  *int // rides with at least this many unbooked seats
}

// RegistrationRequest carries a rider's request to join a ride.
type RegistrationRequest struct {
	RideID         uint
	RiderID        uint
	PickupID       uint
	DropoffID      uint
	Instructions   string
	NumberOfRiders int
}

// Store is the entity store consumed by the search engine, the
// registration service and the ride handlers.
type Store interface {
	// GetRide returns a ride with route, car, driver and locations loaded.
	GetRide(ctx context.Context, id uint) (*models.Ride, error)

	// ListRides returns rides matching every set predicate, with route
	// (including cities), car and candidate locations loaded.
	ListRides(ctx context.Context, f RideFilter) ([]models.Ride, error)

	// ListRidesByDriver returns a driver's own rides, newest date first.
	ListRidesByDriver(ctx context.Context, driverID uint) ([]models.Ride, error)

	// CreateRide persists a ride together with its candidate locations.
	CreateRide(ctx context.Context, ride *models.Ride) error

	// TransitionRide moves a ride owned by driverID out of AVAILABLE.
	// Transitions from COMPLETED or DELETED fail with ErrRideTerminal.
	TransitionRide(ctx context.Context, rideID, driverID uint, toStatus string) error

	// RegisterRider atomically validates and persists a registration,
	// incrementing the ride's booked seats. Precondition failures are
	// reported in order: ride availability (including capacity), duplicate
	// registration, pickup membership, dropoff membership.
	RegisterRider(ctx context.Context, req RegistrationRequest) (*models.RideRegistration, error)

	// RegistrationsForRider returns a rider's registration history.
	RegistrationsForRider(ctx context.Context, riderID uint) ([]models.RideRegistration, error)

	// RegistrationsForRide returns the registrations on a ride.
	RegistrationsForRide(ctx context.Context, rideID uint) ([]models.RideRegistration, error)
}
