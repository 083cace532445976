package store

import (
	"context"
	"errors"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// queryTimeout bounds every store call so a wedged connection surfaces as
// ErrStoreTimeout instead of hanging the request.
const queryTimeout = 5 * time.Second

// GormStore is the Postgres-backed Store implementation.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrStoreTimeout
	default:
		return err
	}
}

func (s *GormStore) GetRide(ctx context.Context, id uint) (*models.Ride, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ride models.Ride
	err := s.db.WithContext(ctx).
		Preload("Route.FromCity").
		Preload("Route.ToCity").
		Preload("Car").
		Preload("Driver").
		Preload("Locations").
		First(&ride, id).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &ride, nil
}

func (s *GormStore) ListRides(ctx context.Context, f RideFilter) ([]models.Ride, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).Model(&models.Ride{}).
		Preload("Route.FromCity").
		Preload("Route.ToCity").
		Preload("Car").
		Preload("Driver").
		Preload("Locations")

	if f.FromCityID != nil || f.ToCityID != nil {
		q = q.Joins("JOIN routes ON routes.id = rides.route_id")
		if f.FromCityID != nil {
			q = q.Where("routes.from_city_id = ?", *f.FromCityID)
		}
		if f.ToCityID != nil {
			q = q.Where("routes.to_city_id = ?", *f.ToCityID)
		}
	}
	if f.Day != nil {
		day := f.Day.UTC()
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("rides.date >= ? AND rides.date < ?", start, start.Add(24*time.Hour))
	}
	if len(f.Statuses) > 0 {
		q = q.Where("rides.status IN ?", f.Statuses)
	}
	if f.ExcludeUserID != nil {
		q = q.Where("rides.driver_id <> ?", *f.ExcludeUserID)
	}
	if f.MinSeatsLeft != nil {
		q = q.Where("rides.available_seats - rides.booked_seats >= ?", *f.MinSeatsLeft)
	}

	var rides []models.Ride
	if err := q.Order("rides.date ASC").Find(&rides).Error; err != nil {
		return nil, wrapErr(err)
	}
	return rides, nil
}

func (s *GormStore) ListRidesByDriver(ctx context.Context, driverID uint) ([]models.Ride, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var rides []models.Ride
	err := s.db.WithContext(ctx).
		Preload("Route.FromCity").
		Preload("Route.ToCity").
		Preload("Car").
		Preload("Locations").
		Where("driver_id = ?", driverID).
		Order("date DESC").
		Find(&rides).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return rides, nil
}

func (s *GormStore) CreateRide(ctx context.Context, ride *models.Ride) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return wrapErr(s.db.WithContext(ctx).Create(ride).Error)
}

func (s *GormStore) TransitionRide(ctx context.Context, rideID, driverID uint, toStatus string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ride, rideID).Error; err != nil {
			return err
		}
		if ride.DriverID != driverID {
			return ErrNotRideOwner
		}
		if ride.IsTerminal() {
			return ErrRideTerminal
		}
		return tx.Model(&ride).Update("status", toStatus).Error
	})
	return wrapErr(err)
}

// RegisterRider runs the whole registration write under a row lock on the
// ride so concurrent attempts for the last seat serialize: exactly one
// succeeds, the rest see ErrRideUnavailable.
func (s *GormStore) RegisterRider(ctx context.Context, req RegistrationRequest) (*models.RideRegistration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if req.NumberOfRiders < 1 {
		req.NumberOfRiders = 1
	}

	var reg models.RideRegistration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&ride, req.RideID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRideUnavailable
			}
			return err
		}
		if ride.Status != models.RideStatusAvailable {
			return ErrRideUnavailable
		}
		if ride.BookedSeats+req.NumberOfRiders > ride.AvailableSeats {
			return ErrRideUnavailable
		}

		var dup int64
		if err := tx.Model(&models.RideRegistration{}).
			Where("ride_id = ? AND rider_id = ?", req.RideID, req.RiderID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateRegistration
		}

		// Pickup and dropoff must belong to this ride's candidate sets; a
		// location id that exists on another ride is still invalid here.
		var pickups int64
		if err := tx.Model(&models.Location{}).
			Where("id = ? AND ride_id = ? AND kind = ?",
				req.PickupID, req.RideID, models.LocationKindPickup).
			Count(&pickups).Error; err != nil {
			return err
		}
		if pickups == 0 {
			return ErrInvalidPickup
		}

		var dropoffs int64
		if err := tx.Model(&models.Location{}).
			Where("id = ? AND ride_id = ? AND kind = ?",
				req.DropoffID, req.RideID, models.LocationKindDropoff).
			Count(&dropoffs).Error; err != nil {
			return err
		}
		if dropoffs == 0 {
			return ErrInvalidDropoff
		}

		reg = models.RideRegistration{
			RideID:         req.RideID,
			RiderID:        req.RiderID,
			PickupID:       req.PickupID,
			DropoffID:      req.DropoffID,
			Instructions:   req.Instructions,
			NumberOfRiders: req.NumberOfRiders,
			Status:         models.RegistrationStatusPending,
		}
		if err := tx.Create(&reg).Error; err != nil {
			return err
		}

		return tx.Model(&ride).
			Update("booked_seats", ride.BookedSeats+req.NumberOfRiders).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}

	// Reload with the relations the notification payload needs.
	err = s.db.WithContext(ctx).
		Preload("Ride.Driver").
		Preload("Rider").
		Preload("Pickup").
		Preload("Dropoff").
		First(&reg, reg.ID).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &reg, nil
}

func (s *GormStore) RegistrationsForRider(ctx context.Context, riderID uint) ([]models.RideRegistration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var regs []models.RideRegistration
	err := s.db.WithContext(ctx).
		Preload("Ride.Route.FromCity").
		Preload("Ride.Route.ToCity").
		Preload("Ride.Driver").
		Preload("Pickup").
		Preload("Dropoff").
		Where("rider_id = ?", riderID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return regs, nil
}

func (s *GormStore) RegistrationsForRide(ctx context.Context, rideID uint) ([]models.RideRegistration, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var regs []models.RideRegistration
	err := s.db.WithContext(ctx).
		Preload("Rider").
		Preload("Pickup").
		Preload("Dropoff").
		Where("ride_id = ?", rideID).
		Order("created_at ASC").
		Find(&regs).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return regs, nil
}
