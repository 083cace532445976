// Package booking gates ride registrations: preconditions and the seat
// write happen atomically in the store, the owner notification fires
// best-effort after the transaction commits.
package booking

import (
	"context"
	"log"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/store"
)

// Registrar is the slice of the entity store the service consumes.
type Registrar interface {
	RegisterRider(ctx context.Context, req store.RegistrationRequest) (*models.RideRegistration, error)
}

// Notifier delivers the registration event to the ride owner. Delivery is
// best-effort: the registration is the source of truth and a failed send
// never rolls it back.
type Notifier interface {
	NotifyRegistration(ctx context.Context, reg *models.RideRegistration) error
}

type Service struct {
	registrar Registrar
	notifier  Notifier
}

func NewService(registrar Registrar, notifier Notifier) *Service {
	return &Service{registrar: registrar, notifier: notifier}
}

// Register validates and persists a rider's registration. Precondition
// failures surface in order as store.ErrRideUnavailable,
// store.ErrDuplicateRegistration, store.ErrInvalidPickup and
// store.ErrInvalidDropoff.
func (s *Service) Register(ctx context.Context, req store.RegistrationRequest) (*models.RideRegistration, error) {
	if req.NumberOfRiders < 1 {
		req.NumberOfRiders = 1
	}

	reg, err := s.registrar.RegisterRider(ctx, req)
	if err != nil {
		return nil, err
	}

	// Post-commit hook, outside the transaction and off the request path.
	if s.notifier != nil {
		go func() {
			if err := s.notifier.NotifyRegistration(context.Background(), reg); err != nil {
				log.Printf("Failed to notify ride owner about registration %d: %v", reg.ID, err)
			}
		}()
	}

	return reg, nil
}
