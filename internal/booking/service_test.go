package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memRegistrar mimics the store's transactional registration semantics
// over in-memory state.
type memRegistrar struct {
	mu     sync.Mutex
	ride   models.Ride
	byUser map[uint]bool
	nextID uint
}

func newMemRegistrar(ride models.Ride) *memRegistrar {
	return &memRegistrar{ride: ride, byUser: make(map[uint]bool), nextID: 1}
}

func (m *memRegistrar) RegisterRider(_ context.Context, req store.RegistrationRequest) (*models.RideRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.NumberOfRiders < 1 {
		req.NumberOfRiders = 1
	}

	if req.RideID != m.ride.ID || m.ride.Status != models.RideStatusAvailable {
		return nil, store.ErrRideUnavailable
	}
	if m.ride.BookedSeats+req.NumberOfRiders > m.ride.AvailableSeats {
		return nil, store.ErrRideUnavailable
	}
	if m.byUser[req.RiderID] {
		return nil, store.ErrDuplicateRegistration
	}
	if !m.hasLocation(req.PickupID, models.LocationKindPickup) {
		return nil, store.ErrInvalidPickup
	}
	if !m.hasLocation(req.DropoffID, models.LocationKindDropoff) {
		return nil, store.ErrInvalidDropoff
	}

	m.byUser[req.RiderID] = true
	m.ride.BookedSeats += req.NumberOfRiders

	reg := &models.RideRegistration{
		Model:          gorm.Model{ID: m.nextID},
		RideID:         req.RideID,
		RiderID:        req.RiderID,
		PickupID:       req.PickupID,
		DropoffID:      req.DropoffID,
		Instructions:   req.Instructions,
		NumberOfRiders: req.NumberOfRiders,
		Status:         models.RegistrationStatusPending,
		Ride:           &m.ride,
	}
	m.nextID++
	return reg, nil
}

func (m *memRegistrar) hasLocation(id uint, kind string) bool {
	for _, loc := range m.ride.Locations {
		if loc.ID == id && loc.Kind == kind {
			return true
		}
	}
	return false
}

func (m *memRegistrar) bookedSeats() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ride.BookedSeats
}

// recordingNotifier records notifications and optionally fails.
type recordingNotifier struct {
	mu       sync.Mutex
	notified []uint
	fail     error
	done     chan struct{}
}

func newRecordingNotifier(fail error) *recordingNotifier {
	return &recordingNotifier{fail: fail, done: make(chan struct{}, 16)}
}

func (n *recordingNotifier) NotifyRegistration(_ context.Context, reg *models.RideRegistration) error {
	n.mu.Lock()
	n.notified = append(n.notified, reg.ID)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.fail
}

func (n *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(time.Second):
		t.Fatal("notifier was never invoked")
	}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notified)
}

func testRide() models.Ride {
	return models.Ride{
		Model:          gorm.Model{ID: 10},
		AvailableSeats: 3,
		Status:         models.RideStatusAvailable,
		DriverID:       7,
		Locations: []models.Location{
			{Model: gorm.Model{ID: 100}, RideID: 10, Kind: models.LocationKindPickup, Address: "Ikeja Bus Stop"},
			{Model: gorm.Model{ID: 101}, RideID: 10, Kind: models.LocationKindDropoff, Address: "Wuse Market"},
		},
	}
}

func validRequest() store.RegistrationRequest {
	return store.RegistrationRequest{
		RideID:         10,
		RiderID:        42,
		PickupID:       100,
		DropoffID:      101,
		NumberOfRiders: 1,
	}
}

func TestRegisterSuccess(t *testing.T) {
	registrar := newMemRegistrar(testRide())
	notifier := newRecordingNotifier(nil)
	svc := NewService(registrar, notifier)

	reg, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	assert.Equal(t, 1, registrar.bookedSeats())

	notifier.wait(t)
	assert.Equal(t, 1, notifier.count())
}

func TestRegisterDuplicateRejected(t *testing.T) {
	registrar := newMemRegistrar(testRide())
	svc := NewService(registrar, nil)

	_, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRequest())
	assert.ErrorIs(t, err, store.ErrDuplicateRegistration)
	assert.Equal(t, 1, registrar.bookedSeats())
}

func TestRegisterRideNotAvailable(t *testing.T) {
	ride := testRide()
	ride.Status = models.RideStatusDeleted
	svc := NewService(newMemRegistrar(ride), nil)

	_, err := svc.Register(context.Background(), validRequest())
	assert.ErrorIs(t, err, store.ErrRideUnavailable)
}

func TestRegisterInvalidPickupAndDropoff(t *testing.T) {
	svc := NewService(newMemRegistrar(testRide()), nil)

	req := validRequest()
	req.PickupID = 999 // exists on no ride, or on another ride: both invalid here
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrInvalidPickup)

	req = validRequest()
	req.DropoffID = 100 // a pickup id is not a valid dropoff
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, store.ErrInvalidDropoff)
}

func TestRegisterCapacityEnforced(t *testing.T) {
	registrar := newMemRegistrar(testRide())
	svc := NewService(registrar, nil)

	req := validRequest()
	req.NumberOfRiders = 3
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	// last seat gone: the next rider is turned away
	req2 := validRequest()
	req2.RiderID = 43
	_, err = svc.Register(context.Background(), req2)
	assert.ErrorIs(t, err, store.ErrRideUnavailable)
	assert.Equal(t, 3, registrar.bookedSeats())
}

func TestRegisterConcurrentLastSeat(t *testing.T) {
	ride := testRide()
	ride.AvailableSeats = 1
	registrar := newMemRegistrar(ride)
	svc := NewService(registrar, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.RiderID = uint(42 + i)
			_, errs[i] = svc.Register(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var successes, unavailable int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, store.ErrRideUnavailable):
			unavailable++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, unavailable)
	assert.Equal(t, 1, registrar.bookedSeats())
}

func TestRegisterNotificationFailureDoesNotFailRegistration(t *testing.T) {
	registrar := newMemRegistrar(testRide())
	notifier := newRecordingNotifier(errors.New("owner has no registered device"))
	svc := NewService(registrar, notifier)

	reg, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, reg)

	notifier.wait(t)
	assert.Equal(t, 1, registrar.bookedSeats())
}

func TestRegisterDefaultsPartySizeToOne(t *testing.T) {
	registrar := newMemRegistrar(testRide())
	svc := NewService(registrar, nil)

	req := validRequest()
	req.NumberOfRiders = 0
	reg, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.NumberOfRiders)
	assert.Equal(t, 1, registrar.bookedSeats())
}
