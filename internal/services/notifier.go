package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/chachabrian/carpool-backend/internal/models"
)

// RegistrationNotifier delivers registration events to ride owners over
// FCM and, when the owner is connected, the WebSocket feed. It satisfies
// booking.Notifier.
type RegistrationNotifier struct {
	hub *Hub
}

func NewRegistrationNotifier(hub *Hub) *RegistrationNotifier {
	return &RegistrationNotifier{hub: hub}
}

// NotifyRegistration sends the registration event to the ride owner. The
// owner having no registered device is not a failure; it only skips the
// push.
func (n *RegistrationNotifier) NotifyRegistration(ctx context.Context, reg *models.RideRegistration) error {
	if reg.Ride == nil || reg.Ride.Driver == nil {
		return fmt.Errorf("registration %d is missing ride owner data", reg.ID)
	}

	owner := reg.Ride.Driver
	riderUsername := ""
	if reg.Rider != nil {
		riderUsername = reg.Rider.Username
	}
	pickupAddress, dropoffAddress := "", ""
	if reg.Pickup != nil {
		pickupAddress = reg.Pickup.Address
	}
	if reg.Dropoff != nil {
		dropoffAddress = reg.Dropoff.Address
	}

	if n.hub != nil {
		event, err := json.Marshal(WebSocketMessage{
			Type: "ride_registration",
			Data: RegistrationEvent{
				RideID:         reg.RideID,
				RegistrationID: reg.ID,
				RiderUsername:  riderUsername,
				PickupAddress:  pickupAddress,
				DropoffAddress: dropoffAddress,
				NumberOfRiders: reg.NumberOfRiders,
			},
		})
		if err == nil {
			n.hub.BroadcastToUser(owner.ID, event)
		} else {
			log.Printf("Error marshaling registration event: %v", err)
		}
	}

	if owner.FCMToken == "" {
		log.Printf("Ride owner %d has no registered device, skipping push", owner.ID)
		return nil
	}

	return SendRideRegistrationNotification(ctx, owner.FCMToken, reg.RideID,
		riderUsername, pickupAddress, dropoffAddress)
}
