package handlers

import (
	"errors"
	"strconv"

	"github.com/chachabrian/carpool-backend/internal/booking"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/gin-gonic/gin"
)

// RegisterForRide registers the authenticated rider onto a ride at a
// chosen pickup/dropoff pair.
func RegisterForRide(svc *booking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride id"})
			return
		}

		var input struct {
			PickupID       uint   `json:"pickupId" binding:"required"`
			DropoffID      uint   `json:"dropoffId" binding:"required"`
			Instructions   string `json:"instructions" binding:"max=500"`
			NumberOfRiders int    `json:"numberOfRiders" binding:"omitempty,min=1"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		reg, err := svc.Register(c.Request.Context(), store.RegistrationRequest{
			RideID:         uint(rideID),
			RiderID:        userId,
			PickupID:       input.PickupID,
			DropoffID:      input.DropoffID,
			Instructions:   input.Instructions,
			NumberOfRiders: input.NumberOfRiders,
		})

		switch {
		case err == nil:
		case errors.Is(err, store.ErrRideUnavailable):
			c.JSON(409, gin.H{"error": "Ride is not available", "code": "ride_unavailable"})
			return
		case errors.Is(err, store.ErrDuplicateRegistration):
			c.JSON(409, gin.H{"error": "You are already registered for this ride", "code": "duplicate_registration"})
			return
		case errors.Is(err, store.ErrInvalidPickup):
			c.JSON(400, gin.H{"error": "Pickup is not offered on this ride", "code": "invalid_pickup"})
			return
		case errors.Is(err, store.ErrInvalidDropoff):
			c.JSON(400, gin.H{"error": "Dropoff is not offered on this ride", "code": "invalid_dropoff"})
			return
		case errors.Is(err, store.ErrStoreTimeout):
			c.JSON(503, gin.H{"error": "Store unavailable, try again"})
			return
		default:
			c.JSON(500, gin.H{"error": "Failed to register for ride"})
			return
		}

		c.JSON(201, reg)
	}
}

// GetMyRegistrations lists the authenticated rider's registrations
func GetMyRegistrations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		regs, err := st.RegistrationsForRider(c.Request.Context(), userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch registrations"})
			return
		}

		c.JSON(200, regs)
	}
}

// GetRideRegistrations lists the registrations on a ride the
// authenticated user owns.
func GetRideRegistrations(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride id"})
			return
		}

		ride, err := st.GetRide(c.Request.Context(), uint(rideID))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Ride not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch ride"})
			return
		}
		if ride.DriverID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized"})
			return
		}

		regs, err := st.RegistrationsForRide(c.Request.Context(), uint(rideID))
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch registrations"})
			return
		}

		c.JSON(200, regs)
	}
}
