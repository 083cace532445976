package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/search"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/chachabrian/carpool-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type locationInput struct {
	Lat     float64 `json:"lat" binding:"required"`
	Lng     float64 `json:"lng" binding:"required"`
	Address string  `json:"address" binding:"required"`
}

// CreateRide publishes a ride on an existing route with its candidate
// pickup/dropoff location sets.
func CreateRide(db *gorm.DB, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can create rides"})
			return
		}

		var input struct {
			FromCityID       uint            `json:"fromCityId" binding:"required"`
			ToCityID         uint            `json:"toCityId" binding:"required"`
			CarID            uint            `json:"carId" binding:"required"`
			AvailableSeats   int             `json:"availableSeats" binding:"required,min=1"`
			GenderPreference string          `json:"genderPreference" binding:"omitempty,oneof=MALE FEMALE NONE"`
			Date             time.Time       `json:"date" binding:"required"`
			PickupLocations  []locationInput `json:"pickupLocations" binding:"required,min=1"`
			DropoffLocations []locationInput `json:"dropoffLocations" binding:"required,min=1"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.Date.Before(time.Now()) {
			c.JSON(400, gin.H{"error": "Ride date must be in the future"})
			return
		}

		for _, loc := range append(input.PickupLocations, input.DropoffLocations...) {
			if err := utils.ValidatePoint(utils.Point{Lat: loc.Lat, Lng: loc.Lng}); err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
		}

		var route models.Route
		if err := db.Where("from_city_id = ? AND to_city_id = ?",
			input.FromCityID, input.ToCityID).First(&route).Error; err != nil {
			c.JSON(400, gin.H{"error": "No route between those cities"})
			return
		}

		var car models.Car
		if err := db.First(&car, input.CarID).Error; err != nil {
			c.JSON(400, gin.H{"error": "Car not found"})
			return
		}
		if car.OwnerID != userId {
			c.JSON(403, gin.H{"error": "You can only publish rides with your own car"})
			return
		}
		// The driver occupies one seat
		if input.AvailableSeats >= car.SeatingCapacity {
			c.JSON(400, gin.H{"error": "Available seats exceed the car's capacity"})
			return
		}

		genderPreference := input.GenderPreference
		if genderPreference == "" {
			genderPreference = models.GenderNone
		}

		ride := models.Ride{
			AvailableSeats:   input.AvailableSeats,
			Status:           models.RideStatusAvailable,
			GenderPreference: genderPreference,
			RouteID:          route.ID,
			DriverID:         userId,
			CarID:            input.CarID,
			Date:             input.Date,
		}
		for _, loc := range input.PickupLocations {
			ride.Locations = append(ride.Locations, models.Location{
				Kind:      models.LocationKindPickup,
				Latitude:  loc.Lat,
				Longitude: loc.Lng,
				Address:   loc.Address,
			})
		}
		for _, loc := range input.DropoffLocations {
			ride.Locations = append(ride.Locations, models.Location{
				Kind:      models.LocationKindDropoff,
				Latitude:  loc.Lat,
				Longitude: loc.Lng,
				Address:   loc.Address,
			})
		}

		if err := st.CreateRide(c.Request.Context(), &ride); err != nil {
			c.JSON(500, gin.H{"error": "Failed to create ride"})
			return
		}

		// New ride may open new origin/destination pairs
		if err := services.InvalidateCityCache(context.Background()); err != nil {
			log.Printf("Failed to invalidate city cache: %v", err)
		}

		c.JSON(201, rideResponse(ride))
	}
}

// SearchRides answers discovery queries: exact route/date filters plus
// optional pickup/dropoff proximity filters. The caller's own rides are
// excluded.
func SearchRides(engine *search.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		criteria, err := criteriaFromQuery(c)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		criteria.ExcludeUserID = &userId

		rides, err := findRidesWithRetry(c, engine, *criteria)
		if err != nil {
			respondSearchError(c, err)
			return
		}

		out := make([]gin.H, 0, len(rides))
		for _, ride := range rides {
			out = append(out, rideResponse(ride))
		}
		c.JSON(200, out)
	}
}

// GetMyRides lists the authenticated driver's own rides
func GetMyRides(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rides, err := st.ListRidesByDriver(c.Request.Context(), userId)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rides"})
			return
		}

		out := make([]gin.H, 0, len(rides))
		for _, ride := range rides {
			out = append(out, rideResponse(ride))
		}
		c.JSON(200, out)
	}
}

// DiscoverCities returns the distinct reachable origin or destination
// cities for the given (possibly partial) search. Results are cached.
func DiscoverCities(engine *search.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		direction := search.Direction(c.DefaultQuery("direction", string(search.DirectionDestinations)))

		criteria, err := criteriaFromQuery(c)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		cacheKey := c.Request.URL.RawQuery
		if cities, err := services.GetDiscoveredCities(c.Request.Context(), cacheKey); err == nil {
			c.JSON(200, cities)
			return
		}

		rides, err := findRidesWithRetry(c, engine, *criteria)
		if err != nil {
			respondSearchError(c, err)
			return
		}

		cities, err := search.DiscoverCities(rides, direction)
		if err != nil {
			respondSearchError(c, err)
			return
		}

		if err := services.CacheDiscoveredCities(c.Request.Context(), cacheKey, cities); err != nil {
			log.Printf("Failed to cache discovered cities: %v", err)
		}

		c.JSON(200, cities)
	}
}

// CompleteRide marks a ride done. Terminal rides cannot transition.
func CompleteRide(st store.Store, hub *services.Hub) gin.HandlerFunc {
	return transitionRide(st, hub, models.RideStatusCompleted, "Ride marked as completed")
}

// DeleteRide soft-cancels a ride; it stays queryable for history.
func DeleteRide(st store.Store, hub *services.Hub) gin.HandlerFunc {
	return transitionRide(st, hub, models.RideStatusDeleted, "Ride successfully deleted")
}

func transitionRide(st store.Store, hub *services.Hub, toStatus, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride id"})
			return
		}

		err = st.TransitionRide(c.Request.Context(), uint(rideID), userId, toStatus)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrNotFound):
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		case errors.Is(err, store.ErrNotRideOwner):
			c.JSON(403, gin.H{"error": "Unauthorized to update this ride"})
			return
		case errors.Is(err, store.ErrRideTerminal):
			c.JSON(409, gin.H{"error": "Ride is already completed or deleted"})
			return
		case errors.Is(err, store.ErrStoreTimeout):
			c.JSON(503, gin.H{"error": "Store unavailable, try again"})
			return
		default:
			c.JSON(500, gin.H{"error": "Failed to update ride"})
			return
		}

		if err := services.InvalidateCityCache(context.Background()); err != nil {
			log.Printf("Failed to invalidate city cache: %v", err)
		}

		// Tell registered riders the ride changed state
		go notifyRegisteredRiders(st, hub, uint(rideID), toStatus)

		c.JSON(200, gin.H{"message": message})
	}
}

func notifyRegisteredRiders(st store.Store, hub *services.Hub, rideID uint, status string) {
	if hub == nil {
		return
	}
	regs, err := st.RegistrationsForRide(context.Background(), rideID)
	if err != nil {
		log.Printf("Failed to load registrations for ride %d: %v", rideID, err)
		return
	}
	event, err := json.Marshal(services.WebSocketMessage{
		Type: "ride_status",
		Data: services.RideStatusEvent{RideID: rideID, Status: status},
	})
	if err != nil {
		log.Printf("Failed to marshal ride status event: %v", err)
		return
	}
	for _, reg := range regs {
		hub.BroadcastToUser(reg.RiderID, event)
	}
}

// criteriaFromQuery parses the shared discovery query parameters.
func criteriaFromQuery(c *gin.Context) (*search.Criteria, error) {
	var criteria search.Criteria

	if v := c.Query("from_city"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, &search.InvalidFilterError{Field: "from_city", Reason: "must be a numeric city id"}
		}
		cityID := uint(id)
		criteria.FromCityID = &cityID
	}
	if v := c.Query("to_city"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, &search.InvalidFilterError{Field: "to_city", Reason: "must be a numeric city id"}
		}
		cityID := uint(id)
		criteria.ToCityID = &cityID
	}
	if v := c.Query("date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, &search.InvalidFilterError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		criteria.Date = &day
	}
	if v := c.Query("seats"); v != "" {
		seats, err := strconv.Atoi(v)
		if err != nil {
			return nil, &search.InvalidFilterError{Field: "seats", Reason: "must be numeric"}
		}
		criteria.MinSeatsLeft = &seats
	}

	pickup, err := geoFilterFromQuery(c, "pickup")
	if err != nil {
		return nil, err
	}
	criteria.PickupNear = pickup

	dropoff, err := geoFilterFromQuery(c, "dropoff")
	if err != nil {
		return nil, err
	}
	criteria.DropoffNear = dropoff

	return &criteria, nil
}

func geoFilterFromQuery(c *gin.Context, prefix string) (*search.GeoFilter, error) {
	latStr := c.Query(prefix + "_lat")
	lngStr := c.Query(prefix + "_lng")
	radiusStr := c.Query(prefix + "_radius")

	if latStr == "" && lngStr == "" && radiusStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, &search.InvalidFilterError{
			Field:  prefix + "_lat/" + prefix + "_lng",
			Reason: "reference point requires both latitude and longitude",
		}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, &search.InvalidFilterError{Field: prefix + "_lat", Reason: "must be numeric"}
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, &search.InvalidFilterError{Field: prefix + "_lng", Reason: "must be numeric"}
	}

	filter := &search.GeoFilter{Point: utils.Point{Lat: lat, Lng: lng}}
	if radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return nil, &search.InvalidFilterError{Field: prefix + "_radius", Reason: "must be numeric"}
		}
		filter.RadiusKm = &radius
	}
	return filter, nil
}

// findRidesWithRetry retries a timed-out discovery query once after a
// short backoff. Discovery is read-only, so the retry is safe.
func findRidesWithRetry(c *gin.Context, engine *search.Engine, criteria search.Criteria) ([]models.Ride, error) {
	rides, err := engine.FindRides(c.Request.Context(), criteria)
	if errors.Is(err, store.ErrStoreTimeout) {
		time.Sleep(200 * time.Millisecond)
		rides, err = engine.FindRides(c.Request.Context(), criteria)
	}
	return rides, err
}

func respondSearchError(c *gin.Context, err error) {
	var filterErr *search.InvalidFilterError
	switch {
	case errors.As(err, &filterErr):
		c.JSON(400, gin.H{"error": filterErr.Error()})
	case errors.Is(err, store.ErrStoreTimeout):
		c.JSON(503, gin.H{"error": "Store unavailable, try again"})
	default:
		c.JSON(500, gin.H{"error": "Failed to search rides"})
	}
}

// rideResponse shapes a ride for clients: car and route detail plus the
// candidate location sets split by kind.
func rideResponse(ride models.Ride) gin.H {
	out := gin.H{
		"id":               ride.ID,
		"availableSeats":   ride.AvailableSeats,
		"bookedSeats":      ride.BookedSeats,
		"seatsLeft":        ride.SeatsLeft(),
		"status":           ride.Status,
		"genderPreference": ride.GenderPreference,
		"date":             ride.Date,
		"pickupLocations":  ride.LocationsOfKind(models.LocationKindPickup),
		"dropoffLocations": ride.LocationsOfKind(models.LocationKindDropoff),
	}
	if ride.Route != nil {
		route := gin.H{"rate": ride.Route.Rate}
		if ride.Route.FromCity != nil {
			route["fromCity"] = ride.Route.FromCity
		}
		if ride.Route.ToCity != nil {
			route["toCity"] = ride.Route.ToCity
		}
		out["route"] = route
	}
	if ride.Car != nil {
		out["car"] = gin.H{
			"id":              ride.Car.ID,
			"carModel":        ride.Car.CarModel,
			"makeYear":        ride.Car.MakeYear,
			"color":           ride.Car.Color,
			"seatingCapacity": ride.Car.SeatingCapacity,
			"photoUrl":        ride.Car.PhotoURL,
		}
	}
	if ride.Driver != nil {
		out["driver"] = gin.H{
			"id":          ride.Driver.ID,
			"username":    ride.Driver.Username,
			"phoneNumber": ride.Driver.PhoneNumber,
		}
	}
	return out
}
