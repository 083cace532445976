package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ride status constants
const (
	RideStatusAvailable = "AVAILABLE"
	RideStatusCompleted = "COMPLETED"
	RideStatusDeleted   = "DELETED"
)

// Location kind constants
const (
	LocationKindPickup  = "pickup"
	LocationKindDropoff = "dropoff"
)

// Ride is a driver-published carpool trip. A ride owns its candidate
// pickup/dropoff locations; registrations reference into those sets.
type Ride struct {
	gorm.Model
	AvailableSeats   int        `gorm:"column:available_seats;not null" json:"availableSeats"`
	BookedSeats      int        `gorm:"column:booked_seats;not null;default:0" json:"bookedSeats"`
	Status           string     `gorm:"column:status;not null;default:'AVAILABLE'" json:"status"`
	GenderPreference string     `gorm:"column:gender_preference;not null;default:'NONE'" json:"genderPreference"`
	RouteID          uint       `gorm:"column:route_id;not null" json:"routeId"`
	DriverID         uint       `gorm:"column:driver_id;not null" json:"driverId"`
	CarID            uint       `gorm:"column:car_id;not null" json:"carId"`
	Date             time.Time  `gorm:"column:date;not null" json:"date"`
	Route            *Route     `gorm:"foreignKey:RouteID" json:"route,omitempty"`
	Driver           *User      `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
	Car              *Car       `gorm:"foreignKey:CarID" json:"car,omitempty"`
	Locations        []Location `gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE" json:"locations,omitempty"`
}

// TableName specifies the table name
func (Ride) TableName() string {
	return "rides"
}

// LocationsOfKind returns the ride's candidate locations of the given kind.
func (r *Ride) LocationsOfKind(kind string) []Location {
	var out []Location
	for _, loc := range r.Locations {
		if loc.Kind == kind {
			out = append(out, loc)
		}
	}
	return out
}

// SeatsLeft reports the remaining capacity on the ride.
func (r *Ride) SeatsLeft() int {
	return r.AvailableSeats - r.BookedSeats
}

// IsTerminal reports whether the ride can no longer change state.
func (r *Ride) IsTerminal() bool {
	return r.Status == RideStatusCompleted || r.Status == RideStatusDeleted
}

// Location is a pickup or dropoff candidate point offered on a ride.
// Locations are owned by their ride and cascade-deleted with it.
type Location struct {
	gorm.Model
	PublicID  string  `gorm:"column:public_id;uniqueIndex;not null" json:"publicId"`
	RideID    uint    `gorm:"column:ride_id;not null;index" json:"rideId"`
	Kind      string  `gorm:"column:kind;not null" json:"kind"`
	Latitude  float64 `gorm:"column:latitude;not null" json:"lat"`
	Longitude float64 `gorm:"column:longitude;not null" json:"lng"`
	Address   string  `gorm:"column:address;not null" json:"address"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "locations"
}

// BeforeCreate assigns the public id used in client-facing payloads.
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.PublicID == "" {
		l.PublicID = uuid.NewString()
	}
	return nil
}
