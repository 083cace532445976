package models

import "gorm.io/gorm"

// Registration status constants
const (
	RegistrationStatusPending   = "PENDING"
	RegistrationStatusBooked    = "BOOKED"
	RegistrationStatusWithdrawn = "WITHDRAWAL"
)

// RideRegistration is a rider's request to join a ride at a chosen
// pickup/dropoff pair. A rider holds at most one registration per ride.
// Pickup and dropoff are non-owning references into the ride's candidate
// location sets.
type RideRegistration struct {
	gorm.Model
	RideID         uint      `gorm:"column:ride_id;not null;index:idx_registrations_ride_rider,unique" json:"rideId"`
	RiderID        uint      `gorm:"column:rider_id;not null;index:idx_registrations_ride_rider,unique" json:"riderId"`
	PickupID       uint      `gorm:"column:pickup_id;not null" json:"pickupId"`
	DropoffID      uint      `gorm:"column:dropoff_id;not null" json:"dropoffId"`
	Instructions   string    `gorm:"column:instructions;size:500" json:"instructions"`
	NumberOfRiders int       `gorm:"column:number_of_riders;not null;default:1" json:"numberOfRiders"`
	Status         string    `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	Ride           *Ride     `gorm:"foreignKey:RideID" json:"ride,omitempty"`
	Rider          *User     `gorm:"foreignKey:RiderID" json:"rider,omitempty"`
	Pickup         *Location `gorm:"foreignKey:PickupID" json:"pickup,omitempty"`
	Dropoff        *Location `gorm:"foreignKey:DropoffID" json:"dropoff,omitempty"`
}

// TableName specifies the table name
func (RideRegistration) TableName() string {
	return "ride_registrations"
}
