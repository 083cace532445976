package models

import "gorm.io/gorm"

// Car belongs to exactly one user; the owner does not change after creation.
type Car struct {
	gorm.Model
	CarModel           string `gorm:"column:car_model;not null" json:"carModel"`
	MakeYear           int    `gorm:"column:make_year;not null" json:"makeYear"`
	Color              string `gorm:"column:color" json:"color"`
	SeatingCapacity    int    `gorm:"column:seating_capacity;not null" json:"seatingCapacity"`
	RegistrationNumber string `gorm:"column:registration_number;uniqueIndex;not null" json:"registrationNumber"`
	PhotoURL           string `gorm:"column:photo_url" json:"photoUrl,omitempty"`
	OwnerID            uint   `gorm:"column:owner_id;not null" json:"ownerId"`
	Owner              *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName specifies the table name
func (Car) TableName() string {
	return "cars"
}
