package models

import "gorm.io/gorm"

// City is immutable reference data; routes point at city pairs.
type City struct {
	gorm.Model
	Name     string `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Province string `gorm:"column:province" json:"province,omitempty"`
}

// TableName specifies the table name
func (City) TableName() string {
	return "cities"
}

// Route is the city-pair + fare template rides are published against.
// FromCityID and ToCityID must differ (enforced by a CHECK constraint).
type Route struct {
	gorm.Model
	Rate       float64 `gorm:"column:rate;not null" json:"rate"`
	FromCityID uint    `gorm:"column:from_city_id;not null" json:"fromCityId"`
	ToCityID   uint    `gorm:"column:to_city_id;not null" json:"toCityId"`
	FromCity   *City   `gorm:"foreignKey:FromCityID" json:"fromCity,omitempty"`
	ToCity     *City   `gorm:"foreignKey:ToCityID" json:"toCity,omitempty"`
}

// TableName specifies the table name
func (Route) TableName() string {
	return "routes"
}
