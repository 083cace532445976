package handlers

import (
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetCities lists all cities
func GetCities(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cities []models.City
		if err := db.Order("name ASC").Find(&cities).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch cities"})
			return
		}

		c.JSON(200, cities)
	}
}

// CreateCity adds a city to the reference data
func CreateCity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name     string `json:"name" binding:"required"`
			Province string `json:"province"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		city := models.City{Name: input.Name, Province: input.Province}
		if err := db.Create(&city).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create city"})
			return
		}

		c.JSON(201, city)
	}
}

// GetRoutes lists all routes with their cities
func GetRoutes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var routes []models.Route
		if err := db.Preload("FromCity").Preload("ToCity").Find(&routes).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch routes"})
			return
		}

		c.JSON(200, routes)
	}
}

// CreateRoute adds a route between two distinct cities
func CreateRoute(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FromCityID uint    `json:"fromCityId" binding:"required"`
			ToCityID   uint    `json:"toCityId" binding:"required"`
			Rate       float64 `json:"rate" binding:"required,gt=0"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.FromCityID == input.ToCityID {
			c.JSON(400, gin.H{"error": "Route cities must be distinct"})
			return
		}

		var count int64
		if err := db.Model(&models.City{}).
			Where("id IN ?", []uint{input.FromCityID, input.ToCityID}).
			Count(&count).Error; err != nil || count != 2 {
			c.JSON(400, gin.H{"error": "Unknown city"})
			return
		}

		route := models.Route{
			FromCityID: input.FromCityID,
			ToCityID:   input.ToCityID,
			Rate:       input.Rate,
		}
		if err := db.Create(&route).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create route"})
			return
		}

		c.JSON(201, route)
	}
}
