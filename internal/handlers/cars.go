package handlers

import (
	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateCar registers a car for the authenticated user. Accepts multipart
// form data with an optional photo.
func CreateCar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			CarModel           string `form:"carModel" binding:"required"`
			MakeYear           int    `form:"makeYear" binding:"required"`
			Color              string `form:"color"`
			SeatingCapacity    int    `form:"seatingCapacity" binding:"required,min=1"`
			RegistrationNumber string `form:"registrationNumber" binding:"required"`
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		car := models.Car{
			CarModel:           input.CarModel,
			MakeYear:           input.MakeYear,
			Color:              input.Color,
			SeatingCapacity:    input.SeatingCapacity,
			RegistrationNumber: input.RegistrationNumber,
			OwnerID:            userId,
		}

		if photo, err := c.FormFile("photo"); err == nil {
			url, err := services.UploadImage(photo, "cars")
			if err != nil {
				c.JSON(500, gin.H{"error": "Failed to upload car photo"})
				return
			}
			car.PhotoURL = services.GetImageURL(url)
		}

		if err := db.Create(&car).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create car"})
			return
		}

		c.JSON(201, car)
	}
}

// GetCars lists the authenticated user's cars
func GetCars(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var cars []models.Car
		if err := db.Where("owner_id = ?", userId).Find(&cars).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch cars"})
			return
		}

		c.JSON(200, cars)
	}
}

// UpdateCar updates a car owned by the authenticated user
func UpdateCar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		carId := c.Param("id")

		var car models.Car
		if err := db.First(&car, carId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Car not found"})
			return
		}

		if car.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized to update this car"})
			return
		}

		var input struct {
			CarModel        *string `json:"carModel"`
			MakeYear        *int    `json:"makeYear"`
			Color           *string `json:"color"`
			SeatingCapacity *int    `json:"seatingCapacity" binding:"omitempty,min=1"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.CarModel != nil {
			car.CarModel = *input.CarModel
		}
		if input.MakeYear != nil {
			car.MakeYear = *input.MakeYear
		}
		if input.Color != nil {
			car.Color = *input.Color
		}
		if input.SeatingCapacity != nil {
			car.SeatingCapacity = *input.SeatingCapacity
		}

		if err := db.Save(&car).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update car"})
			return
		}

		c.JSON(200, car)
	}
}

// DeleteCar soft deletes a car owned by the authenticated user
func DeleteCar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		carId := c.Param("id")

		var car models.Car
		if err := db.First(&car, carId).Error; err != nil {
			c.JSON(404, gin.H{"error": "Car not found"})
			return
		}

		if car.OwnerID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized to delete this car"})
			return
		}

		if err := db.Delete(&car).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete car"})
			return
		}

		c.JSON(200, gin.H{"message": "Car successfully deleted"})
	}
}
