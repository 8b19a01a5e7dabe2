package handlers

import (
	"strconv"

	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/fleetgrid/fleetgrid-backend/internal/vehicles"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateVehicle registers a new vehicle in the fleet
func CreateVehicle(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			LicensePlate string  `json:"licensePlate" binding:"required"`
			Make         string  `json:"make" binding:"required"`
			Model        string  `json:"model" binding:"required"`
			Year         int     `json:"year" binding:"required"`
			Location     string  `json:"location"`
			Mileage      float64 `json:"mileage"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle, err := svc.Create(c.Request.Context(), vehicles.CreateInput{
			LicensePlate: input.LicensePlate,
			Make:         input.Make,
			Model:        input.Model,
			Year:         input.Year,
			Location:     input.Location,
			Mileage:      input.Mileage,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, vehicle)
	}
}

// GetVehicle retrieves a single vehicle, served from the cache when fresh
func GetVehicle(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var cached models.Vehicle
		if err := services.GetCachedVehicleStatus(c.Request.Context(), id, &cached); err == nil {
			c.JSON(200, cached)
			return
		}

		vehicle, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.CacheVehicleStatus(c.Request.Context(), id, vehicle)
		c.JSON(200, vehicle)
	}
}

// ListVehicles lists active vehicles, optionally filtered by status
func ListVehicles(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.List(c.Request.Context(), models.VehicleStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListAvailableVehicles lists available vehicles, optionally by location
func ListAvailableVehicles(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.ListAvailable(c.Request.Context(), c.Query("location"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// UpdateVehicleStatus applies a status transition
func UpdateVehicleStatus(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle, err := svc.UpdateStatus(c.Request.Context(), id, models.VehicleStatus(input.Status))
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.InvalidateVehicleStatus(c.Request.Context(), id)
		c.JSON(200, vehicle)
	}
}

// UpdateVehicleMileage records a new odometer reading
func UpdateVehicleMileage(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			Mileage *float64 `json:"mileage" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle, err := svc.UpdateMileage(c.Request.Context(), id, *input.Mileage)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.InvalidateVehicleStatus(c.Request.Context(), id)
		c.JSON(200, vehicle)
	}
}

// UpdateVehicleLocation replaces the vehicle's location string
func UpdateVehicleLocation(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			Location string `json:"location" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		vehicle, err := svc.UpdateLocation(c.Request.Context(), id, input.Location)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.InvalidateVehicleStatus(c.Request.Context(), id)
		c.JSON(200, vehicle)
	}
}

// DeleteVehicle soft-deletes a vehicle
func DeleteVehicle(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		vehicle, err := svc.SoftDelete(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.InvalidateVehicleStatus(c.Request.Context(), id)
		c.JSON(200, vehicle)
	}
}

// ListVehiclesNeedingMaintenance lists vehicles below the health threshold
func ListVehiclesNeedingMaintenance(svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold, _ := strconv.ParseFloat(c.Query("threshold"), 64)

		result, err := svc.ListNeedingMaintenance(c.Request.Context(), threshold)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// UploadVehiclePhoto stores a photo for the vehicle and saves its URL
func UploadVehiclePhoto(db *gorm.DB, svc *vehicles.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		vehicle, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(400, gin.H{"error": "Photo file is required"})
			return
		}

		url, err := services.UploadVehiclePhoto(file)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to store photo"})
			return
		}

		vehicle.PhotoURL = url
		if err := db.Save(vehicle).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update vehicle"})
			return
		}

		_ = services.InvalidateVehicleStatus(c.Request.Context(), id)
		c.JSON(200, vehicle)
	}
}
