package handlers

import (
	"strconv"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/analytics"
	"github.com/gin-gonic/gin"
)

// GetVehicleUtilization reports one vehicle's usage over a window
func GetVehicleUtilization(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "vehicleId")
		if !ok {
			return
		}
		start, end, ok := parseAnalyticsWindow(c)
		if !ok {
			return
		}

		result, err := svc.VehicleUtilization(c.Request.Context(), id, start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// GetFleetUtilization reports fleet-wide usage, optionally by location
func GetFleetUtilization(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, ok := parseAnalyticsWindow(c)
		if !ok {
			return
		}

		result, err := svc.FleetUtilization(c.Request.Context(), start, end, c.Query("location"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// GetUnderutilizedVehicles lists vehicles below the utilization threshold
func GetUnderutilizedVehicles(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, ok := parseAnalyticsWindow(c)
		if !ok {
			return
		}
		threshold, _ := strconv.ParseFloat(c.Query("threshold"), 64)

		result, err := svc.UnderutilizedVehicles(c.Request.Context(), start, end, threshold)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// GetBookingStatistics reports booking outcome counts for a window
func GetBookingStatistics(svc *analytics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, ok := parseAnalyticsWindow(c)
		if !ok {
			return
		}

		result, err := svc.BookingStatistics(c.Request.Context(), start, end)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// parseAnalyticsWindow reads the required start/end query params. A missing
// window defaults to the last 30 days.
func parseAnalyticsWindow(c *gin.Context) (time.Time, time.Time, bool) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" && rawEnd == "" {
		end := time.Now().UTC()
		return end.AddDate(0, 0, -30), end, true
	}

	start, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid start time"})
		return start, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid end time"})
		return start, end, false
	}
	if !end.After(start) {
		c.JSON(400, gin.H{"error": "end must be after start"})
		return start, end, false
	}
	return start, end, true
}
