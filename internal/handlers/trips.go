package handlers

import (
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/bookings"
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/fleetgrid/fleetgrid-backend/internal/trips"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StartTrip opens a trip against a confirmed booking owned by the caller
func StartTrip(svc *trips.Service, bookingSvc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BookingID     uuid.UUID `json:"bookingId" binding:"required"`
			StartLocation string    `json:"startLocation"`
			MileageStart  *float64  `json:"mileageStart" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		booking, err := bookingSvc.GetByID(c.Request.Context(), input.BookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		if booking.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		trip, err := svc.Start(c.Request.Context(), trips.StartInput{
			BookingID:     input.BookingID,
			StartLocation: input.StartLocation,
			MileageStart:  *input.MileageStart,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, trip)
	}
}

// EndTrip closes an open trip owned by the caller and records the final
// odometer reading
func EndTrip(svc *trips.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		var input struct {
			EndLocation string   `json:"endLocation"`
			MileageEnd  *float64 `json:"mileageEnd" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		current, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if current.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		trip, err := svc.End(c.Request.Context(), trips.EndInput{
			TripID:      id,
			EndLocation: input.EndLocation,
			MileageEnd:  *input.MileageEnd,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.PublishBookingUpdate(c.Request.Context(), trip.BookingID, "completed", map[string]interface{}{
			"tripId":    trip.ID,
			"vehicleId": trip.VehicleID,
		})
		hub.NotifyBookingEvent("trip_ended", trip.UserID, map[string]interface{}{
			"tripId":           trip.ID,
			"bookingId":        trip.BookingID,
			"vehicleId":        trip.VehicleID,
			"distanceTraveled": trip.DistanceTraveled,
		})

		c.JSON(200, trip)
	}
}

// GetTrip retrieves a trip visible to its owner or a manager
func GetTrip(svc *trips.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		trip, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		if trip.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		c.JSON(200, trip)
	}
}

// ListBookingTrips lists trips recorded against a booking
func ListBookingTrips(svc *trips.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := parseIDParam(c, "bookingId")
		if !ok {
			return
		}

		result, err := svc.ListForBooking(c.Request.Context(), bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListMyTrips lists the authenticated user's trips within a date range
func ListMyTrips(svc *trips.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}

		result, err := svc.ListForUser(c.Request.Context(), currentUserID(c), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListVehicleTrips lists a vehicle's trips within a date range (managers only)
func ListVehicleTrips(svc *trips.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID, ok := parseIDParam(c, "vehicleId")
		if !ok {
			return
		}
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}

		result, err := svc.ListForVehicle(c.Request.Context(), vehicleID, from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListCompletedTrips lists closed trips within a date range (managers only)
func ListCompletedTrips(svc *trips.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := parseDateRange(c)
		if !ok {
			return
		}

		result, err := svc.ListCompleted(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// parseDateRange reads optional from/to RFC3339 query params, leaving a
// bound open when its param is absent.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	var err error

	if raw := c.Query("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid from time"})
			return from, to, false
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid to time"})
			return from, to, false
		}
	}
	return from, to, true
}
