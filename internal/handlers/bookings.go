package handlers

import (
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/bookings"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateBooking reserves a vehicle for a time window
func CreateBooking(svc *bookings.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			VehicleID uuid.UUID `json:"vehicleId" binding:"required"`
			StartTime time.Time `json:"startTime" binding:"required"`
			EndTime   time.Time `json:"endTime" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		userID := currentUserID(c)
		booking, err := svc.Create(c.Request.Context(), userID, input.VehicleID, input.StartTime, input.EndTime)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.PublishBookingUpdate(c.Request.Context(), booking.ID, string(booking.Status), map[string]interface{}{
			"vehicleId": booking.VehicleID,
			"userId":    booking.UserID,
		})
		hub.NotifyBookingEvent("booking_confirmed", userID, map[string]interface{}{
			"bookingId": booking.ID,
			"vehicleId": booking.VehicleID,
			"startTime": booking.StartTime,
			"endTime":   booking.EndTime,
		})

		c.JSON(201, booking)
	}
}

// CheckAvailability reports whether a vehicle is free for a window
func CheckAvailability(svc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID, err := uuid.Parse(c.Query("vehicleId"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid vehicleId"})
			return
		}
		start, err := time.Parse(time.RFC3339, c.Query("start"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid start time"})
			return
		}
		end, err := time.Parse(time.RFC3339, c.Query("end"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid end time"})
			return
		}

		exclude := uuid.Nil
		if raw := c.Query("exclude"); raw != "" {
			exclude, err = uuid.Parse(raw)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid exclude id"})
				return
			}
		}

		available, conflicts, err := svc.CheckAvailability(c.Request.Context(), vehicleID, start, end, exclude)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"available":           available,
			"conflictingBookings": conflicts,
		})
	}
}

// GetBooking retrieves a booking visible to its owner or a manager
func GetBooking(svc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		booking, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		if booking.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		c.JSON(200, booking)
	}
}

// ListMyBookings lists the authenticated user's bookings
func ListMyBookings(svc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.ListForUser(c.Request.Context(), currentUserID(c), models.BookingStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListVehicleBookings lists a vehicle's bookings (managers only)
func ListVehicleBookings(svc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		vehicleID, ok := parseIDParam(c, "vehicleId")
		if !ok {
			return
		}

		result, err := svc.ListForVehicle(c.Request.Context(), vehicleID, models.BookingStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// ListAllBookings lists bookings created within a window (managers only).
// Defaults to the last 30 days.
func ListAllBookings(svc *bookings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -30)
		var err error

		if raw := c.Query("from"); raw != "" {
			from, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid from time"})
				return
			}
		}
		if raw := c.Query("to"); raw != "" {
			to, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid to time"})
				return
			}
		}

		result, err := svc.ListCreatedBetween(c.Request.Context(), from, to, models.BookingStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, result)
	}
}

// CancelBooking cancels a pending or confirmed booking
func CancelBooking(svc *bookings.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		booking, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if booking.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		booking, err = svc.Cancel(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.PublishBookingUpdate(c.Request.Context(), booking.ID, string(booking.Status), nil)
		hub.NotifyBookingEvent("booking_cancelled", booking.UserID, map[string]interface{}{
			"bookingId": booking.ID,
			"vehicleId": booking.VehicleID,
		})

		c.JSON(200, booking)
	}
}

// CompleteBooking marks a confirmed booking completed
func CompleteBooking(svc *bookings.Service, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}

		booking, err := svc.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if booking.UserID != currentUserID(c) && !isManager(c) {
			c.JSON(403, gin.H{"error": "Not authorized"})
			return
		}

		booking, err = svc.Complete(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		_ = services.PublishBookingUpdate(c.Request.Context(), booking.ID, string(booking.Status), nil)
		hub.NotifyBookingEvent("booking_completed", booking.UserID, map[string]interface{}{
			"bookingId": booking.ID,
			"vehicleId": booking.VehicleID,
		})

		c.JSON(200, booking)
	}
}
