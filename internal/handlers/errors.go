package handlers

import (
	"errors"

	"github.com/fleetgrid/fleetgrid-backend/internal/apperrors"
	"github.com/fleetgrid/fleetgrid-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError translates service error kinds into HTTP responses.
func respondError(c *gin.Context, err error) {
	var conflict *apperrors.ConflictError
	var transition *apperrors.InvalidTransitionError

	switch {
	case errors.As(err, &conflict):
		c.JSON(409, gin.H{
			"error":               conflict.Error(),
			"conflictingBookings": conflict.BookingIDs,
		})
	case errors.As(err, &transition):
		c.JSON(400, gin.H{"error": transition.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrInvalidMileage),
		errors.Is(err, apperrors.ErrVehicleUnavailable),
		errors.Is(err, apperrors.ErrAlreadyStarted),
		errors.Is(err, apperrors.ErrAlreadyEnded):
		c.JSON(400, gin.H{"error": err.Error()})
	default:
		logger.ErrorLogger.Errorf("unhandled error: %v", err)
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}

func currentUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get("userId")
	id, _ := v.(uuid.UUID)
	return id
}

func isManager(c *gin.Context) bool {
	role := c.GetString("role")
	return role == "admin" || role == "fleet_manager"
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
