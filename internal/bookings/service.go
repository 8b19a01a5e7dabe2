// Package bookings is the reservation engine: time-window conflict
// detection and the booking lifecycle.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/apperrors"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	locks *vehicleLocks
	now   func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:    db,
		locks: newVehicleLocks(),
		now:   time.Now,
	}
}

// Create reserves a vehicle for [start, end). The conflict check and the
// insert run inside the per-vehicle critical section, so two concurrent
// requests for overlapping windows cannot both succeed.
func (s *Service) Create(ctx context.Context, userID, vehicleID uuid.UUID, start, end time.Time) (*models.Booking, error) {
	if !start.Before(end) {
		return nil, apperrors.Validation("start time must be before end time")
	}
	if !start.After(s.now()) {
		return nil, apperrors.Validation("booking start time must be in the future")
	}

	mu := s.locks.Acquire(vehicleID)
	defer mu.Unlock()

	var vehicle models.Vehicle
	if err := s.db.WithContext(ctx).Where("id = ?", vehicleID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vehicle", vehicleID)
		}
		return nil, err
	}
	if vehicle.Status != models.VehicleStatusAvailable {
		return nil, fmt.Errorf("%w (status: %s)", apperrors.ErrVehicleUnavailable, vehicle.Status)
	}

	conflicts, err := s.conflictingBookings(ctx, vehicleID, start, end, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		ids := make([]uuid.UUID, len(conflicts))
		for i, b := range conflicts {
			ids[i] = b.ID
		}
		return nil, &apperrors.ConflictError{VehicleID: vehicleID, BookingIDs: ids}
	}

	// No separate pending approval step: bookings confirm immediately.
	booking := &models.Booking{
		ID:        uuid.New(),
		UserID:    userID,
		VehicleID: vehicleID,
		StartTime: start,
		EndTime:   end,
		Status:    models.BookingStatusConfirmed,
		Version:   1,
	}
	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

// CheckAvailability reports whether the vehicle is free for [start, end)
// and returns any conflicting bookings for diagnostics. Read-only, no
// locking.
func (s *Service) CheckAvailability(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, []models.Booking, error) {
	if !start.Before(end) {
		return false, nil, apperrors.Validation("start time must be before end time")
	}

	conflicts, err := s.conflictingBookings(ctx, vehicleID, start, end, exclude)
	if err != nil {
		return false, nil, err
	}
	return len(conflicts) == 0, conflicts, nil
}

// conflictingBookings returns active bookings on the vehicle that overlap
// [start, end). Overlap is half-open: existing.start < end AND
// existing.end > start, so a booking ending exactly at start is no
// conflict.
func (s *Service) conflictingBookings(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, exclude uuid.UUID) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Where("status IN ?", models.ActiveBookingStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}

	var conflicts []models.Booking
	if err := q.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("booking", id)
		}
		return nil, err
	}
	return &booking, nil
}

// Cancel transitions a pending or confirmed booking to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.BookingStatusCompleted:
		return nil, fmt.Errorf("%w: cannot cancel a completed booking", apperrors.ErrInvalidState)
	case models.BookingStatusCancelled:
		return nil, fmt.Errorf("%w: booking is already cancelled", apperrors.ErrInvalidState)
	}

	if err := s.updateStatus(ctx, booking, models.BookingStatusCancelled); err != nil {
		return nil, err
	}
	return booking, nil
}

// Complete transitions a confirmed booking to completed. Normally invoked
// by the trip ledger when a trip ends, but independently callable.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.Status != models.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot complete booking with status %s", apperrors.ErrInvalidState, booking.Status)
	}

	if err := s.updateStatus(ctx, booking, models.BookingStatusCompleted); err != nil {
		return nil, err
	}
	return booking, nil
}

// updateStatus writes the new status with a compare-and-swap on the version
// marker. A lost CAS means another caller transitioned the booking first;
// since every transition out of confirmed is terminal, that is surfaced as
// an invalid-state outcome rather than retried.
func (s *Service) updateStatus(ctx context.Context, booking *models.Booking, to models.BookingStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(map[string]interface{}{
			"status":  to,
			"version": booking.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %s was modified concurrently", apperrors.ErrInvalidState, booking.ID)
	}

	booking.Status = to
	booking.Version++
	return nil
}

// ListForUser returns a user's bookings, newest window first, optionally
// filtered by status.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, status models.BookingStatus) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var result []models.Booking
	if err := q.Order("start_time DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListForVehicle returns a vehicle's bookings, newest window first,
// optionally filtered by status.
func (s *Service) ListForVehicle(ctx context.Context, vehicleID uuid.UUID, status models.BookingStatus) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var result []models.Booking
	if err := q.Order("start_time DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListCreatedBetween returns bookings created within [from, to], optionally
// filtered by status. Used by the utilization reporter.
func (s *Service) ListCreatedBetween(ctx context.Context, from, to time.Time, status models.BookingStatus) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Where("created_at >= ? AND created_at <= ?", from, to)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var result []models.Booking
	if err := q.Order("created_at DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
