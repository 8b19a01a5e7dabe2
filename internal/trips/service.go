// Package trips records the start and end of physical vehicle usage tied to
// a booking.
package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/apperrors"
	"github.com/fleetgrid/fleetgrid-backend/internal/bookings"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/fleetgrid/fleetgrid-backend/internal/vehicles"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	bookings *bookings.Service
	vehicles *vehicles.Service
	now      func() time.Time
}

func NewService(db *gorm.DB, bookingSvc *bookings.Service, vehicleSvc *vehicles.Service) *Service {
	return &Service{
		db:       db,
		bookings: bookingSvc,
		vehicles: vehicleSvc,
		now:      time.Now,
	}
}

type StartInput struct {
	BookingID     uuid.UUID
	StartLocation string
	MileageStart  float64
}

// Start opens a trip against a confirmed booking, capturing the starting
// odometer reading. A booking can have at most one open trip.
func (s *Service) Start(ctx context.Context, in StartInput) (*models.Trip, error) {
	if in.MileageStart < 0 {
		return nil, apperrors.Validation("mileage must be non-negative")
	}

	booking, err := s.bookings.GetByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: booking must be confirmed to start a trip (current status: %s)",
			apperrors.ErrInvalidState, booking.Status)
	}

	var open int64
	err = s.db.WithContext(ctx).Model(&models.Trip{}).
		Where("booking_id = ? AND end_time IS NULL", in.BookingID).
		Count(&open).Error
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, apperrors.ErrAlreadyStarted
	}

	trip := &models.Trip{
		ID:            uuid.New(),
		BookingID:     booking.ID,
		VehicleID:     booking.VehicleID,
		UserID:        booking.UserID,
		StartTime:     s.now().UTC(),
		StartLocation: in.StartLocation,
		MileageStart:  in.MileageStart,
	}
	if err := s.db.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

type EndInput struct {
	TripID      uuid.UUID
	EndLocation string
	MileageEnd  float64
}

// End closes an open trip, computes the distance traveled and, as side
// effects, completes the associated booking and advances the vehicle's
// odometer. If the booking already reached a terminal state the completion
// is a no-op; trip closure never fails because of booking state drift.
func (s *Service) End(ctx context.Context, in EndInput) (*models.Trip, error) {
	if in.MileageEnd < 0 {
		return nil, apperrors.Validation("mileage must be non-negative")
	}

	trip, err := s.GetByID(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	if !trip.IsOpen() {
		return nil, apperrors.ErrAlreadyEnded
	}

	now := s.now().UTC()
	trip.EndTime = &now
	trip.EndLocation = in.EndLocation
	trip.MileageEnd = &in.MileageEnd
	// An end reading behind the start reading leaves the distance at 0
	// instead of failing; the trip still closes.
	if in.MileageEnd >= trip.MileageStart {
		trip.DistanceTraveled = in.MileageEnd - trip.MileageStart
	}

	if err := s.db.WithContext(ctx).Save(trip).Error; err != nil {
		return nil, err
	}

	if _, err := s.bookings.Complete(ctx, trip.BookingID); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidState) && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	// Push the final odometer reading into the registry. A reading behind
	// the registry's current mileage is skipped, matching the non-fatal
	// distance policy above.
	if _, err := s.vehicles.UpdateMileage(ctx, trip.VehicleID, in.MileageEnd); err != nil {
		if !errors.Is(err, apperrors.ErrInvalidMileage) && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	return trip, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("trip", id)
		}
		return nil, err
	}
	return &trip, nil
}

// ListForBooking returns all trips recorded against a booking.
func (s *Service) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Trip, error) {
	var result []models.Trip
	err := s.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("start_time DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListForVehicle returns a vehicle's trips that started within the date
// range. Zero times leave the corresponding bound open.
func (s *Service) ListForVehicle(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	q = applyDateRange(q, from, to)

	var result []models.Trip
	if err := q.Order("start_time DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListForUser returns a user's trips that started within the date range.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	q = applyDateRange(q, from, to)

	var result []models.Trip
	if err := q.Order("start_time DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListCompleted returns closed trips that started within the date range.
func (s *Service) ListCompleted(ctx context.Context, from, to time.Time) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).Where("end_time IS NOT NULL")
	q = applyDateRange(q, from, to)

	var result []models.Trip
	if err := q.Order("start_time DESC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func applyDateRange(q *gorm.DB, from, to time.Time) *gorm.DB {
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("start_time <= ?", to)
	}
	return q
}
