// Package vehicles owns vehicle records and enforces the vehicle status
// state machine.
package vehicles

import (
	"context"
	"errors"
	"strings"

	"github.com/fleetgrid/fleetgrid-backend/internal/apperrors"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMaintenanceThreshold is the health score below which a vehicle is
// flagged for maintenance.
const DefaultMaintenanceThreshold = 30.0

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	LicensePlate string
	Make         string
	Model        string
	Year         int
	Location     string
	Mileage      float64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Vehicle, error) {
	plate := strings.TrimSpace(in.LicensePlate)
	if plate == "" {
		return nil, apperrors.Validation("license plate is required")
	}
	if strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		return nil, apperrors.Validation("make and model are required")
	}
	if in.Mileage < 0 {
		return nil, apperrors.Validation("mileage must be non-negative")
	}

	vehicle := &models.Vehicle{
		ID:           uuid.New(),
		LicensePlate: plate,
		Make:         strings.TrimSpace(in.Make),
		Model:        strings.TrimSpace(in.Model),
		Year:         in.Year,
		Status:       models.VehicleStatusAvailable,
		Location:     strings.TrimSpace(in.Location),
		Mileage:      in.Mileage,
		HealthScore:  models.HealthScoreForMileage(in.Mileage),
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("vehicle", id)
		}
		return nil, err
	}
	return &vehicle, nil
}

// List returns all active vehicles, optionally filtered by status.
func (s *Service) List(ctx context.Context, status models.VehicleStatus) ([]models.Vehicle, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var vehicles []models.Vehicle
	if err := q.Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// ListAvailable returns active vehicles in available status, optionally
// filtered by location.
func (s *Service) ListAvailable(ctx context.Context, location string) ([]models.Vehicle, error) {
	q := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("status = ?", models.VehicleStatusAvailable)
	if location != "" {
		q = q.Where("location = ?", location)
	}

	var vehicles []models.Vehicle
	if err := q.Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateStatus applies a status transition, rejecting any pair not in the
// transition table. State is never mutated on rejection.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus models.VehicleStatus) (*models.Vehicle, error) {
	switch newStatus {
	case models.VehicleStatusAvailable, models.VehicleStatusInUse,
		models.VehicleStatusMaintenance, models.VehicleStatusInactive:
	default:
		return nil, apperrors.Validation("unknown vehicle status %q", newStatus)
	}

	vehicle, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransitionVehicle(vehicle.Status, newStatus) {
		return nil, &apperrors.InvalidTransitionError{
			From: string(vehicle.Status),
			To:   string(newStatus),
		}
	}

	vehicle.Status = newStatus
	if err := s.db.WithContext(ctx).Save(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// UpdateMileage records a new odometer reading and recomputes the health
// score. Readings below the current mileage are rejected.
func (s *Service) UpdateMileage(ctx context.Context, id uuid.UUID, newMileage float64) (*models.Vehicle, error) {
	if newMileage < 0 {
		return nil, apperrors.Validation("mileage must be non-negative")
	}

	vehicle, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if newMileage < vehicle.Mileage {
		return nil, apperrors.ErrInvalidMileage
	}

	vehicle.Mileage = newMileage
	vehicle.HealthScore = models.HealthScoreForMileage(newMileage)
	if err := s.db.WithContext(ctx).Save(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// UpdateLocation is an unconstrained replace of the location string.
func (s *Service) UpdateLocation(ctx context.Context, id uuid.UUID, location string) (*models.Vehicle, error) {
	vehicle, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vehicle.Location = location
	if err := s.db.WithContext(ctx).Save(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// SoftDelete marks the vehicle inactive. This forces status to inactive
// regardless of the current status, bypassing the transition table.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	vehicle.IsActive = false
	vehicle.Status = models.VehicleStatusInactive
	if err := s.db.WithContext(ctx).Save(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

// ListNeedingMaintenance returns active vehicles whose health score is below
// the threshold, worst first. A threshold <= 0 uses the default.
func (s *Service) ListNeedingMaintenance(ctx context.Context, threshold float64) ([]models.Vehicle, error) {
	if threshold <= 0 {
		threshold = DefaultMaintenanceThreshold
	}

	var vehicles []models.Vehicle
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("health_score < ?", threshold).
		Order("health_score ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}
