// Package analytics computes fleet utilization and operational metrics.
// Everything here is a read-only projection over bookings and trips; it
// imposes no invariants of its own.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultUnderutilizedThreshold is the utilization percentage below which a
// vehicle is reported as underutilized.
const DefaultUnderutilizedThreshold = 20.0

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type VehicleUtilization struct {
	VehicleID                uuid.UUID `json:"vehicleId"`
	StartDate                time.Time `json:"startDate"`
	EndDate                  time.Time `json:"endDate"`
	UtilizationPercentage    float64   `json:"utilizationPercentage"`
	TotalTrips               int       `json:"totalTrips"`
	TotalDistanceKm          float64   `json:"totalDistanceKm"`
	TotalHoursInUse          float64   `json:"totalHoursInUse"`
	AverageTripDurationHours float64   `json:"averageTripDurationHours"`
	IdleHours                float64   `json:"idleHours"`
}

// VehicleUtilization summarizes one vehicle's usage over [start, end].
func (s *Service) VehicleUtilization(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (*VehicleUtilization, error) {
	trips, err := s.closedTrips(ctx, start, end, vehicleID)
	if err != nil {
		return nil, err
	}

	totalHours := end.Sub(start).Hours()
	result := &VehicleUtilization{
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   end,
		IdleHours: round2(totalHours),
	}
	if len(trips) == 0 {
		return result, nil
	}

	var distance, hoursInUse float64
	for i := range trips {
		distance += trips[i].DistanceTraveled
		hoursInUse += trips[i].DurationHours()
	}

	result.TotalTrips = len(trips)
	result.TotalDistanceKm = round2(distance)
	result.TotalHoursInUse = round2(hoursInUse)
	result.AverageTripDurationHours = round2(hoursInUse / float64(len(trips)))
	result.IdleHours = round2(totalHours - hoursInUse)
	if totalHours > 0 {
		result.UtilizationPercentage = round2(hoursInUse / totalHours * 100)
	}
	return result, nil
}

type FleetUtilization struct {
	StartDate                  time.Time `json:"startDate"`
	EndDate                    time.Time `json:"endDate"`
	Location                   string    `json:"location,omitempty"`
	TotalVehicles              int       `json:"totalVehicles"`
	ActiveVehicles             int       `json:"activeVehicles"`
	FleetUtilizationPercentage float64   `json:"fleetUtilizationPercentage"`
	TotalTrips                 int       `json:"totalTrips"`
	TotalDistanceKm            float64   `json:"totalDistanceKm"`
	PeakUsageHours             []string  `json:"peakUsageHours"`
	FleetEfficiencyScore       float64   `json:"fleetEfficiencyScore"`
}

// FleetUtilization aggregates usage across the fleet, optionally narrowed
// to one location. The efficiency score blends utilization with distance
// covered per hour in use.
func (s *Service) FleetUtilization(ctx context.Context, start, end time.Time, location string) (*FleetUtilization, error) {
	vq := s.db.WithContext(ctx).Where("is_active = ?", true)
	if location != "" {
		vq = vq.Where("location = ?", location)
	}
	var fleet []models.Vehicle
	if err := vq.Find(&fleet).Error; err != nil {
		return nil, err
	}

	result := &FleetUtilization{
		StartDate:      start,
		EndDate:        end,
		Location:       location,
		PeakUsageHours: []string{},
	}
	if len(fleet) == 0 {
		return result, nil
	}

	trips, err := s.closedTrips(ctx, start, end, uuid.Nil)
	if err != nil {
		return nil, err
	}

	var distance, hoursInUse float64
	for i := range trips {
		distance += trips[i].DistanceTraveled
		hoursInUse += trips[i].DurationHours()
	}

	availableVehicleHours := float64(len(fleet)) * end.Sub(start).Hours()
	var utilization float64
	if availableVehicleHours > 0 {
		utilization = hoursInUse / availableVehicleHours * 100
	}

	var distancePerHour float64
	if hoursInUse > 0 {
		distancePerHour = distance / hoursInUse
	}
	efficiency := math.Min(100, utilization*0.6+math.Min(distancePerHour/50, 1)*40)

	inUse := 0
	for i := range fleet {
		if fleet[i].Status == models.VehicleStatusInUse {
			inUse++
		}
	}

	result.TotalVehicles = len(fleet)
	result.ActiveVehicles = inUse
	result.FleetUtilizationPercentage = round2(utilization)
	result.TotalTrips = len(trips)
	result.TotalDistanceKm = round2(distance)
	result.PeakUsageHours = peakUsageHours(trips)
	result.FleetEfficiencyScore = round2(efficiency)
	return result, nil
}

type UnderutilizedVehicle struct {
	VehicleID             uuid.UUID `json:"vehicleId"`
	LicensePlate          string    `json:"licensePlate"`
	UtilizationPercentage float64   `json:"utilizationPercentage"`
	TotalTrips            int       `json:"totalTrips"`
	HealthScore           float64   `json:"healthScore"`
}

// UnderutilizedVehicles lists active vehicles whose utilization over the
// window is below the threshold, least utilized first. A threshold <= 0
// uses the default.
func (s *Service) UnderutilizedVehicles(ctx context.Context, start, end time.Time, threshold float64) ([]UnderutilizedVehicle, error) {
	if threshold <= 0 {
		threshold = DefaultUnderutilizedThreshold
	}

	var fleet []models.Vehicle
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&fleet).Error; err != nil {
		return nil, err
	}

	result := []UnderutilizedVehicle{}
	for i := range fleet {
		metrics, err := s.VehicleUtilization(ctx, fleet[i].ID, start, end)
		if err != nil {
			return nil, err
		}
		if metrics.UtilizationPercentage < threshold {
			result = append(result, UnderutilizedVehicle{
				VehicleID:             fleet[i].ID,
				LicensePlate:          fleet[i].LicensePlate,
				UtilizationPercentage: metrics.UtilizationPercentage,
				TotalTrips:            metrics.TotalTrips,
				HealthScore:           fleet[i].HealthScore,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UtilizationPercentage < result[j].UtilizationPercentage
	})
	return result, nil
}

type BookingStatistics struct {
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	TotalBookings     int64     `json:"totalBookings"`
	CompletedBookings int64     `json:"completedBookings"`
	CancelledBookings int64     `json:"cancelledBookings"`
	CompletionRate    float64   `json:"completionRate"`
}

// BookingStatistics counts bookings created within [start, end] by outcome.
func (s *Service) BookingStatistics(ctx context.Context, start, end time.Time) (*BookingStatistics, error) {
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Booking{}).
			Where("created_at >= ? AND created_at <= ?", start, end)
	}

	result := &BookingStatistics{StartDate: start, EndDate: end}
	if err := base().Count(&result.TotalBookings).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.BookingStatusCompleted).Count(&result.CompletedBookings).Error; err != nil {
		return nil, err
	}
	if err := base().Where("status = ?", models.BookingStatusCancelled).Count(&result.CancelledBookings).Error; err != nil {
		return nil, err
	}

	if result.TotalBookings > 0 {
		result.CompletionRate = round2(float64(result.CompletedBookings) / float64(result.TotalBookings) * 100)
	}
	return result, nil
}

// closedTrips returns trips with a non-null end time that started within
// [start, end], for one vehicle or fleet-wide when vehicleID is nil.
func (s *Service) closedTrips(ctx context.Context, start, end time.Time, vehicleID uuid.UUID) ([]models.Trip, error) {
	q := s.db.WithContext(ctx).
		Where("end_time IS NOT NULL").
		Where("start_time >= ? AND start_time <= ?", start, end)
	if vehicleID != uuid.Nil {
		q = q.Where("vehicle_id = ?", vehicleID)
	}

	var trips []models.Trip
	if err := q.Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}

// peakUsageHours buckets trips by starting hour and returns the top three
// buckets as "HH:00-HH:00" ranges.
func peakUsageHours(trips []models.Trip) []string {
	if len(trips) == 0 {
		return []string{}
	}

	counts := make(map[int]int)
	for i := range trips {
		counts[trips[i].StartTime.Hour()]++
	}

	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})

	if len(hours) > 3 {
		hours = hours[:3]
	}
	result := make([]string, len(hours))
	for i, h := range hours {
		result[i] = fmt.Sprintf("%02d:00-%02d:00", h, h+1)
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
