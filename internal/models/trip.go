package models

import (
	"time"

	"github.com/google/uuid"
)

type Trip struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID  `json:"bookingId" gorm:"type:uuid;index;not null"`
	VehicleID     uuid.UUID  `json:"vehicleId" gorm:"type:uuid;index;not null"`
	UserID        uuid.UUID  `json:"userId" gorm:"type:uuid;index;not null"`
	StartTime     time.Time  `json:"startTime" gorm:"not null"`
	EndTime       *time.Time `json:"endTime"`
	StartLocation string     `json:"startLocation" gorm:"size:255"`
	EndLocation   string     `json:"endLocation" gorm:"size:255"`
	// DistanceTraveled is in km, computed when the trip ends.
	DistanceTraveled float64   `json:"distanceTraveled" gorm:"not null;default:0"`
	MileageStart     float64   `json:"mileageStart" gorm:"not null"`
	MileageEnd       *float64  `json:"mileageEnd"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (Trip) TableName() string {
	return "trips"
}

// IsOpen reports whether the trip is still in progress.
func (t *Trip) IsOpen() bool {
	return t.EndTime == nil
}

// DurationHours returns the trip duration in hours, or 0 while the trip is
// still open.
func (t *Trip) DurationHours() float64 {
	if t.EndTime == nil {
		return 0
	}
	return t.EndTime.Sub(t.StartTime).Hours()
}
