package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// ActiveBookingStatuses are the statuses that block other bookings on the
// same vehicle. Cancelled and completed bookings never conflict.
var ActiveBookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

// IsTerminal reports whether the status admits no further transitions.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

type Booking struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID     `json:"userId" gorm:"type:uuid;index;not null"`
	VehicleID uuid.UUID     `json:"vehicleId" gorm:"type:uuid;index;not null"`
	StartTime time.Time     `json:"startTime" gorm:"index;not null"`
	EndTime   time.Time     `json:"endTime" gorm:"index;not null"`
	Status    BookingStatus `json:"status" gorm:"type:varchar(16);index;not null;default:'pending'"`
	// Version advances on every status update and is compared before
	// writing, so concurrent updates cannot silently overwrite each other.
	Version   int64     `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// Overlaps reports whether the booking window intersects [start, end).
// Windows are half-open, so end == other.start is not an overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}
