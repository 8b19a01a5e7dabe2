package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusInUse       VehicleStatus = "in_use"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
	VehicleStatusInactive    VehicleStatus = "inactive"
)

// MaxVehicleMileage is the assumed end-of-life odometer reading used to
// derive the health score.
const MaxVehicleMileage = 500000.0

// vehicleTransitions defines the allowed status transitions. Soft delete is
// the one exception: it forces inactive without consulting this table.
var vehicleTransitions = map[VehicleStatus][]VehicleStatus{
	VehicleStatusAvailable:   {VehicleStatusInUse, VehicleStatusMaintenance, VehicleStatusInactive},
	VehicleStatusInUse:       {VehicleStatusAvailable, VehicleStatusMaintenance},
	VehicleStatusMaintenance: {VehicleStatusAvailable},
	VehicleStatusInactive:    {VehicleStatusAvailable},
}

// CanTransitionVehicle reports whether from -> to is an allowed status change.
func CanTransitionVehicle(from, to VehicleStatus) bool {
	for _, s := range vehicleTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// HealthScoreForMileage derives the 0-100 health score from the odometer
// reading, rounded to 2 decimal places. Higher mileage, lower score.
func HealthScoreForMileage(mileage float64) float64 {
	score := 100 * (1 - mileage/MaxVehicleMileage)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return math.Round(score*100) / 100
}

type Vehicle struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	LicensePlate string        `json:"licensePlate" gorm:"uniqueIndex;size:50;not null"`
	Make         string        `json:"make" gorm:"size:100;not null"`
	Model        string        `json:"model" gorm:"size:100;not null"`
	Year         int           `json:"year" gorm:"not null"`
	Status       VehicleStatus `json:"status" gorm:"type:varchar(16);index;not null;default:'available'"`
	Location     string        `json:"location" gorm:"size:255"`
	Mileage      float64       `json:"mileage" gorm:"not null;default:0"`
	HealthScore  float64       `json:"healthScore" gorm:"not null;default:100"`
	PhotoURL     string        `json:"photoUrl" gorm:"size:512"`
	IsActive     bool          `json:"isActive" gorm:"index;not null;default:true"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (Vehicle) TableName() string {
	return "vehicles"
}
