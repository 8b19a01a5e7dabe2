package database

import (
	"gorm.io/gorm"
)

// RunMigrations creates the composite indexes the conflict-detection and
// analytics queries rely on. AutoMigrate only creates the single-column
// indexes declared on the models.
func RunMigrations(db *gorm.DB) error {
	statements := []string{
		// Booking conflict detection scans by vehicle and time window
		`CREATE INDEX IF NOT EXISTS idx_booking_vehicle_time ON bookings (vehicle_id, start_time, end_time)`,
		// User booking listings filter by user and status
		`CREATE INDEX IF NOT EXISTS idx_booking_user_status ON bookings (user_id, status)`,
		// Trip date-range projections per vehicle and per user
		`CREATE INDEX IF NOT EXISTS idx_trip_vehicle_date ON trips (vehicle_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_user_date ON trips (user_id, start_time)`,
		// Available-vehicle listings filter on status and active flag
		`CREATE INDEX IF NOT EXISTS idx_vehicle_status_active ON vehicles (status, is_active)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
