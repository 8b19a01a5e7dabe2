package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/apperrors"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Vehicle{}, &models.Booking{}))
	return NewService(db), db
}

func seedVehicle(t *testing.T, db *gorm.DB, status models.VehicleStatus) *models.Vehicle {
	t.Helper()

	vehicle := &models.Vehicle{
		ID:           uuid.New(),
		LicensePlate: "FG-" + uuid.NewString()[:8],
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2023,
		Status:       status,
		HealthScore:  100,
		IsActive:     true,
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

// window returns a future booking window offset in hours from tomorrow.
func window(startHour, endHour int) (time.Time, time.Time) {
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	return base.Add(time.Duration(startHour) * time.Hour), base.Add(time.Duration(endHour) * time.Hour)
}

func TestCreateBooking(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	start, end := window(10, 12)

	booking, err := svc.Create(context.Background(), uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, int64(1), booking.Version)
	assert.Equal(t, vehicle.ID, booking.VehicleID)
}

func TestCreateBookingValidation(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()
	start, end := window(10, 12)

	_, err := svc.Create(ctx, uuid.New(), vehicle.ID, end, start)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Create(ctx, uuid.New(), vehicle.ID, start, start)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	past := time.Now().Add(-2 * time.Hour)
	_, err = svc.Create(ctx, uuid.New(), vehicle.ID, past, past.Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateBookingVehicleChecks(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	start, end := window(10, 12)

	_, err := svc.Create(ctx, uuid.New(), uuid.New(), start, end)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	inMaintenance := seedVehicle(t, db, models.VehicleStatusMaintenance)
	_, err = svc.Create(ctx, uuid.New(), inMaintenance.ID, start, end)
	assert.ErrorIs(t, err, apperrors.ErrVehicleUnavailable)
}

func TestOverlapDetection(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	// existing booking holds hours 10-12
	start, end := window(10, 12)
	existing, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end int
		available  bool
	}{
		{"partial overlap at tail", 11, 13, false},
		{"partial overlap at head", 9, 11, false},
		{"containing window", 9, 13, false},
		{"contained window", 10, 11, false},
		{"identical window", 10, 12, false},
		{"adjacent after", 12, 14, true},
		{"adjacent before", 8, 10, true},
		{"disjoint", 14, 16, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, e := window(tc.start, tc.end)
			available, conflicts, err := svc.CheckAvailability(ctx, vehicle.ID, s, e, uuid.Nil)
			require.NoError(t, err)
			assert.Equal(t, tc.available, available)
			if !tc.available {
				require.Len(t, conflicts, 1)
				assert.Equal(t, existing.ID, conflicts[0].ID)
			}
		})
	}
}

func TestCreateBookingConflictError(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	existing, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	s, e := window(11, 13)
	_, err = svc.Create(ctx, uuid.New(), vehicle.ID, s, e)

	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, vehicle.ID, conflict.VehicleID)
	assert.Equal(t, []uuid.UUID{existing.ID}, conflict.BookingIDs)
}

func TestCancelledBookingFreesWindow(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)

	rebooked, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, rebooked.Status)
}

func TestCheckAvailabilityExcludesBooking(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	// the booking's own window is free when it is excluded, as when
	// probing a reschedule
	available, _, err := svc.CheckAvailability(ctx, vehicle.ID, start, end, booking.ID)
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCancel(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(2), cancelled.Version)

	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestCancelCompletedBooking(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, booking.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestComplete(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, completed.Status)
	assert.Equal(t, int64(2), completed.Version)

	_, err = svc.Complete(ctx, booking.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestStaleVersionIsRejected(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	// another writer bumps the version underneath the in-memory copy
	err = db.Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Update("version", booking.Version+1).Error
	require.NoError(t, err)

	err = svc.updateStatus(ctx, booking, models.BookingStatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	start, end := window(10, 12)

	const attempts = 4
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), uuid.New(), vehicle.ID, start, end)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded, conflicted := 0, 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *apperrors.ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicted++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicted)

	var count int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestListForUser(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()
	userID := uuid.New()

	s1, e1 := window(8, 10)
	first, err := svc.Create(ctx, userID, vehicle.ID, s1, e1)
	require.NoError(t, err)

	s2, e2 := window(14, 16)
	second, err := svc.Create(ctx, userID, vehicle.ID, s2, e2)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.ID)
	require.NoError(t, err)

	all, err := svc.ListForUser(ctx, userID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest window first")

	cancelled, err := svc.ListForUser(ctx, userID, models.BookingStatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)
}

func TestListCreatedBetween(t *testing.T) {
	svc, db := setupService(t)
	vehicle := seedVehicle(t, db, models.VehicleStatusAvailable)
	ctx := context.Background()

	start, end := window(10, 12)
	booking, err := svc.Create(ctx, uuid.New(), vehicle.ID, start, end)
	require.NoError(t, err)

	now := time.Now()
	result, err := svc.ListCreatedBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour), "")
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, booking.ID, result[0].ID)

	none, err := svc.ListCreatedBetween(ctx, now.Add(time.Hour), now.Add(2*time.Hour), "")
	require.NoError(t, err)
	assert.Empty(t, none)

	cancelled, err := svc.ListCreatedBetween(ctx, now.Add(-time.Hour), now.Add(time.Hour), models.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}

func TestBookingOverlapsHalfOpen(t *testing.T) {
	start, end := window(10, 12)
	b := &models.Booking{StartTime: start, EndTime: end}

	assert.True(t, b.Overlaps(start.Add(time.Hour), end.Add(time.Hour)))
	assert.False(t, b.Overlaps(end, end.Add(2*time.Hour)))
	assert.False(t, b.Overlaps(start.Add(-2*time.Hour), start))
}
