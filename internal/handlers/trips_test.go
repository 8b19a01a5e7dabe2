package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/bookings"
	"github.com/fleetgrid/fleetgrid-backend/internal/models"
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/fleetgrid/fleetgrid-backend/internal/trips"
	"github.com/fleetgrid/fleetgrid-backend/internal/vehicles"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tripRouteFixture struct {
	router     *gin.Engine
	tripSvc    *trips.Service
	bookingSvc *bookings.Service
	db         *gorm.DB
}

// setupTripRoutes builds the trip routes behind a stub auth layer that
// injects the given identity, the way AuthMiddleware would.
func setupTripRoutes(t *testing.T, userID uuid.UUID, role string) *tripRouteFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Vehicle{}, &models.Booking{}, &models.Trip{}))

	vehicleSvc := vehicles.NewService(db)
	bookingSvc := bookings.NewService(db)
	tripSvc := trips.NewService(db, bookingSvc, vehicleSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("role", role)
	})
	router.POST("/trips", StartTrip(tripSvc, bookingSvc))

	return &tripRouteFixture{router: router, tripSvc: tripSvc, bookingSvc: bookingSvc, db: db}
}

func (f *tripRouteFixture) seedConfirmedBooking(t *testing.T, userID uuid.UUID) *models.Booking {
	t.Helper()

	vehicle := &models.Vehicle{
		ID:           uuid.New(),
		LicensePlate: "FG-" + uuid.NewString()[:8],
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2023,
		Status:       models.VehicleStatusAvailable,
		HealthScore:  100,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(vehicle).Error)

	start := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	booking := &models.Booking{
		ID:        uuid.New(),
		UserID:    userID,
		VehicleID: vehicle.ID,
		StartTime: start,
		EndTime:   start.Add(4 * time.Hour),
		Status:    models.BookingStatusConfirmed,
		Version:   1,
	}
	require.NoError(t, f.db.Create(booking).Error)
	return booking
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartTripRequiresBookingOwnership(t *testing.T) {
	caller := uuid.New()
	f := setupTripRoutes(t, caller, "user")
	booking := f.seedConfirmedBooking(t, uuid.New())

	w := postJSON(t, f.router, "/trips", map[string]interface{}{
		"bookingId":    booking.ID,
		"mileageStart": 100.0,
	})
	assert.Equal(t, 403, w.Code)

	// no trip was opened against the foreign booking
	var count int64
	require.NoError(t, f.db.Model(&models.Trip{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestStartTripAllowsOwner(t *testing.T) {
	caller := uuid.New()
	f := setupTripRoutes(t, caller, "user")
	booking := f.seedConfirmedBooking(t, caller)

	w := postJSON(t, f.router, "/trips", map[string]interface{}{
		"bookingId":    booking.ID,
		"mileageStart": 100.0,
	})
	assert.Equal(t, 201, w.Code)
}

func TestStartTripAllowsManager(t *testing.T) {
	f := setupTripRoutes(t, uuid.New(), "fleet_manager")
	booking := f.seedConfirmedBooking(t, uuid.New())

	w := postJSON(t, f.router, "/trips", map[string]interface{}{
		"bookingId":    booking.ID,
		"mileageStart": 100.0,
	})
	assert.Equal(t, 201, w.Code)
}

func TestStartTripUnknownBooking(t *testing.T) {
	f := setupTripRoutes(t, uuid.New(), "user")

	w := postJSON(t, f.router, "/trips", map[string]interface{}{
		"bookingId":    uuid.New(),
		"mileageStart": 0.0,
	})
	assert.Equal(t, 404, w.Code)
}

func TestEndTripRequiresTripOwnership(t *testing.T) {
	caller := uuid.New()
	f := setupTripRoutes(t, caller, "user")

	ctx := context.Background()
	owner := uuid.New()
	booking := f.seedConfirmedBooking(t, owner)
	trip, err := f.tripSvc.Start(ctx, trips.StartInput{BookingID: booking.ID, MileageStart: 100})
	require.NoError(t, err)

	f.router.POST("/trips/:id/end", EndTrip(f.tripSvc, services.NewHub()))

	w := postJSON(t, f.router, "/trips/"+trip.ID.String()+"/end", map[string]interface{}{
		"mileageEnd": 150.0,
	})
	assert.Equal(t, 403, w.Code)

	// the foreign trip stays open and its booking untouched
	reloaded, err := f.tripSvc.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsOpen())

	b, err := f.bookingSvc.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
}
