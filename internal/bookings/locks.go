package bookings

import (
	"sync"

	"github.com/google/uuid"
)

// vehicleLocks hands out one mutex per vehicle id. Holding a vehicle's
// mutex is the critical section for booking creation: no other caller can
// run the conflict check for that vehicle until the new booking is
// committed. Locks for different vehicles never contend.
//
// Entries are never evicted; the map is bounded by fleet size.
type vehicleLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newVehicleLocks() *vehicleLocks {
	return &vehicleLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire blocks until the lock for the vehicle is held and returns it so
// the caller can defer the release.
func (v *vehicleLocks) Acquire(vehicleID uuid.UUID) *sync.Mutex {
	v.mu.Lock()
	m, ok := v.locks[vehicleID]
	if !ok {
		m = &sync.Mutex{}
		v.locks[vehicleID] = m
	}
	v.mu.Unlock()

	m.Lock()
	return m
}
