package database

import (
	"context"
	"testing"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBusValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	event := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)

	tests := []struct {
		name string
		bus  models.Bus
	}{
		{"zero seats", models.Bus{EventID: event.ID, Seats: 0, Direction: models.DirectionOutbound, Description: "a"}},
		{"negative seats", models.Bus{EventID: event.ID, Seats: -3, Direction: models.DirectionOutbound, Description: "b"}},
		{"blank description", models.Bus{EventID: event.ID, Seats: 10, Direction: models.DirectionOutbound}},
		{"bad direction", models.Bus{EventID: event.ID, Seats: 10, Direction: "sideways", Description: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateBus(ctx, &tt.bus)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestBusDescriptionUniqueAcrossEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	e1 := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)
	e2 := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)

	seedBus(t, db, e1.ID, 20, models.DirectionOutbound, "grand bus bleu")

	// Uniqueness is global, not per event.
	err := db.CreateBus(ctx, &models.Bus{
		EventID: e2.ID, VehicleTag: "X", Seats: 20,
		Direction: models.DirectionReturn, Description: "grand bus bleu",
	})
	assert.ErrorIs(t, err, ErrDescriptionTaken)

	got, err := db.GetBusByDescription(ctx, "grand bus bleu")
	require.NoError(t, err)
	assert.Equal(t, e1.ID, got.EventID)
}

func TestTotalBusCapacity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	event := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)

	// No slot configured: zero, distinct from "zero remaining".
	total, err := db.TotalBusCapacity(ctx, event.ID, models.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	seedBus(t, db, event.ID, 30, models.DirectionOutbound, "bus 1")
	seedBus(t, db, event.ID, 20, models.DirectionOutbound, "bus 2")
	seedBus(t, db, event.ID, 15, models.DirectionReturn, "bus 3")

	total, err = db.TotalBusCapacity(ctx, event.ID, models.DirectionOutbound)
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	total, err = db.TotalBusCapacity(ctx, event.ID, models.DirectionReturn)
	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestUpdateBusSeats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	event := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)
	bus := seedBus(t, db, event.ID, 30, models.DirectionOutbound, "bus")

	require.NoError(t, db.UpdateBusSeats(ctx, bus.ID, 45))
	got, err := db.GetBus(ctx, bus.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(45), got.Seats)

	err = db.UpdateBusSeats(ctx, bus.ID, 0)
	assert.True(t, IsValidation(err))

	assert.ErrorIs(t, db.UpdateBusSeats(ctx, 999, 10), ErrBusNotFound)
}

func TestDeleteBus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	event := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)
	bus := seedBus(t, db, event.ID, 30, models.DirectionOutbound, "bus")

	assert.ErrorIs(t, db.DeleteBus(ctx, 999), ErrBusNotFound)

	user := seedUser(t, db, "rider@example.com")
	require.NoError(t, db.CreateReservationWithLock(ctx,
		&models.Reservation{UserID: user.ID, EventID: event.ID, OutboundBus: true}))

	assert.ErrorIs(t, db.DeleteBus(ctx, bus.ID), ErrBusInUse)

	require.NoError(t, db.DeleteReservation(ctx, 1))
	require.NoError(t, db.DeleteBus(ctx, bus.ID))

	_, err := db.GetBus(ctx, bus.ID)
	assert.ErrorIs(t, err, ErrBusNotFound)
}

func TestListBusesByEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	organizer := seedUser(t, db, "organizer@example.com")
	event := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)
	other := seedEvent(t, db, organizer.ID, 10, models.StatusPublished)

	seedBus(t, db, event.ID, 30, models.DirectionOutbound, "a")
	seedBus(t, db, event.ID, 20, models.DirectionReturn, "b")
	seedBus(t, db, other.ID, 10, models.DirectionOutbound, "c")

	buses, err := db.ListBusesByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, buses, 2)
	assert.Equal(t, models.DirectionOutbound, buses[0].Direction)
	assert.Equal(t, models.DirectionReturn, buses[1].Direction)
}
