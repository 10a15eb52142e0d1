package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventService(t *testing.T) {
	store := new(mockStore)
	bus := new(mockEventBus)
	notifier := new(mockNotifier)
	logger := zerolog.New(io.Discard)
	svc := NewEventService(store, bus, notifier, &logger)
	ctx := context.Background()

	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	user := &models.User{ID: 7, Role: models.RoleUser}
	date := time.Now().AddDate(0, 0, 14)

	t.Run("CreateEvent", func(t *testing.T) {
		req := EventRequest{Title: "Gala", City: "Rennes", Date: date, Capacity: 200}

		store.On("CreateEvent", ctx, mock.MatchedBy(func(e *models.Event) bool {
			return e.Title == "Gala" && e.OrganizerID == 1 && e.Status == models.StatusDraft
		})).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		event, err := svc.CreateEvent(ctx, admin, req)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, event.Status)
		store.AssertExpectations(t)
	})

	t.Run("CreateEvent with buses", func(t *testing.T) {
		req := EventRequest{
			Title: "Gala", Date: date, Capacity: 200,
			OutboundSeats: 50, ReturnSeats: 30, ReturnDesc: "retour gala",
		}

		store.On("CreateEvent", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Event).ID = 9
		}).Return(nil).Once()
		store.On("CreateBus", ctx, mock.MatchedBy(func(b *models.Bus) bool {
			return b.EventID == 9 && b.Direction == models.DirectionOutbound && b.Seats == 50 && b.Description == "BA-9"
		})).Return(nil).Once()
		store.On("CreateBus", ctx, mock.MatchedBy(func(b *models.Bus) bool {
			return b.EventID == 9 && b.Direction == models.DirectionReturn && b.Seats == 30 && b.Description == "retour gala"
		})).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.CreateEvent(ctx, admin, req)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("CreateEvent validation", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, admin, EventRequest{Title: "  ", Date: date, Capacity: 10})
		assert.True(t, database.IsValidation(err))

		_, err = svc.CreateEvent(ctx, admin, EventRequest{Title: "x", Date: date, Capacity: 0})
		assert.True(t, database.IsValidation(err))

		_, err = svc.CreateEvent(ctx, admin, EventRequest{Title: "x", Capacity: 10})
		assert.True(t, database.IsValidation(err))
	})

	t.Run("CreateEvent non-admin forbidden", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, user, EventRequest{Title: "x", Date: date, Capacity: 10})
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("PublishEvent fans out", func(t *testing.T) {
		event := &models.Event{ID: 5, Title: "Gala", Status: models.StatusPublished}
		emails := []string{"a@example.com", "b@example.com"}

		store.On("UpdateEventStatus", ctx, int64(5), models.StatusPublished).Return(nil).Once()
		store.On("GetEvent", ctx, int64(5)).Return(event, nil).Once()
		store.On("ListUserEmails", ctx).Return(emails, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("EnqueueFanOut", ctx, models.NotifyEventCreated, int64(5), emails, mock.Anything).Return(nil).Once()

		err := svc.PublishEvent(ctx, admin, 5)
		require.NoError(t, err)
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("PublishEvent fan-out failure is swallowed", func(t *testing.T) {
		event := &models.Event{ID: 6, Title: "BBQ", Status: models.StatusPublished}

		store.On("UpdateEventStatus", ctx, int64(6), models.StatusPublished).Return(nil).Once()
		store.On("GetEvent", ctx, int64(6)).Return(event, nil).Once()
		store.On("ListUserEmails", ctx).Return(nil, assert.AnError).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		err := svc.PublishEvent(ctx, admin, 6)
		assert.NoError(t, err)
	})

	t.Run("CancelEvent", func(t *testing.T) {
		event := &models.Event{ID: 7, Title: "Gala", Status: models.StatusCancelled}
		emails := []string{"a@example.com"}

		store.On("UpdateEventStatus", ctx, int64(7), models.StatusCancelled).Return(nil).Once()
		store.On("GetEvent", ctx, int64(7)).Return(event, nil).Once()
		store.On("ListUserEmails", ctx).Return(emails, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("EnqueueFanOut", ctx, models.NotifyEventCancelled, int64(7), emails, mock.Anything).Return(nil).Once()

		err := svc.CancelEvent(ctx, admin, 7)
		require.NoError(t, err)
	})

	t.Run("UpdateEvent", func(t *testing.T) {
		existing := &models.Event{ID: 8, Title: "Old", Capacity: 50}
		store.On("GetEvent", ctx, int64(8)).Return(existing, nil).Once()
		store.On("UpdateEvent", ctx, mock.MatchedBy(func(e *models.Event) bool {
			return e.ID == 8 && e.Title == "New" && e.Capacity == 80
		})).Return(nil).Once()

		updated, err := svc.UpdateEvent(ctx, admin, 8, EventRequest{Title: "New", Date: date, Capacity: 80})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
	})

	t.Run("DeleteEvent blocked propagates", func(t *testing.T) {
		store.On("DeleteEvent", ctx, int64(9)).Return(database.ErrEventInUse).Once()

		err := svc.DeleteEvent(ctx, admin, 9)
		assert.ErrorIs(t, err, database.ErrEventInUse)
	})

	t.Run("ListEvents status validation", func(t *testing.T) {
		_, err := svc.ListEvents(ctx, "bogus")
		assert.True(t, database.IsValidation(err))

		list := []*models.Event{{ID: 1}}
		store.On("ListEvents", ctx, models.StatusPublished).Return(list, nil).Once()
		got, err := svc.ListEvents(ctx, models.StatusPublished)
		require.NoError(t, err)
		assert.Equal(t, list, got)
	})

	t.Run("EventStats admin only", func(t *testing.T) {
		_, err := svc.EventStats(ctx, user, 1)
		assert.ErrorIs(t, err, database.ErrForbidden)

		stats := &models.EventStats{EventID: 1, Reservations: 3}
		store.On("EventStats", ctx, int64(1)).Return(stats, nil).Once()
		got, err := svc.EventStats(ctx, admin, 1)
		require.NoError(t, err)
		assert.Equal(t, stats, got)
	})
}
