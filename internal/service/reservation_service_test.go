package service

import (
	"context"
	"io"
	"testing"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReservationService(t *testing.T) {
	store := new(mockStore)
	bus := new(mockEventBus)
	notifier := new(mockNotifier)
	logger := zerolog.New(io.Discard)
	svc := NewReservationService(store, bus, notifier, &logger)
	ctx := context.Background()

	user := &models.User{ID: 7, Email: "user@example.com", Role: models.RoleUser}
	admin := &models.User{ID: 1, Email: "admin@example.com", Role: models.RoleAdmin}

	t.Run("CreateReservation", func(t *testing.T) {
		req := ReservationRequest{EventID: 3, OutboundBus: true, Member: true}

		store.On("CreateReservationWithLock", ctx, mock.MatchedBy(func(r *models.Reservation) bool {
			return r.UserID == 7 && r.EventID == 3 && r.OutboundBus && r.Member
		})).Return(nil).Once()
		store.On("GetEvent", ctx, int64(3)).Return(&models.Event{ID: 3, Title: "Gala"}, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("EnqueueTask", ctx, models.NotifyReservationConfirmed, int64(3), "user@example.com", mock.Anything).Return(nil).Once()

		r, err := svc.CreateReservation(ctx, user, req)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), r.EventID)
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("CreateReservation unauthenticated", func(t *testing.T) {
		_, err := svc.CreateReservation(ctx, nil, ReservationRequest{EventID: 3})
		assert.ErrorIs(t, err, database.ErrForbidden)

		_, err = svc.CreateReservation(ctx, &models.User{}, ReservationRequest{EventID: 3})
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("CreateReservation missing event id", func(t *testing.T) {
		_, err := svc.CreateReservation(ctx, user, ReservationRequest{})
		assert.True(t, database.IsValidation(err))
	})

	t.Run("CreateReservation full event propagates", func(t *testing.T) {
		store.On("CreateReservationWithLock", ctx, mock.Anything).Return(database.ErrEventFull).Once()

		_, err := svc.CreateReservation(ctx, user, ReservationRequest{EventID: 4})
		assert.ErrorIs(t, err, database.ErrEventFull)
		store.AssertExpectations(t)
	})

	t.Run("CreateReservation succeeds when notification enqueue fails", func(t *testing.T) {
		store.On("CreateReservationWithLock", ctx, mock.Anything).Return(nil).Once()
		store.On("GetEvent", ctx, int64(5)).Return(&models.Event{ID: 5, Title: "BBQ"}, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()
		notifier.On("EnqueueTask", ctx, models.NotifyReservationConfirmed, int64(5), "user@example.com", mock.Anything).
			Return(assert.AnError).Once()

		_, err := svc.CreateReservation(ctx, user, ReservationRequest{EventID: 5})
		assert.NoError(t, err)
	})

	t.Run("GetReservation owner", func(t *testing.T) {
		store.On("GetReservation", ctx, int64(20)).Return(&models.Reservation{ID: 20, UserID: 7}, nil).Once()

		r, err := svc.GetReservation(ctx, user, 20)
		assert.NoError(t, err)
		assert.Equal(t, int64(20), r.ID)
	})

	t.Run("GetReservation foreign user forbidden", func(t *testing.T) {
		store.On("GetReservation", ctx, int64(21)).Return(&models.Reservation{ID: 21, UserID: 99}, nil).Once()

		_, err := svc.GetReservation(ctx, user, 21)
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("GetReservation admin sees all", func(t *testing.T) {
		store.On("GetReservation", ctx, int64(22)).Return(&models.Reservation{ID: 22, UserID: 99}, nil).Once()

		r, err := svc.GetReservation(ctx, admin, 22)
		assert.NoError(t, err)
		assert.Equal(t, int64(22), r.ID)
	})

	t.Run("DeleteReservation owner", func(t *testing.T) {
		store.On("GetReservation", ctx, int64(30)).Return(&models.Reservation{ID: 30, UserID: 7, EventID: 3}, nil).Once()
		store.On("DeleteReservation", ctx, int64(30)).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		err := svc.DeleteReservation(ctx, user, 30)
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("DeleteReservation foreign user forbidden", func(t *testing.T) {
		store.On("GetReservation", ctx, int64(31)).Return(&models.Reservation{ID: 31, UserID: 99}, nil).Once()

		err := svc.DeleteReservation(ctx, user, 31)
		assert.ErrorIs(t, err, database.ErrForbidden)
	})

	t.Run("ListUserReservations", func(t *testing.T) {
		details := []*models.ReservationDetail{{EventTitle: "Gala"}}
		store.On("ListUserReservations", ctx, int64(7)).Return(details, nil).Once()

		got, err := svc.ListUserReservations(ctx, user)
		assert.NoError(t, err)
		assert.Equal(t, details, got)
	})

	t.Run("EventRoster admin only", func(t *testing.T) {
		_, err := svc.EventRoster(ctx, user, 3)
		assert.ErrorIs(t, err, database.ErrForbidden)

		roster := []*models.RosterEntry{{ReservationID: 1}}
		store.On("EventRoster", ctx, int64(3)).Return(roster, nil).Once()

		got, err := svc.EventRoster(ctx, admin, 3)
		assert.NoError(t, err)
		assert.Equal(t, roster, got)
	})

	t.Run("EventAttendance", func(t *testing.T) {
		report := &models.CapacityReport{EventID: 3, Capacity: 100}
		store.On("EventAttendance", ctx, int64(3)).Return(report, nil).Once()

		got, err := svc.EventAttendance(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, report, got)
	})
}
