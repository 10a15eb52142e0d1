package service

import (
	"context"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockStore) ListUserEmails(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockStore) CreateEvent(ctx context.Context, e *models.Event) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockStore) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}
func (m *mockStore) UpdateEvent(ctx context.Context, e *models.Event) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockStore) UpdateEventStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockStore) DeleteEvent(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) ListEvents(ctx context.Context, status string) ([]*models.Event, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}
func (m *mockStore) ListEventSummaries(ctx context.Context, status string) ([]*models.EventSummary, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventSummary), args.Error(1)
}
func (m *mockStore) EventStats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventStats), args.Error(1)
}
func (m *mockStore) EventAttendance(ctx context.Context, eventID int64) (*models.CapacityReport, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CapacityReport), args.Error(1)
}

func (m *mockStore) CreateBus(ctx context.Context, b *models.Bus) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockStore) GetBus(ctx context.Context, id int64) (*models.Bus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bus), args.Error(1)
}
func (m *mockStore) GetBusByDescription(ctx context.Context, d string) (*models.Bus, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bus), args.Error(1)
}
func (m *mockStore) ListBusesByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bus), args.Error(1)
}
func (m *mockStore) TotalBusCapacity(ctx context.Context, eventID int64, direction string) (int, error) {
	args := m.Called(ctx, eventID, direction)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) UpdateBusSeats(ctx context.Context, id, seats int64) error {
	return m.Called(ctx, id, seats).Error(0)
}
func (m *mockStore) DeleteBus(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) CreateReservationWithLock(ctx context.Context, r *models.Reservation) error {
	return m.Called(ctx, r).Error(0)
}
func (m *mockStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}
func (m *mockStore) ListUserReservations(ctx context.Context, userID int64) ([]*models.ReservationDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReservationDetail), args.Error(1)
}
func (m *mockStore) DeleteReservation(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) EventRoster(ctx context.Context, eventID int64) ([]*models.RosterEntry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RosterEntry), args.Error(1)
}
func (m *mockStore) EventSeatsTaken(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) BusSeatsTaken(ctx context.Context, eventID int64, direction string) (int, error) {
	args := m.Called(ctx, eventID, direction)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) EventCapacityRemaining(ctx context.Context, eventID int64) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}
func (m *mockStore) BusCapacityRemaining(ctx context.Context, eventID int64, direction string) (int, error) {
	args := m.Called(ctx, eventID, direction)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CreateComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}
func (m *mockStore) GetCommentByReservation(ctx context.Context, reservationID int64) (*models.Comment, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}
func (m *mockStore) EventRatingSummary(ctx context.Context, eventID int64) (*models.RatingSummary, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingSummary), args.Error(1)
}

func (m *mockStore) CreateNotifyTask(ctx context.Context, t *models.NotifyTask) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockStore) GetPendingNotifyTasks(ctx context.Context, limit int) ([]models.NotifyTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotifyTask), args.Error(1)
}
func (m *mockStore) UpdateNotifyTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	return m.Called(ctx, id, status, errMsg, nextRetryAt).Error(0)
}
func (m *mockStore) GetFailedNotifyTasks(ctx context.Context) ([]models.NotifyTask, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.NotifyTask), args.Error(1)
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(et string, p interface{}) error { return m.Called(et, p).Error(0) }

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) EnqueueTask(ctx context.Context, tt string, eventID int64, recipient string, payload interface{}) error {
	return m.Called(ctx, tt, eventID, recipient, payload).Error(0)
}
func (m *mockNotifier) EnqueueFanOut(ctx context.Context, tt string, eventID int64, recipients []string, payload interface{}) error {
	return m.Called(ctx, tt, eventID, recipients, payload).Error(0)
}
