package domain

import (
	"context"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

// Store is the persistence surface services depend on.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUserEmails(ctx context.Context) ([]string, error)

	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	UpdateEvent(ctx context.Context, event *models.Event) error
	UpdateEventStatus(ctx context.Context, id int64, status string) error
	DeleteEvent(ctx context.Context, id int64) error
	ListEvents(ctx context.Context, status string) ([]*models.Event, error)
	ListEventSummaries(ctx context.Context, status string) ([]*models.EventSummary, error)
	EventStats(ctx context.Context, eventID int64) (*models.EventStats, error)
	EventAttendance(ctx context.Context, eventID int64) (*models.CapacityReport, error)

	CreateBus(ctx context.Context, bus *models.Bus) error
	GetBus(ctx context.Context, id int64) (*models.Bus, error)
	GetBusByDescription(ctx context.Context, description string) (*models.Bus, error)
	ListBusesByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error)
	TotalBusCapacity(ctx context.Context, eventID int64, direction string) (int, error)
	UpdateBusSeats(ctx context.Context, id, seats int64) error
	DeleteBus(ctx context.Context, id int64) error

	CreateReservationWithLock(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListUserReservations(ctx context.Context, userID int64) ([]*models.ReservationDetail, error)
	DeleteReservation(ctx context.Context, id int64) error
	EventRoster(ctx context.Context, eventID int64) ([]*models.RosterEntry, error)
	EventSeatsTaken(ctx context.Context, eventID int64) (int, error)
	BusSeatsTaken(ctx context.Context, eventID int64, direction string) (int, error)
	EventCapacityRemaining(ctx context.Context, eventID int64) (int, error)
	BusCapacityRemaining(ctx context.Context, eventID int64, direction string) (int, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	UpdateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	GetCommentByReservation(ctx context.Context, reservationID int64) (*models.Comment, error)
	EventRatingSummary(ctx context.Context, eventID int64) (*models.RatingSummary, error)

	CreateNotifyTask(ctx context.Context, task *models.NotifyTask) error
	GetPendingNotifyTasks(ctx context.Context, limit int) ([]models.NotifyTask, error)
	UpdateNotifyTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedNotifyTasks(ctx context.Context) ([]models.NotifyTask, error)
}

// EventPublisher delivers post-commit domain events to in-process
// subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotifyWorker accepts email jobs for asynchronous delivery.
type NotifyWorker interface {
	EnqueueTask(ctx context.Context, taskType string, eventID int64, recipient string, payload interface{}) error
	EnqueueFanOut(ctx context.Context, taskType string, eventID int64, recipients []string, payload interface{}) error
}

// MailSender pushes one message to the mail provider. A non-2xx response
// is an error.
type MailSender interface {
	Send(ctx context.Context, messageID, recipient, subject, body string) error
}

// SessionRepository stores authenticated sessions and answers per-user
// rate-limit checks.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}
