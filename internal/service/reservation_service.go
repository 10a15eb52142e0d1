package service

import (
	"context"
	"errors"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/events"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/metrics"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
)

// ReservationRequest carries the caller's admission request for one event.
type ReservationRequest struct {
	EventID          int64 `json:"event_id"`
	OutboundBus      bool  `json:"outbound_bus"`
	ReturnBus        bool  `json:"return_bus"`
	Member           bool  `json:"member"`
	DesignatedDriver bool  `json:"designated_driver"`
	Drink            bool  `json:"drink"`
}

type ReservationService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	notifier domain.NotifyWorker
	logger   *zerolog.Logger
}

func NewReservationService(store domain.Store, eventBus domain.EventPublisher, notifier domain.NotifyWorker, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		eventBus: eventBus,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateReservation runs the admission engine for the actor. Post-commit
// side effects (domain event, confirmation email) are best effort and
// never change the result.
func (s *ReservationService) CreateReservation(ctx context.Context, actor *models.User, req ReservationRequest) (*models.Reservation, error) {
	if actor == nil || actor.ID == 0 {
		return nil, database.ErrForbidden
	}
	if req.EventID == 0 {
		return nil, &database.ValidationError{Field: "event_id", Reason: "required"}
	}

	r := &models.Reservation{
		UserID:           actor.ID,
		EventID:          req.EventID,
		OutboundBus:      req.OutboundBus,
		ReturnBus:        req.ReturnBus,
		Member:           req.Member,
		DesignatedDriver: req.DesignatedDriver,
		Drink:            req.Drink,
	}

	metrics.IncAdmissionAttempt()
	if err := s.store.CreateReservationWithLock(ctx, r); err != nil {
		if reason := rejectionReason(err); reason != "" {
			metrics.IncAdmissionRejection(reason)
		}
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, r.EventID)
	title := ""
	if err == nil {
		title = event.Title
	}

	s.publishReservation(events.EventReservationCreated, r, title)
	s.enqueueConfirmation(ctx, actor, r, title)

	return r, nil
}

// GetReservation returns a reservation visible to the actor: its owner or
// an admin.
func (s *ReservationService) GetReservation(ctx context.Context, actor *models.User, id int64) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || (r.UserID != actor.ID && !actor.IsAdmin()) {
		return nil, database.ErrForbidden
	}
	return r, nil
}

func (s *ReservationService) ListUserReservations(ctx context.Context, actor *models.User) ([]*models.ReservationDetail, error) {
	if actor == nil || actor.ID == 0 {
		return nil, database.ErrForbidden
	}
	return s.store.ListUserReservations(ctx, actor.ID)
}

// DeleteReservation frees the seat. Owner or admin only.
func (s *ReservationService) DeleteReservation(ctx context.Context, actor *models.User, id int64) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil || (r.UserID != actor.ID && !actor.IsAdmin()) {
		return database.ErrForbidden
	}

	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return err
	}

	s.publishReservation(events.EventReservationDeleted, r, "")
	return nil
}

// EventRoster lists the attendees of an event. Admin only.
func (s *ReservationService) EventRoster(ctx context.Context, actor *models.User, eventID int64) ([]*models.RosterEntry, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, database.ErrForbidden
	}
	return s.store.EventRoster(ctx, eventID)
}

// EventAttendance reports the occupancy of all three capacity pools.
func (s *ReservationService) EventAttendance(ctx context.Context, eventID int64) (*models.CapacityReport, error) {
	return s.store.EventAttendance(ctx, eventID)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, database.ErrEventFull):
		return "event_full"
	case errors.Is(err, database.ErrOutboundBusFull):
		return "outbound_bus_full"
	case errors.Is(err, database.ErrReturnBusFull):
		return "return_bus_full"
	case errors.Is(err, database.ErrDuplicateReservation):
		return "duplicate"
	case errors.Is(err, database.ErrEventNotOpen):
		return "not_open"
	}
	return ""
}

func (s *ReservationService) publishReservation(eventType string, r *models.Reservation, title string) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		UserID:        r.UserID,
		EventID:       r.EventID,
		EventTitle:    title,
		OutboundBus:   r.OutboundBus,
		ReturnBus:     r.ReturnBus,
		CreatedAt:     r.CreatedAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", r.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueConfirmation(ctx context.Context, actor *models.User, r *models.Reservation, title string) {
	if s.notifier == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		UserID:        r.UserID,
		EventID:       r.EventID,
		EventTitle:    title,
		OutboundBus:   r.OutboundBus,
		ReturnBus:     r.ReturnBus,
		CreatedAt:     r.CreatedAt,
	}

	if err := s.notifier.EnqueueTask(ctx, models.NotifyReservationConfirmed, r.EventID, actor.Email, payload); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("confirmation enqueue error")
	}
}
