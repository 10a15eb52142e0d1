package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/events"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
)

// EventRequest is the admin-facing input for creating or updating an
// event, with optional bus pools configured alongside.
type EventRequest struct {
	Title         string    `json:"title"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	Capacity      int64     `json:"capacity"`
	Category      string    `json:"category"`
	OutboundSeats int64     `json:"outbound_seats"`
	OutboundDesc  string    `json:"outbound_desc"`
	ReturnSeats   int64     `json:"return_seats"`
	ReturnDesc    string    `json:"return_desc"`
}

type EventService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	notifier domain.NotifyWorker
	logger   *zerolog.Logger
}

func NewEventService(store domain.Store, eventBus domain.EventPublisher, notifier domain.NotifyWorker, logger *zerolog.Logger) *EventService {
	return &EventService{
		store:    store,
		eventBus: eventBus,
		notifier: notifier,
		logger:   logger,
	}
}

func validateEventRequest(req EventRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return &database.ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if req.Capacity <= 0 {
		return &database.ValidationError{Field: "capacity", Reason: "must be positive"}
	}
	if req.Date.IsZero() {
		return &database.ValidationError{Field: "date", Reason: "required"}
	}
	return nil
}

// CreateEvent creates a draft event for the organizer, configuring the
// bus pools when seats are requested. Admin only.
func (s *EventService) CreateEvent(ctx context.Context, actor *models.User, req EventRequest) (*models.Event, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, database.ErrForbidden
	}
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	event := &models.Event{
		OrganizerID: actor.ID,
		Title:       req.Title,
		Address:     req.Address,
		City:        req.City,
		Date:        req.Date,
		Description: req.Description,
		Capacity:    req.Capacity,
		Category:    req.Category,
		Status:      models.StatusDraft,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	if err := s.addEventBuses(ctx, event.ID, req); err != nil {
		return nil, err
	}

	s.publishSnapshot(events.EventEventCreated, event)
	return event, nil
}

// addEventBuses configures the requested pools right after event
// creation. A direction with zero requested seats is skipped.
func (s *EventService) addEventBuses(ctx context.Context, eventID int64, req EventRequest) error {
	if req.OutboundSeats > 0 {
		desc := req.OutboundDesc
		if desc == "" {
			desc = fmt.Sprintf("BA-%d", eventID)
		}
		bus := &models.Bus{
			EventID:     eventID,
			VehicleTag:  fmt.Sprintf("BA-%d", eventID),
			Seats:       req.OutboundSeats,
			Direction:   models.DirectionOutbound,
			Description: desc,
		}
		if err := s.store.CreateBus(ctx, bus); err != nil {
			return err
		}
	}
	if req.ReturnSeats > 0 {
		desc := req.ReturnDesc
		if desc == "" {
			desc = fmt.Sprintf("BR-%d", eventID)
		}
		bus := &models.Bus{
			EventID:     eventID,
			VehicleTag:  fmt.Sprintf("BR-%d", eventID),
			Seats:       req.ReturnSeats,
			Direction:   models.DirectionReturn,
			Description: desc,
		}
		if err := s.store.CreateBus(ctx, bus); err != nil {
			return err
		}
	}
	return nil
}

// PublishEvent opens the event for reservations and fans a notification
// out to every registered user. Delivery is best effort.
func (s *EventService) PublishEvent(ctx context.Context, actor *models.User, eventID int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}

	if err := s.store.UpdateEventStatus(ctx, eventID, models.StatusPublished); err != nil {
		return err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	s.publishSnapshot(events.EventEventPublished, event)
	s.fanOut(ctx, models.NotifyEventCreated, event)
	return nil
}

// CancelEvent closes the event and notifies registered users.
func (s *EventService) CancelEvent(ctx context.Context, actor *models.User, eventID int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}

	if err := s.store.UpdateEventStatus(ctx, eventID, models.StatusCancelled); err != nil {
		return err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	s.publishSnapshot(events.EventEventCancelled, event)
	s.fanOut(ctx, models.NotifyEventCancelled, event)
	return nil
}

func (s *EventService) CompleteEvent(ctx context.Context, actor *models.User, eventID int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}
	return s.store.UpdateEventStatus(ctx, eventID, models.StatusCompleted)
}

// UpdateEvent replaces the editable fields of an event. Admin only.
func (s *EventService) UpdateEvent(ctx context.Context, actor *models.User, eventID int64, req EventRequest) (*models.Event, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, database.ErrForbidden
	}
	if err := validateEventRequest(req); err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	event.Title = req.Title
	event.Address = req.Address
	event.City = req.City
	event.Date = req.Date
	event.Description = req.Description
	event.Capacity = req.Capacity
	event.Category = req.Category

	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes a reservation-free event. Admin only.
func (s *EventService) DeleteEvent(ctx context.Context, actor *models.User, eventID int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}
	return s.store.DeleteEvent(ctx, eventID)
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, status string) ([]*models.Event, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, &database.ValidationError{Field: "status", Reason: "unknown status"}
	}
	return s.store.ListEvents(ctx, status)
}

func (s *EventService) ListEventSummaries(ctx context.Context, status string) ([]*models.EventSummary, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, &database.ValidationError{Field: "status", Reason: "unknown status"}
	}
	return s.store.ListEventSummaries(ctx, status)
}

// EventStats returns attendance counters. Admin only.
func (s *EventService) EventStats(ctx context.Context, actor *models.User, eventID int64) (*models.EventStats, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, database.ErrForbidden
	}
	return s.store.EventStats(ctx, eventID)
}

func (s *EventService) publishSnapshot(eventType string, event *models.Event) {
	if s.eventBus == nil {
		return
	}

	payload := events.EventSnapshotPayload{
		EventID:  event.ID,
		Title:    event.Title,
		City:     event.City,
		Date:     event.Date,
		Capacity: event.Capacity,
		Status:   event.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("event_id", event.ID).Msg("publish event error")
	}
}

// fanOut queues one notification per registered user. Failures are
// logged, never returned.
func (s *EventService) fanOut(ctx context.Context, taskType string, event *models.Event) {
	if s.notifier == nil {
		return
	}

	emails, err := s.store.ListUserEmails(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int64("event_id", event.ID).Msg("fan-out recipients error")
		return
	}

	payload := events.EventSnapshotPayload{
		EventID:  event.ID,
		Title:    event.Title,
		City:     event.City,
		Date:     event.Date,
		Capacity: event.Capacity,
		Status:   event.Status,
	}

	if err := s.notifier.EnqueueFanOut(ctx, taskType, event.ID, emails, payload); err != nil {
		s.logger.Error().Err(err).Int64("event_id", event.ID).Str("task", taskType).Msg("fan-out enqueue error")
	}
}
