package service

import (
	"context"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
)

type BusService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewBusService(store domain.Store, logger *zerolog.Logger) *BusService {
	return &BusService{store: store, logger: logger}
}

// CreateBus configures a new bus slot for an event. Admin only; the event
// must exist.
func (s *BusService) CreateBus(ctx context.Context, actor *models.User, bus *models.Bus) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}

	if _, err := s.store.GetEvent(ctx, bus.EventID); err != nil {
		return err
	}
	return s.store.CreateBus(ctx, bus)
}

func (s *BusService) GetBus(ctx context.Context, id int64) (*models.Bus, error) {
	return s.store.GetBus(ctx, id)
}

func (s *BusService) GetBusByDescription(ctx context.Context, description string) (*models.Bus, error) {
	if description == "" {
		return nil, &database.ValidationError{Field: "description", Reason: "must not be blank"}
	}
	return s.store.GetBusByDescription(ctx, description)
}

func (s *BusService) ListBusesByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error) {
	return s.store.ListBusesByEvent(ctx, eventID)
}

func (s *BusService) TotalBusCapacity(ctx context.Context, eventID int64, direction string) (int, error) {
	if !models.ValidDirection(direction) {
		return 0, &database.ValidationError{Field: "direction", Reason: "must be outbound or return"}
	}
	return s.store.TotalBusCapacity(ctx, eventID, direction)
}

func (s *BusService) UpdateBusSeats(ctx context.Context, actor *models.User, id, seats int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}
	return s.store.UpdateBusSeats(ctx, id, seats)
}

func (s *BusService) DeleteBus(ctx context.Context, actor *models.User, id int64) error {
	if actor == nil || !actor.IsAdmin() {
		return database.ErrForbidden
	}
	return s.store.DeleteBus(ctx, id)
}
