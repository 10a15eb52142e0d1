package service

import (
	"context"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/events"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/rs/zerolog"
)

type CommentService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCommentService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	return &CommentService{store: store, eventBus: eventBus, logger: logger}
}

// CreateComment attaches the actor's rating/review to their reservation.
// The actor must own the reservation.
func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, reservationID int64, rating *int64, review string) (*models.Comment, error) {
	if actor == nil || actor.ID == 0 {
		return nil, database.ErrForbidden
	}

	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != actor.ID {
		return nil, database.ErrForbidden
	}

	c := &models.Comment{
		UserID:        actor.ID,
		ReservationID: reservationID,
		EventID:       reservation.EventID,
		Rating:        rating,
		Review:        review,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventCommentCreated, c); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", c.ID).Msg("publish event error")
		}
	}
	return c, nil
}

// UpdateComment replaces the rating and review wholesale. Owner only.
func (s *CommentService) UpdateComment(ctx context.Context, actor *models.User, commentID int64, rating *int64, review string) (*models.Comment, error) {
	if actor == nil || actor.ID == 0 {
		return nil, database.ErrForbidden
	}

	existing, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actor.ID {
		return nil, database.ErrForbidden
	}

	existing.Rating = rating
	existing.Review = review
	if err := s.store.UpdateComment(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *CommentService) GetCommentByReservation(ctx context.Context, reservationID int64) (*models.Comment, error) {
	return s.store.GetCommentByReservation(ctx, reservationID)
}

func (s *CommentService) EventRatingSummary(ctx context.Context, eventID int64) (*models.RatingSummary, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.EventRatingSummary(ctx, eventID)
}
