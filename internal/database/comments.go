package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

// CreateComment attaches the one comment a reservation may carry. The
// duplicate pre-check runs in the insert transaction and is backed by a
// UNIQUE constraint on reservation_id.
func (db *DB) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.IsEmpty() {
		return ErrEmptyComment
	}
	if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE reservation_id = ?`, c.ReservationID).Scan(&dup)
	if err != nil {
		return fmt.Errorf("failed to check duplicate comment: %w", err)
	}
	if dup > 0 {
		return ErrDuplicateComment
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO comments (user_id, reservation_id, rating, review, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.ReservationID, c.Rating, nullableReview(c.Review), now, now)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return tx.Commit()
}

// UpdateComment replaces the rating and review wholesale and refreshes
// updated_at.
func (db *DB) UpdateComment(ctx context.Context, c *models.Comment) error {
	if c.IsEmpty() {
		return ErrEmptyComment
	}
	if c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5) {
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	result, err := db.ExecContext(ctx,
		`UPDATE comments SET rating = ?, review = ?, updated_at = ? WHERE id = ?`,
		c.Rating, nullableReview(c.Review), time.Now(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (db *DB) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT c.id, c.user_id, c.reservation_id, r.event_id, c.rating, c.review, c.created_at
	          FROM comments c
	          JOIN reservations r ON r.id = c.reservation_id
	          WHERE c.id = ?`
	return db.scanComment(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetCommentByReservation(ctx context.Context, reservationID int64) (*models.Comment, error) {
	query := `SELECT c.id, c.user_id, c.reservation_id, r.event_id, c.rating, c.review, c.created_at
	          FROM comments c
	          JOIN reservations r ON r.id = c.reservation_id
	          WHERE c.reservation_id = ?`
	return db.scanComment(db.QueryRowContext(ctx, query, reservationID))
}

func (db *DB) scanComment(row *sql.Row) (*models.Comment, error) {
	var c models.Comment
	var review sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.ReservationID, &c.EventID, &c.Rating, &review, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	c.Review = review.String
	return &c, nil
}

// EventRatingSummary aggregates ratings and comment count over all of the
// event's reservations.
func (db *DB) EventRatingSummary(ctx context.Context, eventID int64) (*models.RatingSummary, error) {
	query := `SELECT AVG(c.rating), COUNT(c.id)
	          FROM comments c
	          JOIN reservations r ON r.id = c.reservation_id
	          WHERE r.event_id = ?`
	var avg sql.NullFloat64
	summary := &models.RatingSummary{EventID: eventID}
	err := db.QueryRowContext(ctx, query, eventID).Scan(&avg, &summary.CommentCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	if avg.Valid {
		v := avg.Float64
		summary.AvgRating = &v
	}
	return summary, nil
}

func nullableReview(s string) any {
	if s == "" {
		return nil
	}
	return s
}
