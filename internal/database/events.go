package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

func (db *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO events (organizer_id, title, address, city, event_date,
	              description, capacity, category, status, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		event.OrganizerID, event.Title, event.Address, event.City, event.Date,
		event.Description, event.Capacity, event.Category, event.Status, now)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	event.ID = id
	event.CreatedAt = now
	return nil
}

func (db *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT id, organizer_id, title, address, city, event_date,
	                 description, capacity, category, status, created_at
	          FROM events WHERE id = ?`
	var e models.Event
	err := db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Address, &e.City, &e.Date,
		&e.Description, &e.Capacity, &e.Category, &e.Status, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

func (db *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	query := `UPDATE events SET title = ?, address = ?, city = ?, event_date = ?,
	              description = ?, capacity = ?, category = ?
	          WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		event.Title, event.Address, event.City, event.Date,
		event.Description, event.Capacity, event.Category, event.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (db *DB) UpdateEventStatus(ctx context.Context, id int64, status string) error {
	result, err := db.ExecContext(ctx, `UPDATE events SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes an event that has no reservations. Events with
// reservations are blocked with ErrEventInUse.
func (db *DB) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE event_id = ?`, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count event reservations: %w", err)
	}
	if count > 0 {
		return ErrEventInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM buses WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete event buses: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEventNotFound
	}
	return tx.Commit()
}

func (db *DB) ListEvents(ctx context.Context, status string) ([]*models.Event, error) {
	query := `SELECT id, organizer_id, title, address, city, event_date,
	                 description, capacity, category, status, created_at
	          FROM events`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY event_date ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e := &models.Event{}
		err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Address, &e.City, &e.Date,
			&e.Description, &e.Capacity, &e.Category, &e.Status, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEventSummaries returns events together with occupancy and rating
// aggregates for listing views.
func (db *DB) ListEventSummaries(ctx context.Context, status string) ([]*models.EventSummary, error) {
	query := `SELECT e.id, e.organizer_id, e.title, e.address, e.city, e.event_date,
	                 e.description, e.capacity, e.category, e.status, e.created_at,
	                 COUNT(r.id),
	                 AVG(c.rating),
	                 COUNT(c.id)
	          FROM events e
	          LEFT JOIN reservations r ON r.event_id = e.id
	          LEFT JOIN comments c ON c.reservation_id = r.id
	          %s
	          GROUP BY e.id
	          ORDER BY e.event_date ASC`
	var args []any
	where := ""
	if status != "" {
		where = `WHERE e.status = ?`
		args = append(args, status)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(query, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list event summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.EventSummary
	for rows.Next() {
		s := &models.EventSummary{}
		var avg sql.NullFloat64
		err := rows.Scan(
			&s.ID, &s.OrganizerID, &s.Title, &s.Address, &s.City, &s.Date,
			&s.Description, &s.Capacity, &s.Category, &s.Status, &s.CreatedAt,
			&s.SeatsTaken, &avg, &s.CommentCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event summary: %w", err)
		}
		s.SeatsRemaining = int(s.Capacity) - s.SeatsTaken
		if s.SeatsRemaining < 0 {
			s.SeatsRemaining = 0
		}
		if avg.Valid {
			v := avg.Float64
			s.AvgRating = &v
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// EventStats returns the attendance counters of one event.
func (db *DB) EventStats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	if _, err := db.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	stats := &models.EventStats{EventID: eventID}
	query := `SELECT COUNT(*),
	                 COALESCE(SUM(outbound_bus), 0),
	                 COALESCE(SUM(return_bus), 0),
	                 COALESCE(SUM(member), 0),
	                 COALESCE(SUM(designated_driver), 0),
	                 COALESCE(SUM(drink), 0)
	          FROM reservations WHERE event_id = ?`
	err := db.QueryRowContext(ctx, query, eventID).Scan(
		&stats.Reservations, &stats.OutboundBusTaken, &stats.ReturnBusTaken,
		&stats.Members, &stats.DesignatedDrivers, &stats.Drinks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}

	summary, err := db.EventRatingSummary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	stats.AvgRating = summary.AvgRating
	stats.CommentCount = summary.CommentCount
	return stats, nil
}
