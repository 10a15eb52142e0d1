package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

// CreateBus inserts a bus slot. The description must be unique across all
// slots of all events; the check runs before the insert and is backed by a
// UNIQUE constraint.
func (db *DB) CreateBus(ctx context.Context, bus *models.Bus) error {
	if bus.Seats <= 0 {
		return &ValidationError{Field: "seats", Reason: "must be positive"}
	}
	if bus.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be blank"}
	}
	if !models.ValidDirection(bus.Direction) {
		return &ValidationError{Field: "direction", Reason: "must be outbound or return"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var taken int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM buses WHERE description = ?`, bus.Description).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check bus description: %w", err)
	}
	if taken > 0 {
		return ErrDescriptionTaken
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO buses (event_id, vehicle_tag, seats, direction, description) VALUES (?, ?, ?, ?, ?)`,
		bus.EventID, bus.VehicleTag, bus.Seats, bus.Direction, bus.Description)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	bus.ID = id
	return tx.Commit()
}

func (db *DB) GetBus(ctx context.Context, id int64) (*models.Bus, error) {
	query := `SELECT id, event_id, vehicle_tag, seats, direction, description FROM buses WHERE id = ?`
	var b models.Bus
	err := db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.EventID, &b.VehicleTag, &b.Seats, &b.Direction, &b.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return &b, nil
}

func (db *DB) GetBusByDescription(ctx context.Context, description string) (*models.Bus, error) {
	query := `SELECT id, event_id, vehicle_tag, seats, direction, description FROM buses WHERE description = ?`
	var b models.Bus
	err := db.QueryRowContext(ctx, query, description).Scan(
		&b.ID, &b.EventID, &b.VehicleTag, &b.Seats, &b.Direction, &b.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bus by description: %w", err)
	}
	return &b, nil
}

func (db *DB) ListBusesByEvent(ctx context.Context, eventID int64) ([]*models.Bus, error) {
	query := `SELECT id, event_id, vehicle_tag, seats, direction, description
	          FROM buses WHERE event_id = ? ORDER BY direction, id`
	rows, err := db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	var buses []*models.Bus
	for rows.Next() {
		b := &models.Bus{}
		if err := rows.Scan(&b.ID, &b.EventID, &b.VehicleTag, &b.Seats, &b.Direction, &b.Description); err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		buses = append(buses, b)
	}
	return buses, rows.Err()
}

// TotalBusCapacity returns the summed configured seats for one direction
// of one event. Zero means no slot is configured for that direction.
func (db *DB) TotalBusCapacity(ctx context.Context, eventID int64, direction string) (int, error) {
	query := `SELECT COALESCE(SUM(seats), 0) FROM buses WHERE event_id = ? AND direction = ?`
	var total int
	err := db.QueryRowContext(ctx, query, eventID, direction).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to get total bus capacity: %w", err)
	}
	return total, nil
}

func (db *DB) UpdateBusSeats(ctx context.Context, id, seats int64) error {
	if seats <= 0 {
		return &ValidationError{Field: "seats", Reason: "must be positive"}
	}
	result, err := db.ExecContext(ctx, `UPDATE buses SET seats = ? WHERE id = ?`, seats, id)
	if err != nil {
		return fmt.Errorf("failed to update bus seats: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrBusNotFound
	}
	return nil
}

// DeleteBus removes a bus slot. The delete is refused with ErrBusInUse
// when reservations already hold seats in the slot's direction for its
// event.
func (db *DB) DeleteBus(ctx context.Context, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var eventID int64
	var direction string
	err = tx.QueryRowContext(ctx, `SELECT event_id, direction FROM buses WHERE id = ?`, id).
		Scan(&eventID, &direction)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBusNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get bus for delete: %w", err)
	}

	flag := "outbound_bus"
	if direction == models.DirectionReturn {
		flag = "return_bus"
	}
	var taken int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM reservations WHERE event_id = ? AND %s = 1`, flag)
	if err := tx.QueryRowContext(ctx, query, eventID).Scan(&taken); err != nil {
		return fmt.Errorf("failed to count bus reservations: %w", err)
	}
	if taken > 0 {
		return ErrBusInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM buses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bus: %w", err)
	}
	return tx.Commit()
}
