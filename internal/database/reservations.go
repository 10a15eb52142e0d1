package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"
)

func (db *DB) EventSeatsTaken(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get event seats taken: %w", err)
	}
	return count, nil
}

func (db *DB) BusSeatsTaken(ctx context.Context, eventID int64, direction string) (int, error) {
	flag := "outbound_bus"
	if direction == models.DirectionReturn {
		flag = "return_bus"
	}
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM reservations WHERE event_id = ? AND %s = 1`, flag)
	err := db.QueryRowContext(ctx, query, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get bus seats taken: %w", err)
	}
	return count, nil
}

// EventCapacityRemaining returns capacity minus seats taken. The value is
// signed; callers floor at zero for display.
func (db *DB) EventCapacityRemaining(ctx context.Context, eventID int64) (int, error) {
	event, err := db.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	taken, err := db.EventSeatsTaken(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return int(event.Capacity) - taken, nil
}

func (db *DB) BusCapacityRemaining(ctx context.Context, eventID int64, direction string) (int, error) {
	total, err := db.TotalBusCapacity(ctx, eventID, direction)
	if err != nil {
		return 0, err
	}
	taken, err := db.BusSeatsTaken(ctx, eventID, direction)
	if err != nil {
		return 0, err
	}
	return total - taken, nil
}

// EventAttendance returns the occupancy of all three pools in one report.
func (db *DB) EventAttendance(ctx context.Context, eventID int64) (*models.CapacityReport, error) {
	event, err := db.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := &models.CapacityReport{EventID: eventID, Capacity: event.Capacity}

	query := `SELECT COUNT(*),
	                 COALESCE(SUM(outbound_bus), 0),
	                 COALESCE(SUM(return_bus), 0)
	          FROM reservations WHERE event_id = ?`
	var outTaken, retTaken int
	err = db.QueryRowContext(ctx, query, eventID).Scan(&report.SeatsTaken, &outTaken, &retTaken)
	if err != nil {
		return nil, fmt.Errorf("failed to get event attendance: %w", err)
	}
	report.SeatsRemaining = int(event.Capacity) - report.SeatsTaken
	if report.SeatsRemaining < 0 {
		report.SeatsRemaining = 0
	}

	outTotal, err := db.TotalBusCapacity(ctx, eventID, models.DirectionOutbound)
	if err != nil {
		return nil, err
	}
	retTotal, err := db.TotalBusCapacity(ctx, eventID, models.DirectionReturn)
	if err != nil {
		return nil, err
	}
	report.Outbound = models.BusPool{Configured: outTotal, Taken: outTaken, Remaining: outTotal - outTaken}
	report.Return = models.BusPool{Configured: retTotal, Taken: retTaken, Remaining: retTotal - retTaken}
	return report, nil
}

// CreateReservationWithLock runs the admission gates and the insert under
// the event's lock and one transaction, so the count-then-insert sequence
// for a given event is never interleaved.
//
// Gate order: event open, duplicate, event seats, outbound bus, return
// bus. A requested bus direction with zero configured capacity is not an
// error: the flag is silently downgraded to false.
func (db *DB) CreateReservationWithLock(ctx context.Context, r *models.Reservation) error {
	lock := db.eventLock(r.EventID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var capacity int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, status FROM events WHERE id = ?`, r.EventID).Scan(&capacity, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get event in tx: %w", err)
	}
	if status != models.StatusPublished {
		return ErrEventNotOpen
	}

	var dup int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE user_id = ? AND event_id = ?`,
		r.UserID, r.EventID).Scan(&dup)
	if err != nil {
		return fmt.Errorf("failed to check duplicate reservation: %w", err)
	}
	if dup > 0 {
		return ErrDuplicateReservation
	}

	var seatsTaken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = ?`, r.EventID).Scan(&seatsTaken)
	if err != nil {
		return fmt.Errorf("failed to count reservations in tx: %w", err)
	}
	if seatsTaken >= int(capacity) {
		return ErrEventFull
	}

	if r.OutboundBus {
		downgraded, err := checkBusGate(ctx, tx, r.EventID, models.DirectionOutbound, ErrOutboundBusFull)
		if err != nil {
			return err
		}
		if downgraded {
			r.OutboundBus = false
		}
	}
	if r.ReturnBus {
		downgraded, err := checkBusGate(ctx, tx, r.EventID, models.DirectionReturn, ErrReturnBusFull)
		if err != nil {
			return err
		}
		if downgraded {
			r.ReturnBus = false
		}
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, event_id, outbound_bus, return_bus,
		     member, designated_driver, drink, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.EventID, r.OutboundBus, r.ReturnBus,
		r.Member, r.DesignatedDriver, r.Drink, now)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	r.ID = id
	r.CreatedAt = now

	return tx.Commit()
}

// checkBusGate evaluates one direction's pool inside the admission
// transaction. It reports downgrade=true when no capacity is configured,
// and fullErr when the pool exists but is exhausted.
func checkBusGate(ctx context.Context, tx *sql.Tx, eventID int64, direction string, fullErr error) (bool, error) {
	var total int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats), 0) FROM buses WHERE event_id = ? AND direction = ?`,
		eventID, direction).Scan(&total)
	if err != nil {
		return false, fmt.Errorf("failed to get bus capacity in tx: %w", err)
	}
	if total == 0 {
		return true, nil
	}

	flag := "outbound_bus"
	if direction == models.DirectionReturn {
		flag = "return_bus"
	}
	var taken int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM reservations WHERE event_id = ? AND %s = 1`, flag)
	if err := tx.QueryRowContext(ctx, query, eventID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to count bus seats in tx: %w", err)
	}
	if taken >= total {
		return false, fullErr
	}
	return false, nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT id, user_id, event_id, outbound_bus, return_bus,
	                 member, designated_driver, drink, created_at
	          FROM reservations WHERE id = ?`
	var r models.Reservation
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.UserID, &r.EventID, &r.OutboundBus, &r.ReturnBus,
		&r.Member, &r.DesignatedDriver, &r.Drink, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &r, nil
}

func (db *DB) ListUserReservations(ctx context.Context, userID int64) ([]*models.ReservationDetail, error) {
	query := `SELECT r.id, r.user_id, r.event_id, r.outbound_bus, r.return_bus,
	                 r.member, r.designated_driver, r.drink, r.created_at,
	                 e.title, e.city, e.event_date
	          FROM reservations r
	          JOIN events e ON e.id = r.event_id
	          WHERE r.user_id = ?
	          ORDER BY e.event_date ASC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reservations: %w", err)
	}
	defer rows.Close()

	var details []*models.ReservationDetail
	for rows.Next() {
		d := &models.ReservationDetail{}
		err := rows.Scan(
			&d.ID, &d.UserID, &d.EventID, &d.OutboundBus, &d.ReturnBus,
			&d.Member, &d.DesignatedDriver, &d.Drink, &d.CreatedAt,
			&d.EventTitle, &d.EventCity, &d.EventDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// DeleteReservation hard-deletes a reservation and its comment under the
// event lock so freed seats are observed consistently by the admission
// engine.
func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	r, err := db.GetReservation(ctx, id)
	if err != nil {
		return err
	}

	lock := db.eventLock(r.EventID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE reservation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete reservation comment: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return tx.Commit()
}

// EventRoster returns the attendee rows of one event for admin views and
// the XLSX export.
func (db *DB) EventRoster(ctx context.Context, eventID int64) ([]*models.RosterEntry, error) {
	if _, err := db.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	query := `SELECT r.id, r.user_id, u.first_name, u.last_name, u.email,
	                 r.outbound_bus, r.return_bus, r.member, r.designated_driver,
	                 r.drink, r.created_at
	          FROM reservations r
	          JOIN users u ON u.id = r.user_id
	          WHERE r.event_id = ?
	          ORDER BY u.last_name, u.first_name`
	rows, err := db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event roster: %w", err)
	}
	defer rows.Close()

	var roster []*models.RosterEntry
	for rows.Next() {
		e := &models.RosterEntry{}
		err := rows.Scan(
			&e.ReservationID, &e.UserID, &e.FirstName, &e.LastName, &e.Email,
			&e.OutboundBus, &e.ReturnBus, &e.Member, &e.DesignatedDriver,
			&e.Drink, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster entry: %w", err)
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}
