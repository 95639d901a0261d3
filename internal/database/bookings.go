package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/google/uuid"
)

const bookingColumns = `id, room_id, room_name, guest_name, guest_email, guest_phone,
        check_in_date, check_out_date, guests, special_requests, status,
        total_amount, deposit_amount, balance_amount, deposit_paid, payment_status,
        created_at, updated_at`

// overlapCondition matches stays sharing at least one night with [start, end).
const overlapCondition = `room_id = ? AND check_in_date < ? AND check_out_date > ?`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (db *DB) FindBookingsOverlapping(
	ctx context.Context, roomID string, start, end time.Time, statuses []string,
) ([]*models.Booking, error) {
	bookings, err := findOverlapping(ctx, db, roomID, start, end, statuses)
	if err != nil {
		return nil, wrapErr("failed to find overlapping bookings", err)
	}
	return bookings, nil
}

func findOverlapping(
	ctx context.Context, q queryer, roomID string, start, end time.Time, statuses []string,
) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + overlapCondition
	args := []interface{}{roomID, formatDate(end), formatDate(start)}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY check_in_date ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (db *DB) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to get booking", err)
	}
	return booking, nil
}

// InsertBooking persists booking as given, generating the ID and timestamps
// when they are empty.
func (db *DB) InsertBooking(ctx context.Context, booking *models.Booking) (string, error) {
	if err := insertBooking(ctx, db, booking); err != nil {
		return "", wrapErr("failed to create booking", err)
	}
	return booking.ID, nil
}

// InsertBookingWithLock re-checks the room inside an immediate transaction and
// inserts only when no pending or confirmed stay overlaps.
func (db *DB) InsertBookingWithLock(ctx context.Context, booking *models.Booking) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrapErr("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Check availability inside transaction
	conflicts, err := findOverlapping(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, models.HoldingStatuses)
	if err != nil {
		return "", wrapErr("failed to check availability in tx", err)
	}
	if len(conflicts) > 0 {
		return "", domain.ErrNotAvailable
	}

	// 2. Create booking
	if err := insertBooking(ctx, tx, booking); err != nil {
		return "", wrapErr("failed to insert booking in tx", err)
	}

	if err := tx.Commit(); err != nil {
		return "", wrapErr("failed to commit booking", err)
	}
	return booking.ID, nil
}

func insertBooking(ctx context.Context, q queryer, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}
	booking.CheckIn = models.NormalizeDate(booking.CheckIn)
	booking.CheckOut = models.NormalizeDate(booking.CheckOut)

	query := `INSERT INTO bookings (` + bookingColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		booking.ID,
		booking.RoomID,
		booking.RoomName,
		booking.GuestName,
		booking.GuestEmail,
		booking.GuestPhone,
		formatDate(booking.CheckIn),
		formatDate(booking.CheckOut),
		booking.Guests,
		booking.SpecialRequests,
		booking.Status,
		booking.TotalAmount,
		booking.DepositAmount,
		booking.BalanceAmount,
		booking.DepositPaid,
		booking.PaymentStatus,
		booking.CreatedAt.UTC(),
		booking.UpdatedAt.UTC(),
	)
	return err
}

// UpdateBooking overwrites the patched fields and returns the stored booking,
// or nil when id is unknown.
func (db *DB) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.PaymentStatus != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, *patch.PaymentStatus)
	}
	if patch.DepositPaid != nil {
		sets = append(sets, "deposit_paid = ?")
		args = append(args, *patch.DepositPaid)
	}
	args = append(args, id)

	query := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to update booking", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, wrapErr("failed to get affected rows", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return db.FindBooking(ctx, id)
}

// ListBookings returns bookings newest first, narrowed by filter.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var where []string
	var args []interface{}

	if filter.RoomID != "" {
		where = append(where, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if !filter.From.IsZero() {
		where = append(where, "check_in_date >= ?")
		args = append(args, formatDate(filter.From))
	}
	if !filter.To.IsZero() {
		where = append(where, "check_in_date <= ?")
		args = append(args, formatDate(filter.To))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to list bookings", err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, wrapErr("failed to scan bookings", err)
	}
	return bookings, nil
}

// PurgeStalePending deletes pending bookings created before cutoff together
// with their payment records.
func (db *DB) PurgeStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("failed to begin purge", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stale := `SELECT id FROM bookings WHERE status = ? AND created_at < ?`
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE booking_id IN (`+stale+`)`,
		models.StatusPending, cutoff.UTC(),
	); err != nil {
		return 0, wrapErr("failed to purge payments", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM bookings WHERE status = ? AND created_at < ?`,
		models.StatusPending, cutoff.UTC(),
	)
	if err != nil {
		return 0, wrapErr("failed to purge bookings", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr("failed to get affected rows", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, wrapErr("failed to commit purge", err)
	}

	if purged > 0 {
		db.logger.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("Stale pending bookings purged")
	}
	return purged, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut string
	err := row.Scan(
		&b.ID, &b.RoomID, &b.RoomName, &b.GuestName, &b.GuestEmail, &b.GuestPhone,
		&checkIn, &checkOut, &b.Guests, &b.SpecialRequests, &b.Status,
		&b.TotalAmount, &b.DepositAmount, &b.BalanceAmount, &b.DepositPaid, &b.PaymentStatus,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if b.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("invalid check_in_date %q of booking %s: %w", checkIn, b.ID, err)
	}
	if b.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("invalid check_out_date %q of booking %s: %w", checkOut, b.ID, err)
	}
	return &b, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
