package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"guesthouse/internal/models"

	"github.com/google/uuid"
)

const paymentColumns = `id, booking_id, amount, payment_type, payment_method, payment_reference,
        status, paid_at, created_at, updated_at`

func (db *DB) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	payment, err := scanPayment(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to get payment", err)
	}
	return payment, nil
}

func (db *DB) InsertPayment(ctx context.Context, payment *models.Payment) (string, error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = payment.CreatedAt
	}

	query := `INSERT INTO payments (` + paymentColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.PaymentType,
		payment.PaymentMethod,
		payment.PaymentReference,
		payment.Status,
		utcOrNil(payment.PaidAt),
		payment.CreatedAt.UTC(),
		payment.UpdatedAt.UTC(),
	)
	if err != nil {
		return "", wrapErr("failed to create payment", err)
	}
	return payment.ID, nil
}

// UpdatePayment overwrites the patched fields and returns the stored payment,
// or nil when id is unknown.
func (db *DB) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) (*models.Payment, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.PaidAt != nil {
		sets = append(sets, "paid_at = ?")
		args = append(args, patch.PaidAt.UTC())
	}
	args = append(args, id)

	query := `UPDATE payments SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to update payment", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, wrapErr("failed to get affected rows", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return db.FindPayment(ctx, id)
}

// FindPaymentsByBooking returns the payments of a booking oldest first.
func (db *DB) FindPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = ? ORDER BY created_at ASC, id ASC`
	return db.queryPayments(ctx, "failed to get booking payments", query, bookingID)
}

// ListPayments returns every payment newest first.
func (db *DB) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC, id ASC`
	return db.queryPayments(ctx, "failed to list payments", query)
}

func (db *DB) queryPayments(ctx context.Context, op, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, wrapErr("failed to scan payment", err)
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var paidAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.BookingID, &p.Amount, &p.PaymentType, &p.PaymentMethod, &p.PaymentReference,
		&p.Status, &paidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return &p, nil
}

func utcOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
