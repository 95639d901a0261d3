package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"guesthouse/internal/models"
)

// RevenueTotal sums completed payments.
func (db *DB) RevenueTotal(ctx context.Context) (*models.RevenueTotal, error) {
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM payments WHERE status = ?`
	var r models.RevenueTotal
	if err := db.QueryRowContext(ctx, query, models.PaymentCompleted).Scan(&r.Total, &r.Payments); err != nil {
		return nil, wrapErr("failed to get total revenue", err)
	}
	return &r, nil
}

func (db *DB) RevenueByMethod(ctx context.Context) ([]*models.MethodRevenue, error) {
	query := `SELECT payment_method, SUM(amount) AS total
              FROM payments WHERE status = ?
              GROUP BY payment_method ORDER BY total DESC, payment_method ASC`
	rows, err := db.QueryContext(ctx, query, models.PaymentCompleted)
	if err != nil {
		return nil, wrapErr("failed to get revenue by method", err)
	}
	defer rows.Close()

	var result []*models.MethodRevenue
	for rows.Next() {
		var m models.MethodRevenue
		if err := rows.Scan(&m.Method, &m.Total); err != nil {
			return nil, wrapErr("failed to scan revenue by method", err)
		}
		result = append(result, &m)
	}
	return result, wrapErr("failed to iterate revenue by method", rows.Err())
}

func (db *DB) BookingStatsByRoom(ctx context.Context) ([]*models.RoomBookingStats, error) {
	query := `SELECT b.room_id, COALESCE(MAX(r.name), MAX(b.room_name), ''),
                     COUNT(*) AS total_bookings, COALESCE(SUM(b.total_amount), 0)
              FROM bookings b LEFT JOIN rooms r ON r.id = b.room_id
              GROUP BY b.room_id ORDER BY total_bookings DESC, b.room_id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to get booking stats", err)
	}
	defer rows.Close()

	var result []*models.RoomBookingStats
	for rows.Next() {
		var s models.RoomBookingStats
		if err := rows.Scan(&s.RoomID, &s.RoomName, &s.TotalBookings, &s.TotalRevenue); err != nil {
			return nil, wrapErr("failed to scan booking stats", err)
		}
		result = append(result, &s)
	}
	return result, wrapErr("failed to iterate booking stats", rows.Err())
}

// MonthlyTrends groups bookings by the UTC month they were created in, newest first.
func (db *DB) MonthlyTrends(ctx context.Context) ([]*models.MonthlyTrend, error) {
	query := `SELECT CAST(substr(created_at, 1, 4) AS INTEGER) AS y,
                     CAST(substr(created_at, 6, 2) AS INTEGER) AS m,
                     COUNT(*), COALESCE(SUM(total_amount), 0)
              FROM bookings GROUP BY y, m ORDER BY y DESC, m DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to get monthly trends", err)
	}
	defer rows.Close()

	var result []*models.MonthlyTrend
	for rows.Next() {
		var t models.MonthlyTrend
		if err := rows.Scan(&t.Year, &t.Month, &t.Bookings, &t.Revenue); err != nil {
			return nil, wrapErr("failed to scan monthly trend", err)
		}
		result = append(result, &t)
	}
	return result, wrapErr("failed to iterate monthly trends", rows.Err())
}

func (db *DB) PaymentStatusSummary(ctx context.Context) ([]*models.PaymentStatusSummary, error) {
	query := `SELECT payment_status, COUNT(*), COALESCE(SUM(total_amount), 0)
              FROM bookings GROUP BY payment_status ORDER BY payment_status ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to get payment status summary", err)
	}
	defer rows.Close()

	var result []*models.PaymentStatusSummary
	for rows.Next() {
		var s models.PaymentStatusSummary
		if err := rows.Scan(&s.PaymentStatus, &s.Count, &s.TotalAmount); err != nil {
			return nil, wrapErr("failed to scan payment status summary", err)
		}
		result = append(result, &s)
	}
	return result, wrapErr("failed to iterate payment status summary", rows.Err())
}

// BookingConflicts finds holding bookings of the same room with identical dates.
func (db *DB) BookingConflicts(ctx context.Context) ([]*models.BookingConflict, error) {
	query := `SELECT room_id, check_in_date, check_out_date, COUNT(*) AS cnt, GROUP_CONCAT(id, ',')
              FROM bookings WHERE status IN (` + placeholders(len(models.HoldingStatuses)) + `)
              GROUP BY room_id, check_in_date, check_out_date
              HAVING cnt > 1 ORDER BY check_in_date ASC, room_id ASC`
	args := make([]interface{}, 0, len(models.HoldingStatuses))
	for _, s := range models.HoldingStatuses {
		args = append(args, s)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to get booking conflicts", err)
	}
	defer rows.Close()

	var result []*models.BookingConflict
	for rows.Next() {
		var c models.BookingConflict
		var checkIn, checkOut, ids string
		if err := rows.Scan(&c.RoomID, &checkIn, &checkOut, &c.Count, &ids); err != nil {
			return nil, wrapErr("failed to scan booking conflict", err)
		}
		c.CheckIn, _ = time.Parse(models.DateLayout, checkIn)
		c.CheckOut, _ = time.Parse(models.DateLayout, checkOut)
		c.BookingIDs = strings.Split(ids, ",")
		result = append(result, &c)
	}
	return result, wrapErr("failed to iterate booking conflicts", rows.Err())
}

func (db *DB) BookingsWithoutPayments(ctx context.Context) ([]*models.UnpaidBooking, error) {
	query := `SELECT b.id, b.guest_name, b.guest_email, b.total_amount, b.status, b.created_at
              FROM bookings b LEFT JOIN payments p ON p.booking_id = b.id
              WHERE p.id IS NULL ORDER BY b.created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("failed to get bookings without payments", err)
	}
	defer rows.Close()

	var result []*models.UnpaidBooking
	for rows.Next() {
		var u models.UnpaidBooking
		var createdAt sql.NullTime
		if err := rows.Scan(&u.ID, &u.GuestName, &u.GuestEmail, &u.TotalAmount, &u.Status, &createdAt); err != nil {
			return nil, wrapErr("failed to scan unpaid booking", err)
		}
		u.CreatedAt = createdAt.Time
		result = append(result, &u)
	}
	return result, wrapErr("failed to iterate unpaid bookings", rows.Err())
}
