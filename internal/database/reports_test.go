package database

import (
	"context"
	"testing"
	"time"

	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReportData(t *testing.T, db *DB) (ids []string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.SyncRooms(ctx, catalog()))

	created := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		newBooking(t, "1", "2025-06-10", "2025-06-12", models.StatusConfirmed),
		newBooking(t, "1", "2025-06-10", "2025-06-12", models.StatusPending),
		newBooking(t, "2", "2025-07-01", "2025-07-02", models.StatusCancelled),
	}
	bookings[0].TotalAmount = 7000
	bookings[1].TotalAmount = 7000
	bookings[2].TotalAmount = 4300
	bookings[2].PaymentStatus = models.PaymentStatusFullyPaid
	bookings[0].CreatedAt = created
	bookings[1].CreatedAt = created.Add(time.Hour)
	bookings[2].CreatedAt = created.AddDate(0, 1, 0)

	for _, b := range bookings {
		id, err := db.InsertBooking(ctx, b)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	payments := []*models.Payment{
		{BookingID: ids[0], Amount: 3500, PaymentType: models.PaymentTypeDeposit, PaymentMethod: models.PaymentMethodMpesa, Status: models.PaymentCompleted},
		{BookingID: ids[2], Amount: 4300, PaymentType: models.PaymentTypeFull, PaymentMethod: models.PaymentMethodBankTransfer, Status: models.PaymentCompleted},
		{BookingID: ids[2], Amount: 100, PaymentType: models.PaymentTypeBalance, PaymentMethod: models.PaymentMethodCash, Status: models.PaymentPending},
	}
	for _, p := range payments {
		_, err := db.InsertPayment(ctx, p)
		require.NoError(t, err)
	}
	return ids
}

func TestReports(t *testing.T) {
	db := setupTestDB(t)
	ids := seedReportData(t, db)
	ctx := context.Background()

	t.Run("RevenueTotal", func(t *testing.T) {
		r, err := db.RevenueTotal(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7800), r.Total)
		assert.Equal(t, int64(2), r.Payments)
	})

	t.Run("RevenueByMethod", func(t *testing.T) {
		r, err := db.RevenueByMethod(ctx)
		require.NoError(t, err)
		require.Len(t, r, 2)
		assert.Equal(t, models.PaymentMethodBankTransfer, r[0].Method)
		assert.Equal(t, int64(4300), r[0].Total)
		assert.Equal(t, models.PaymentMethodMpesa, r[1].Method)
	})

	t.Run("BookingStatsByRoom", func(t *testing.T) {
		r, err := db.BookingStatsByRoom(ctx)
		require.NoError(t, err)
		require.Len(t, r, 2)
		assert.Equal(t, "1", r[0].RoomID)
		assert.Equal(t, "Single Room", r[0].RoomName)
		assert.Equal(t, int64(2), r[0].TotalBookings)
		assert.Equal(t, int64(14000), r[0].TotalRevenue)
	})

	t.Run("MonthlyTrends", func(t *testing.T) {
		r, err := db.MonthlyTrends(ctx)
		require.NoError(t, err)
		require.Len(t, r, 2)
		assert.Equal(t, 2025, r[0].Year)
		assert.Equal(t, 6, r[0].Month)
		assert.Equal(t, int64(1), r[0].Bookings)
		assert.Equal(t, 5, r[1].Month)
		assert.Equal(t, int64(14000), r[1].Revenue)
	})

	t.Run("PaymentStatusSummary", func(t *testing.T) {
		r, err := db.PaymentStatusSummary(ctx)
		require.NoError(t, err)
		require.Len(t, r, 2)
		assert.Equal(t, models.PaymentStatusFullyPaid, r[0].PaymentStatus)
		assert.Equal(t, int64(1), r[0].Count)
		assert.Equal(t, models.PaymentStatusPendingDeposit, r[1].PaymentStatus)
		assert.Equal(t, int64(2), r[1].Count)
	})

	t.Run("BookingConflicts", func(t *testing.T) {
		r, err := db.BookingConflicts(ctx)
		require.NoError(t, err)
		require.Len(t, r, 1)
		assert.Equal(t, "1", r[0].RoomID)
		assert.Equal(t, int64(2), r[0].Count)
		assert.ElementsMatch(t, ids[:2], r[0].BookingIDs)
		assert.Equal(t, mustDate(t, "2025-06-10"), r[0].CheckIn)
	})

	t.Run("BookingsWithoutPayments", func(t *testing.T) {
		r, err := db.BookingsWithoutPayments(ctx)
		require.NoError(t, err)
		require.Len(t, r, 1)
		assert.Equal(t, ids[1], r[0].ID)
		assert.Equal(t, int64(7000), r[0].TotalAmount)
	})
}

func TestReports_Empty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	total, err := db.RevenueTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total.Total)

	conflicts, err := db.BookingConflicts(ctx)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}
