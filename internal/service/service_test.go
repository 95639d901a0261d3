package service

import (
	"context"
	"io"
	"testing"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"
	"guesthouse/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	return m.Called(ctx, taskType, booking).Error(0)
}

// failingStore reports every overlap lookup as failed.
type failingStore struct {
	domain.LedgerStore
}

func (failingStore) FindBookingsOverlapping(context.Context, string, time.Time, time.Time, []string) ([]*models.Booking, error) {
	return nil, domain.ErrStoreUnreachable
}

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return d
}

// fixedNow is the clock of every service under test.
func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
}

func seedBooking(t *testing.T, store *repository.MemoryStore, roomID, in, out, status string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		RoomID:        roomID,
		GuestName:     "Achieng",
		GuestEmail:    "achieng@example.com",
		GuestPhone:    "+254 700 000 000",
		CheckIn:       day(t, in),
		CheckOut:      day(t, out),
		Guests:        1,
		Status:        status,
		TotalAmount:   17500,
		DepositAmount: 8750,
		BalanceAmount: 8750,
		PaymentStatus: models.PaymentStatusPendingDeposit,
	}
	id, err := store.InsertBooking(context.Background(), b)
	require.NoError(t, err)
	b.ID = id
	return b
}

func validRequest(t *testing.T, roomID, in, out string) models.BookingRequest {
	t.Helper()
	return models.BookingRequest{
		RoomID:     roomID,
		GuestName:  "Kamau Njoroge",
		GuestEmail: "kamau@example.com",
		GuestPhone: "+254 (712) 345-678",
		CheckIn:    day(t, in),
		CheckOut:   day(t, out),
		Guests:     2,
	}
}
