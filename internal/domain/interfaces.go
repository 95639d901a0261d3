package domain

import (
	"context"
	"time"

	"guesthouse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Store is the persistence contract of the booking funnel. Lookups of a missing
// record return (nil, nil). Implementations report connectivity loss with
// ErrStoreUnreachable so callers can switch to fallback mode.
type Store interface {
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	// ListRooms returns the catalog ordered by full-board price.
	ListRooms(ctx context.Context) ([]*models.Room, error)
	// FindBookingsOverlapping returns bookings of roomID in one of statuses whose
	// [check_in, check_out) range overlaps [start, end).
	FindBookingsOverlapping(ctx context.Context, roomID string, start, end time.Time, statuses []string) ([]*models.Booking, error)
	FindBooking(ctx context.Context, id string) (*models.Booking, error)
	InsertBooking(ctx context.Context, booking *models.Booking) (string, error)
	// InsertBookingWithLock performs the overlap check and the insert atomically and
	// returns ErrNotAvailable on conflict.
	InsertBookingWithLock(ctx context.Context, booking *models.Booking) (string, error)
	UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error)
	FindPayment(ctx context.Context, id string) (*models.Payment, error)
	InsertPayment(ctx context.Context, payment *models.Payment) (string, error)
	UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) (*models.Payment, error)
	FindPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)
	IsReachable(ctx context.Context) bool
}

// LedgerStore adds the back-office queries used by staff endpoints.
type LedgerStore interface {
	Store
	// ListBookings returns bookings newest first.
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	// ListPayments returns payments newest first.
	ListPayments(ctx context.Context) ([]*models.Payment, error)
	// PurgeStalePending deletes pending bookings created before cutoff.
	PurgeStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// RoomCatalog edits the persistent room catalog.
type RoomCatalog interface {
	UpsertRoom(ctx context.Context, room models.Room) (*models.Room, error)
	// DeleteRoom reports false for an unknown room and ErrRoomInUse while the
	// room still has holding bookings.
	DeleteRoom(ctx context.Context, id string) (bool, error)
}

// RoomCacheInvalidator drops a cached copy of the catalog.
type RoomCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReportStore answers the analytics queries of the admin reports.
type ReportStore interface {
	RevenueTotal(ctx context.Context) (*models.RevenueTotal, error)
	RevenueByMethod(ctx context.Context) ([]*models.MethodRevenue, error)
	BookingStatsByRoom(ctx context.Context) ([]*models.RoomBookingStats, error)
	MonthlyTrends(ctx context.Context) ([]*models.MonthlyTrend, error)
	PaymentStatusSummary(ctx context.Context) ([]*models.PaymentStatusSummary, error)
	BookingConflicts(ctx context.Context) ([]*models.BookingConflict, error)
	BookingsWithoutPayments(ctx context.Context) ([]*models.UnpaidBooking, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
	UpdateBookingStatus(ctx context.Context, booking *models.Booking) error
}

type BookingService interface {
	CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) bool
	RoomsWithAvailability(ctx context.Context, checkIn, checkOut *time.Time) ([]*models.RoomAvailability, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time, fareClass string) (*models.Quote, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	SetStatus(ctx context.Context, bookingID, status string) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	PurgeStalePending(ctx context.Context) (int64, error)
}

type PaymentService interface {
	RecordPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID, status string) (*models.Payment, error)
	Reconcile(ctx context.Context, bookingID string) (*models.Booking, error)
	PaymentsForBooking(ctx context.Context, bookingID string) ([]*models.Payment, error)
	ListPayments(ctx context.Context) ([]*models.Payment, error)
}
