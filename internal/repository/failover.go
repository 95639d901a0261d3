package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/metrics"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
)

const (
	ModeLive     = "live"
	ModeFallback = "fallback"
)

// FailoverStore routes every call to the live store until it reports
// domain.ErrStoreUnreachable, then serves from the fallback store and probes
// the live store at most once per recovery interval.
type FailoverStore struct {
	primary          domain.LedgerStore
	fallback         domain.LedgerStore
	logger           *zerolog.Logger
	recoveryInterval time.Duration

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

var _ domain.LedgerStore = (*FailoverStore)(nil)

func NewFailoverStore(
	primary, fallback domain.LedgerStore, recoveryInterval time.Duration, logger *zerolog.Logger,
) *FailoverStore {
	if recoveryInterval <= 0 {
		recoveryInterval = time.Minute
	}
	return &FailoverStore{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: recoveryInterval,
	}
}

// Mode reports which store currently serves requests.
func (s *FailoverStore) Mode() string {
	if s.isDown.Load() {
		return ModeFallback
	}
	return ModeLive
}

// live decides whether the primary should be tried, probing it when the
// recovery interval has elapsed.
func (s *FailoverStore) live(ctx context.Context) bool {
	if !s.isDown.Load() {
		return true
	}

	s.mu.Lock()
	if time.Since(s.lastCheck) < s.recoveryInterval {
		s.mu.Unlock()
		return false
	}
	s.lastCheck = time.Now()
	s.mu.Unlock()

	if !s.primary.IsReachable(ctx) {
		return false
	}
	s.isDown.Store(false)
	metrics.SetStoreLive(true)
	s.logger.Info().Msg("Live store recovered, leaving fallback mode")
	return true
}

func (s *FailoverStore) markDown(op string, err error) {
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()

	if !s.isDown.Swap(true) {
		metrics.SetStoreLive(false)
		s.logger.Error().Err(err).Str("operation", op).Msg("Live store unreachable, falling back to memory")
	}
}

func route[T any](
	ctx context.Context, s *FailoverStore, op string,
	primary func(domain.LedgerStore) (T, error),
) (T, error) {
	if s.live(ctx) {
		v, err := primary(s.primary)
		if err == nil || !errors.Is(err, domain.ErrStoreUnreachable) {
			return v, err
		}
		s.markDown(op, err)
	}
	metrics.IncStoreFallback(op)
	return primary(s.fallback)
}

func (s *FailoverStore) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	return route(ctx, s, "find_room", func(st domain.LedgerStore) (*models.Room, error) {
		room, err := st.FindRoom(ctx, id)
		if err != nil || room != nil || st == s.fallback {
			return room, err
		}
		// пустой каталог в живой базе, отдаем резервный
		rooms, err := st.ListRooms(ctx)
		if err != nil {
			return nil, err
		}
		if len(rooms) == 0 {
			return s.fallback.FindRoom(ctx, id)
		}
		return nil, nil
	})
}

func (s *FailoverStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	return route(ctx, s, "list_rooms", func(st domain.LedgerStore) ([]*models.Room, error) {
		rooms, err := st.ListRooms(ctx)
		if err != nil || len(rooms) > 0 || st == s.fallback {
			return rooms, err
		}
		s.logger.Warn().Msg("Live room catalog is empty, serving fallback catalog")
		metrics.IncStoreFallback("list_rooms")
		return s.fallback.ListRooms(ctx)
	})
}

func (s *FailoverStore) FindBookingsOverlapping(
	ctx context.Context, roomID string, start, end time.Time, statuses []string,
) ([]*models.Booking, error) {
	return route(ctx, s, "find_overlapping", func(st domain.LedgerStore) ([]*models.Booking, error) {
		return st.FindBookingsOverlapping(ctx, roomID, start, end, statuses)
	})
}

func (s *FailoverStore) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	return route(ctx, s, "find_booking", func(st domain.LedgerStore) (*models.Booking, error) {
		return st.FindBooking(ctx, id)
	})
}

func (s *FailoverStore) InsertBooking(ctx context.Context, booking *models.Booking) (string, error) {
	return route(ctx, s, "insert_booking", func(st domain.LedgerStore) (string, error) {
		return st.InsertBooking(ctx, booking)
	})
}

func (s *FailoverStore) InsertBookingWithLock(ctx context.Context, booking *models.Booking) (string, error) {
	return route(ctx, s, "insert_booking_locked", func(st domain.LedgerStore) (string, error) {
		return st.InsertBookingWithLock(ctx, booking)
	})
}

func (s *FailoverStore) UpdateBooking(ctx context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	return route(ctx, s, "update_booking", func(st domain.LedgerStore) (*models.Booking, error) {
		return st.UpdateBooking(ctx, id, patch)
	})
}

func (s *FailoverStore) FindPayment(ctx context.Context, id string) (*models.Payment, error) {
	return route(ctx, s, "find_payment", func(st domain.LedgerStore) (*models.Payment, error) {
		return st.FindPayment(ctx, id)
	})
}

func (s *FailoverStore) InsertPayment(ctx context.Context, payment *models.Payment) (string, error) {
	return route(ctx, s, "insert_payment", func(st domain.LedgerStore) (string, error) {
		return st.InsertPayment(ctx, payment)
	})
}

func (s *FailoverStore) UpdatePayment(ctx context.Context, id string, patch models.PaymentPatch) (*models.Payment, error) {
	return route(ctx, s, "update_payment", func(st domain.LedgerStore) (*models.Payment, error) {
		return st.UpdatePayment(ctx, id, patch)
	})
}

func (s *FailoverStore) FindPaymentsByBooking(ctx context.Context, bookingID string) ([]*models.Payment, error) {
	return route(ctx, s, "find_payments", func(st domain.LedgerStore) ([]*models.Payment, error) {
		return st.FindPaymentsByBooking(ctx, bookingID)
	})
}

func (s *FailoverStore) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return route(ctx, s, "list_bookings", func(st domain.LedgerStore) ([]*models.Booking, error) {
		return st.ListBookings(ctx, filter)
	})
}

func (s *FailoverStore) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	return route(ctx, s, "list_payments", func(st domain.LedgerStore) ([]*models.Payment, error) {
		return st.ListPayments(ctx)
	})
}

func (s *FailoverStore) PurgeStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	return route(ctx, s, "purge_stale", func(st domain.LedgerStore) (int64, error) {
		return st.PurgeStalePending(ctx, cutoff)
	})
}

// IsReachable is true while either store can serve requests.
func (s *FailoverStore) IsReachable(ctx context.Context) bool {
	return s.live(ctx) || s.fallback.IsReachable(ctx)
}
