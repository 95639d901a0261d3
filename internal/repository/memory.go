package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is a process-local domain.LedgerStore. It serves the fallback
// catalog and absorbs writes while the live store is unreachable; nothing it
// holds is shared between processes or survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]*models.Room
	bookings []*models.Booking
	payments []*models.Payment
	now      func() time.Time
}

var _ domain.LedgerStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with rooms, or with the fixed fallback
// catalog when rooms is empty.
func NewMemoryStore(rooms ...*models.Room) *MemoryStore {
	if len(rooms) == 0 {
		rooms = models.FallbackRooms()
	}
	s := &MemoryStore{
		rooms: make(map[string]*models.Room, len(rooms)),
		now:   time.Now,
	}
	for _, r := range rooms {
		room := *r
		s.rooms[room.ID] = &room
	}
	return s
}

func (s *MemoryStore) FindRoom(_ context.Context, id string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		cp := *r
		rooms = append(rooms, &cp)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Price() != rooms[j].Price() {
			return rooms[i].Price() < rooms[j].Price()
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

func (s *MemoryStore) FindBookingsOverlapping(
	_ context.Context, roomID string, start, end time.Time, statuses []string,
) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlappingLocked(roomID, start, end, statuses), nil
}

func (s *MemoryStore) overlappingLocked(roomID string, start, end time.Time, statuses []string) []*models.Booking {
	var result []*models.Booking
	for _, b := range s.bookings {
		if b.RoomID != roomID || !hasStatus(statuses, b.Status) {
			continue
		}
		if models.RangesOverlap(b.CheckIn, b.CheckOut, start, end) {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CheckIn.Before(result[j].CheckIn)
	})
	return result
}

func (s *MemoryStore) FindBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b := s.bookingLocked(id); b != nil {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) InsertBooking(_ context.Context, booking *models.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertBookingLocked(booking), nil
}

// InsertBookingWithLock checks and inserts under the store mutex.
func (s *MemoryStore) InsertBookingWithLock(_ context.Context, booking *models.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.overlappingLocked(booking.RoomID, booking.CheckIn, booking.CheckOut, models.HoldingStatuses)) > 0 {
		return "", domain.ErrNotAvailable
	}
	return s.insertBookingLocked(booking), nil
}

func (s *MemoryStore) insertBookingLocked(booking *models.Booking) string {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = s.now()
	}
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = booking.CreatedAt
	}
	booking.CheckIn = models.NormalizeDate(booking.CheckIn)
	booking.CheckOut = models.NormalizeDate(booking.CheckOut)

	cp := *booking
	s.bookings = append(s.bookings, &cp)
	return booking.ID
}

func (s *MemoryStore) UpdateBooking(_ context.Context, id string, patch models.BookingPatch) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bookingLocked(id)
	if b == nil {
		return nil, nil
	}
	patch.Apply(b)
	b.UpdatedAt = s.now()
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) FindPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p := s.paymentLocked(id); p != nil {
		return copyPayment(p), nil
	}
	return nil, nil
}

func (s *MemoryStore) InsertPayment(_ context.Context, payment *models.Payment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = s.now()
	}
	if payment.UpdatedAt.IsZero() {
		payment.UpdatedAt = payment.CreatedAt
	}
	s.payments = append(s.payments, copyPayment(payment))
	return payment.ID, nil
}

func (s *MemoryStore) UpdatePayment(_ context.Context, id string, patch models.PaymentPatch) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.paymentLocked(id)
	if p == nil {
		return nil, nil
	}
	patch.Apply(p)
	p.UpdatedAt = s.now()
	return copyPayment(p), nil
}

// FindPaymentsByBooking returns the payments of a booking in insertion order.
func (s *MemoryStore) FindPaymentsByBooking(_ context.Context, bookingID string) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Payment
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			result = append(result, copyPayment(p))
		}
	}
	return result, nil
}

func (s *MemoryStore) IsReachable(context.Context) bool {
	return true
}

func (s *MemoryStore) ListBookings(_ context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := models.NormalizeDate(filter.From)
	to := models.NormalizeDate(filter.To)

	var result []*models.Booking
	// newest first: walk insertion order backwards
	for i := len(s.bookings) - 1; i >= 0; i-- {
		b := s.bookings[i]
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, b.Status) {
			continue
		}
		if !filter.From.IsZero() && b.CheckIn.Before(from) {
			continue
		}
		if !filter.To.IsZero() && b.CheckIn.After(to) {
			continue
		}
		cp := *b
		result = append(result, &cp)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryStore) ListPayments(_ context.Context) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Payment, 0, len(s.payments))
	for i := len(s.payments) - 1; i >= 0; i-- {
		result = append(result, copyPayment(s.payments[i]))
	}
	return result, nil
}

func (s *MemoryStore) PurgeStalePending(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := make(map[string]bool)
	kept := s.bookings[:0]
	for _, b := range s.bookings {
		if b.Status == models.StatusPending && b.CreatedAt.Before(cutoff) {
			purged[b.ID] = true
			continue
		}
		kept = append(kept, b)
	}
	s.bookings = kept

	if len(purged) > 0 {
		keptPayments := s.payments[:0]
		for _, p := range s.payments {
			if !purged[p.BookingID] {
				keptPayments = append(keptPayments, p)
			}
		}
		s.payments = keptPayments
	}
	return int64(len(purged)), nil
}

func (s *MemoryStore) bookingLocked(id string) *models.Booking {
	for _, b := range s.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func (s *MemoryStore) paymentLocked(id string) *models.Payment {
	for _, p := range s.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func copyPayment(p *models.Payment) *models.Payment {
	cp := *p
	if p.PaidAt != nil {
		t := *p.PaidAt
		cp.PaidAt = &t
	}
	return &cp
}

func hasStatus(statuses []string, status string) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
