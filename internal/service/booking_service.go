package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/domain"
	"guesthouse/internal/events"
	"guesthouse/internal/metrics"
	"guesthouse/internal/models"
	"guesthouse/internal/pricing"

	"github.com/rs/zerolog"
)

// modeReporter is implemented by stores that can degrade to a fallback.
type modeReporter interface {
	Mode() string
}

type BookingService struct {
	store        domain.LedgerStore
	availability *AvailabilityChecker
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	cfg          config.BookingConfig
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewBookingService(
	store domain.LedgerStore,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	cfg config.BookingConfig,
	logger *zerolog.Logger,
) *BookingService {
	if cfg.DefaultRate <= 0 {
		cfg.DefaultRate = models.DefaultNightlyRate
	}
	if cfg.StalePendingTTL <= 0 {
		cfg.StalePendingTTL = models.StalePendingHours * time.Hour
	}
	return &BookingService{
		store:        store,
		availability: NewAvailabilityChecker(store, logger),
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		cfg:          cfg,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *BookingService) CheckAvailability(ctx context.Context, roomID string, checkIn, checkOut time.Time) bool {
	return s.availability.IsAvailable(ctx, roomID, checkIn, checkOut)
}

// RoomsWithAvailability returns the catalog, each room flagged for the stay.
// Without dates every room is available.
func (s *BookingService) RoomsWithAvailability(ctx context.Context, checkIn, checkOut *time.Time) ([]*models.RoomAvailability, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	result := make([]*models.RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		available := true
		if checkIn != nil && checkOut != nil {
			available = s.availability.IsAvailable(ctx, room.ID, *checkIn, *checkOut)
		}
		result = append(result, &models.RoomAvailability{
			Room:      *room,
			Price:     room.Price(),
			Available: available,
		})
	}
	return result, nil
}

func (s *BookingService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	return s.store.FindRoom(ctx, id)
}

// Quote prices a stay without booking it.
func (s *BookingService) Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time, fareClass string) (*models.Quote, error) {
	v := domain.NewValidationError()
	if roomID == "" {
		v.Add("room_id", "room is required")
	}
	if checkIn.IsZero() || checkOut.IsZero() {
		v.Add("dates", "check-in and check-out dates are required")
	} else if !models.NormalizeDate(checkOut).After(models.NormalizeDate(checkIn)) {
		v.Add("check_out_date", "check-out date must be after check-in date")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	fareClass = pricing.NormalizeFareClass(fareClass)
	q := pricing.Quote(s.pricingTable(ctx).Rate(roomID, fareClass), checkIn, checkOut)
	q.RoomID = roomID
	q.FareClass = fareClass
	return &q, nil
}

// CreateBooking validates the request, checks availability and stores a pending
// booking priced at the room's full-board rate.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if err := ValidateBookingRequest(req, s.now(), s.cfg.AllowPastCheckIn); err != nil {
		return nil, err
	}

	checkIn := models.NormalizeDate(req.CheckIn)
	checkOut := models.NormalizeDate(req.CheckOut)

	if !s.availability.IsAvailable(ctx, req.RoomID, checkIn, checkOut) {
		metrics.IncBookingConflict()
		return nil, domain.ErrNotAvailable
	}

	q := pricing.Quote(s.pricingTable(ctx).Rate(req.RoomID, pricing.FullBoard), checkIn, checkOut)

	booking := &models.Booking{
		RoomID:          req.RoomID,
		RoomName:        s.roomName(ctx, req.RoomID),
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
		Status:          models.StatusPending,
		TotalAmount:     q.TotalAmount,
		DepositAmount:   q.DepositAmount,
		BalanceAmount:   q.BalanceAmount,
		DepositPaid:     false,
		PaymentStatus:   models.PaymentStatusPendingDeposit,
	}

	var (
		id  string
		err error
	)
	if s.cfg.LockedInsert {
		id, err = s.store.InsertBookingWithLock(ctx, booking)
	} else {
		id, err = s.store.InsertBooking(ctx, booking)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotAvailable) {
			metrics.IncBookingConflict()
			return nil, domain.ErrNotAvailable
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	booking.ID = id

	metrics.IncBookingCreated(s.mode())
	s.logger.Info().
		Str("booking_id", id).
		Str("room_id", booking.RoomID).
		Int64("total", booking.TotalAmount).
		Str("mode", s.mode()).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "")
	s.enqueueSync(ctx, booking, models.SyncTaskUpsert)

	return booking, nil
}

// SetStatus overwrites the booking status. Any of the four statuses may replace
// any other. A missing booking yields (nil, nil).
func (s *BookingService) SetStatus(ctx context.Context, bookingID, status string) (*models.Booking, error) {
	if !models.IsBookingStatus(status) {
		v := domain.NewValidationError()
		v.Add("status", "must be one of pending, confirmed, cancelled, completed")
		return nil, v
	}

	previous := ""
	if current, err := s.store.FindBooking(ctx, bookingID); err == nil && current != nil {
		previous = current.Status
	}

	booking, err := s.store.UpdateBooking(ctx, bookingID, models.BookingPatch{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	if booking == nil {
		return nil, nil
	}

	s.publishEvent(events.EventBookingStatusChanged, booking, previous)
	s.enqueueSync(ctx, booking, models.SyncTaskUpdateStatus)

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.FindBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return s.store.ListBookings(ctx, filter)
}

// PurgeStalePending deletes pending bookings older than booking.stale_pending_after.
func (s *BookingService) PurgeStalePending(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.StalePendingTTL)

	n, err := s.store.PurgeStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge stale pending: %w", err)
	}

	if n > 0 {
		s.logger.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("stale pending bookings purged")
		if s.eventBus != nil {
			if err := s.eventBus.PublishJSON(events.EventBookingsPurged, events.PurgeEventPayload{Purged: n, Cutoff: cutoff}); err != nil {
				s.logger.Error().Err(err).Str("event_type", events.EventBookingsPurged).Msg("publish event error")
			}
		}
	}
	return n, nil
}

// RunPurgeLoop purges on every tick until ctx is done. A non-positive interval
// disables the loop.
func (s *BookingService) RunPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeStalePending(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled purge failed")
			}
		}
	}
}

func (s *BookingService) pricingTable(ctx context.Context) *pricing.Table {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("room catalog unavailable, pricing at default rate")
		rooms = nil
	}
	return pricing.NewTable(rooms, s.cfg.DefaultRate)
}

func (s *BookingService) roomName(ctx context.Context, roomID string) string {
	room, err := s.store.FindRoom(ctx, roomID)
	if err != nil || room == nil {
		return ""
	}
	return room.Name
}

func (s *BookingService) mode() string {
	if m, ok := s.store.(modeReporter); ok {
		return m.Mode()
	}
	return "live"
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, previousStatus string) {
	if s.eventBus == nil {
		return
	}

	payload := events.NewBookingPayload(booking)
	payload.PreviousStatus = previousStatus

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
