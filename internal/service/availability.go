package service

import (
	"context"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityChecker answers whether a room is free for a stay.
type AvailabilityChecker struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewAvailabilityChecker(store domain.Store, logger *zerolog.Logger) *AvailabilityChecker {
	return &AvailabilityChecker{store: store, logger: logger}
}

// IsAvailable reports whether no pending or confirmed booking of roomID shares a
// night with [checkIn, checkOut). Only the calendar dates are compared, so a stay
// may start on the day another one ends.
//
// A failed lookup counts as available: the guest is not blocked by an outage and
// staff resolve any double booking afterwards.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time) bool {
	start := models.NormalizeDate(checkIn)
	end := models.NormalizeDate(checkOut)

	bookings, err := c.store.FindBookingsOverlapping(ctx, roomID, start, end, models.HoldingStatuses)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("room_id", roomID).
			Str("check_in", start.Format(models.DateLayout)).
			Str("check_out", end.Format(models.DateLayout)).
			Msg("availability lookup failed, treating room as available")
		return true
	}

	for _, b := range bookings {
		if b.Holds() && models.RangesOverlap(b.CheckIn, b.CheckOut, start, end) {
			return false
		}
	}
	return true
}
