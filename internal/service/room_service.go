package service

import (
	"context"
	"strings"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
)

// RoomService edits the persistent catalog. The fallback catalog served while
// the store is unreachable is the configured one and is not touched here.
type RoomService struct {
	catalog domain.RoomCatalog
	cache   domain.RoomCacheInvalidator
	logger  *zerolog.Logger
}

// NewRoomService builds the service. cache may be nil when Redis is off.
func NewRoomService(catalog domain.RoomCatalog, cache domain.RoomCacheInvalidator, logger *zerolog.Logger) *RoomService {
	return &RoomService{catalog: catalog, cache: cache, logger: logger}
}

// SaveRoom creates or replaces the room with the given id.
func (s *RoomService) SaveRoom(ctx context.Context, id string, room models.Room) (*models.Room, error) {
	room.ID = strings.TrimSpace(id)
	room.Name = strings.TrimSpace(room.Name)
	if err := ValidateRoom(room); err != nil {
		return nil, err
	}

	saved, err := s.catalog.UpsertRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info().Str("room_id", room.ID).Int64("full_board", room.FullBoard).Msg("room saved")
	return saved, nil
}

// DeleteRoom removes a room. It reports false for an unknown id and
// domain.ErrRoomInUse while pending or confirmed bookings hold the room.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) (bool, error) {
	deleted, err := s.catalog.DeleteRoom(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.invalidate(ctx)
		s.logger.Info().Str("room_id", id).Msg("room deleted")
	}
	return deleted, nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("rooms cache invalidation failed")
	}
}
