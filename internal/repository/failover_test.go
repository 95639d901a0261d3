package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockStore mocks the calls a test expects; anything else hits the nil
// embedded interface and panics.
type mockStore struct {
	mock.Mock
	domain.LedgerStore
}

func (m *mockStore) ListRooms(ctx context.Context) ([]*models.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Room), args.Error(1)
}

func (m *mockStore) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Room), args.Error(1)
}

func (m *mockStore) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockStore) InsertBooking(ctx context.Context, b *models.Booking) (string, error) {
	args := m.Called(ctx, b)
	return args.String(0), args.Error(1)
}

func (m *mockStore) IsReachable(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

var errDown = fmt.Errorf("ping: %w", domain.ErrStoreUnreachable)

func newFailover(primary *mockStore) (*FailoverStore, *MemoryStore) {
	logger := zerolog.New(io.Discard)
	fallback := NewMemoryStore()
	return NewFailoverStore(primary, fallback, time.Minute, &logger), fallback
}

func TestFailoverStore(t *testing.T) {
	ctx := context.Background()
	primary := new(mockStore)
	store, fallback := newFailover(primary)

	t.Run("PrimarySuccess", func(t *testing.T) {
		b := &models.Booking{ID: "live-1"}
		primary.On("FindBooking", ctx, "live-1").Return(b, nil).Once()

		got, err := store.FindBooking(ctx, "live-1")
		require.NoError(t, err)
		assert.Equal(t, b, got)
		assert.Equal(t, ModeLive, store.Mode())
	})

	t.Run("UnexpectedErrorPassesThrough", func(t *testing.T) {
		primary.On("FindBooking", ctx, "broken").Return(nil, errors.New("syntax error")).Once()

		_, err := store.FindBooking(ctx, "broken")
		assert.EqualError(t, err, "syntax error")
		assert.Equal(t, ModeLive, store.Mode())
	})

	t.Run("UnreachableSwitchesToFallback", func(t *testing.T) {
		b := &models.Booking{RoomID: "1", Status: models.StatusPending}
		primary.On("InsertBooking", ctx, b).Return("", errDown).Once()

		id, err := store.InsertBooking(ctx, b)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.Equal(t, ModeFallback, store.Mode())

		stored, _ := fallback.FindBooking(ctx, id)
		assert.NotNil(t, stored)
	})

	t.Run("FallbackWithinRecoveryInterval", func(t *testing.T) {
		rooms, err := store.ListRooms(ctx)
		require.NoError(t, err)
		assert.Len(t, rooms, 3)
		primary.AssertNotCalled(t, "ListRooms", ctx)
		primary.AssertNotCalled(t, "IsReachable", ctx)
	})

	t.Run("ProbeFailsStaysDown", func(t *testing.T) {
		store.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("IsReachable", ctx).Return(false).Once()

		_, err := store.ListRooms(ctx)
		require.NoError(t, err)
		assert.Equal(t, ModeFallback, store.Mode())
	})

	t.Run("Recovery", func(t *testing.T) {
		store.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("IsReachable", ctx).Return(true).Once()
		live := []*models.Room{{ID: "live", Name: "Live Room", FullBoard: 1}}
		primary.On("ListRooms", ctx).Return(live, nil).Once()

		rooms, err := store.ListRooms(ctx)
		require.NoError(t, err)
		assert.Equal(t, live, rooms)
		assert.Equal(t, ModeLive, store.Mode())
	})

	primary.AssertExpectations(t)
}

func TestFailoverStore_EmptyCatalog(t *testing.T) {
	ctx := context.Background()
	primary := new(mockStore)
	store, _ := newFailover(primary)

	primary.On("ListRooms", ctx).Return([]*models.Room{}, nil)
	primary.On("FindRoom", ctx, "1").Return(nil, nil)

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 3)
	assert.Equal(t, ModeLive, store.Mode())

	room, err := store.FindRoom(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "Single Room", room.Name)
}

func TestFailoverStore_UnknownRoomInLiveCatalog(t *testing.T) {
	ctx := context.Background()
	primary := new(mockStore)
	store, _ := newFailover(primary)

	primary.On("FindRoom", ctx, "1").Return(nil, nil)
	primary.On("ListRooms", ctx).Return([]*models.Room{{ID: "9"}}, nil)

	room, err := store.FindRoom(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestFailoverStore_IsReachable(t *testing.T) {
	ctx := context.Background()
	primary := new(mockStore)
	store, _ := newFailover(primary)

	assert.True(t, store.IsReachable(ctx))

	store.markDown("test", errDown)
	assert.True(t, store.IsReachable(ctx), "fallback keeps serving")
	assert.Equal(t, ModeFallback, store.Mode())
}
