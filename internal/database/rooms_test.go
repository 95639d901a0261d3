package database

import (
	"context"
	"testing"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []models.Room {
	var rooms []models.Room
	for _, r := range models.FallbackRooms() {
		rooms = append(rooms, *r)
	}
	return rooms
}

func TestSyncRooms(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rooms, err := db.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	require.NoError(t, db.SyncRooms(ctx, catalog()))

	rooms, err = db.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	// cheapest full board first
	assert.Equal(t, "1", rooms[0].ID)
	assert.Equal(t, "2", rooms[1].ID)
	assert.Equal(t, "3", rooms[2].ID)
	assert.NotEmpty(t, rooms[0].Amenities)

	t.Run("UpsertUpdatesRates", func(t *testing.T) {
		updated := catalog()
		updated[0].FullBoard = 9000
		require.NoError(t, db.SyncRooms(ctx, updated[:1]))

		room, err := db.FindRoom(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, room)
		assert.Equal(t, int64(9000), room.FullBoard)
		assert.Equal(t, int64(9000), room.Price())

		rooms, err := db.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 3)
		assert.Equal(t, "1", rooms[2].ID)
	})

	t.Run("NilAmenities", func(t *testing.T) {
		require.NoError(t, db.SyncRooms(ctx, []models.Room{{ID: "9", Name: "Annex", Capacity: 2, FullBoard: 100}}))
		room, err := db.FindRoom(ctx, "9")
		require.NoError(t, err)
		require.NotNil(t, room)
		assert.Empty(t, room.Amenities)
	})
}

func TestFindRoom_NotFound(t *testing.T) {
	db := setupTestDB(t)

	room, err := db.FindRoom(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, room)
}

func TestUpsertAndDeleteRoom(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SyncRooms(ctx, catalog()))

	room, err := db.UpsertRoom(ctx, models.Room{ID: "4", Name: "Garden Cottage", Capacity: 4, FullBoard: 6000, BB: 4000})
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "Garden Cottage", room.Name)
	assert.Empty(t, room.Amenities)

	held := newBooking(t, "2", "2025-06-10", "2025-06-15", models.StatusConfirmed)
	_, err = db.InsertBooking(ctx, held)
	require.NoError(t, err)

	t.Run("HeldRoomIsKept", func(t *testing.T) {
		deleted, err := db.DeleteRoom(ctx, "2")
		assert.ErrorIs(t, err, domain.ErrRoomInUse)
		assert.False(t, deleted)

		room, err := db.FindRoom(ctx, "2")
		require.NoError(t, err)
		assert.NotNil(t, room)
	})

	t.Run("FreeRoomIsRemoved", func(t *testing.T) {
		deleted, err := db.DeleteRoom(ctx, "4")
		require.NoError(t, err)
		assert.True(t, deleted)

		room, err := db.FindRoom(ctx, "4")
		require.NoError(t, err)
		assert.Nil(t, room)
	})

	t.Run("UnknownRoom", func(t *testing.T) {
		deleted, err := db.DeleteRoom(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
