package service

import (
	"context"
	"errors"
	"testing"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) UpsertRoom(ctx context.Context, room models.Room) (*models.Room, error) {
	args := m.Called(room)
	if r, ok := args.Get(0).(*models.Room); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCatalog) DeleteRoom(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Invalidate(ctx context.Context) error {
	return m.Called().Error(0)
}

func TestRoomService_SaveRoom(t *testing.T) {
	ctx := context.Background()
	catalog := new(mockCatalog)
	cache := new(mockCache)
	svc := NewRoomService(catalog, cache, nopLogger())

	catalog.On("UpsertRoom", mock.MatchedBy(func(r models.Room) bool {
		return r.ID == "4" && r.Name == "Garden Cottage"
	})).Return(&models.Room{ID: "4", Name: "Garden Cottage", Capacity: 4, FullBoard: 6000}, nil).Once()
	cache.On("Invalidate").Return(errors.New("redis down")).Once()

	room, err := svc.SaveRoom(ctx, " 4 ", models.Room{ID: "ignored", Name: " Garden Cottage ", Capacity: 4, FullBoard: 6000})
	require.NoError(t, err)
	assert.Equal(t, "4", room.ID)

	_, err = svc.SaveRoom(ctx, "5", models.Room{Name: "Loft", Capacity: 0, FullBoard: -1})
	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "capacity")
	assert.Contains(t, verr.Fields, "rates")

	catalog.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestRoomService_DeleteRoom(t *testing.T) {
	ctx := context.Background()
	catalog := new(mockCatalog)
	cache := new(mockCache)
	svc := NewRoomService(catalog, cache, nopLogger())

	catalog.On("DeleteRoom", "4").Return(true, nil).Once()
	catalog.On("DeleteRoom", "missing").Return(false, nil).Once()
	catalog.On("DeleteRoom", "2").Return(false, domain.ErrRoomInUse).Once()
	cache.On("Invalidate").Return(nil).Once()

	deleted, err := svc.DeleteRoom(ctx, "4")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteRoom(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.DeleteRoom(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrRoomInUse)

	// invalidated only after the real delete
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
	catalog.AssertExpectations(t)
}

func TestRoomService_NoCache(t *testing.T) {
	catalog := new(mockCatalog)
	catalog.On("DeleteRoom", "4").Return(true, nil).Once()

	deleted, err := NewRoomService(catalog, nil, nopLogger()).DeleteRoom(context.Background(), "4")
	require.NoError(t, err)
	assert.True(t, deleted)
}
