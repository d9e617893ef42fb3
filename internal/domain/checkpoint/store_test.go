package checkpoint

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAll(ctx context.Context, sessionID string) (map[string]string, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, sessionID, entityType string) (string, bool, error) {
	args := m.Called(ctx, sessionID, entityType)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockRepository) SetMany(ctx context.Context, sessionID string, values map[string]string) error {
	args := m.Called(ctx, sessionID, values)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, sessionID string, entityTypes []string) error {
	args := m.Called(ctx, sessionID, entityTypes)
	return args.Error(0)
}

func (m *MockRepository) DeleteAll(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStoreGetAll(t *testing.T) {
	stored := time.Date(2024, 5, 20, 9, 30, 15, 0, time.UTC)
	value := Checkpoint{Cursor: "evt_42", StoredAt: stored}.Value()

	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, "sess-1").
		Return(map[string]string{"AssetV1": value}, nil)

	store := NewStore(repo, testLogger())
	got, err := store.GetAll(context.Background(), "sess-1")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "sess-1", got[0].SessionID)
	assert.Equal(t, "AssetV1", got[0].EntityType)
	assert.Equal(t, "evt_42", got[0].Cursor)
}

func TestStoreGetAll_CorruptedValue(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAll", mock.Anything, "sess-1").
		Return(map[string]string{"AssetV1": "garbage"}, nil)

	store := NewStore(repo, testLogger())
	_, err := store.GetAll(context.Background(), "sess-1")
	assert.ErrorIs(t, err, ErrCheckpointData)
}

func TestStoreGet(t *testing.T) {
	stored := time.Date(2024, 5, 20, 9, 30, 15, 0, time.UTC)
	value := Checkpoint{Cursor: "evt_42", StoredAt: stored}.Value()

	t.Run("found", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, "sess-1", "AssetV1").Return(value, true, nil)

		store := NewStore(repo, testLogger())
		got, err := store.Get(context.Background(), "sess-1", "AssetV1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "evt_42", got.Cursor)
	})

	t.Run("absent", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, "sess-1", "AssetV1").Return("", false, nil)

		store := NewStore(repo, testLogger())
		got, err := store.Get(context.Background(), "sess-1", "AssetV1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Get", mock.Anything, "sess-1", "AssetV1").
			Return("", false, errors.New("database down"))

		store := NewStore(repo, testLogger())
		_, err := store.Get(context.Background(), "sess-1", "AssetV1")
		assert.Error(t, err)
	})
}

func TestStoreSetMany(t *testing.T) {
	repo := new(MockRepository)
	repo.On("SetMany", mock.Anything, "sess-1", mock.MatchedBy(func(values map[string]string) bool {
		if len(values) != 2 {
			return false
		}
		// entries written together share one timestamp
		a := strings.SplitN(values["AssetV1"], "|", 2)
		b := strings.SplitN(values["AlbumV1"], "|", 2)
		return a[0] == "evt_1" && b[0] == "evt_2" && a[1] == b[1]
	})).Return(nil)

	store := NewStore(repo, testLogger())
	err := store.SetMany(context.Background(), "sess-1", []Entry{
		{EntityType: "AssetV1", Cursor: "evt_1"},
		{EntityType: "AlbumV1", Cursor: "evt_2"},
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStoreSetMany_Empty(t *testing.T) {
	repo := new(MockRepository)

	store := NewStore(repo, testLogger())
	err := store.SetMany(context.Background(), "sess-1", nil)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "SetMany", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoreDelete(t *testing.T) {
	t.Run("listed types", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Delete", mock.Anything, "sess-1", []string{"AssetV1"}).Return(nil)

		store := NewStore(repo, testLogger())
		err := store.Delete(context.Background(), "sess-1", []string{"AssetV1"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		repo := new(MockRepository)

		store := NewStore(repo, testLogger())
		err := store.Delete(context.Background(), "sess-1", nil)
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStoreDeleteAll(t *testing.T) {
	repo := new(MockRepository)
	repo.On("DeleteAll", mock.Anything, "sess-1").Return(nil)

	store := NewStore(repo, testLogger())
	err := store.DeleteAll(context.Background(), "sess-1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
