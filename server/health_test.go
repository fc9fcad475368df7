package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"backend/config"
)

// MockStore implements database.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Kind() string {
	return m.Called().String(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// TestReadyState tests the ReadyState struct and its methods
func TestReadyState(t *testing.T) {
	cfg := &config.Config{Port: 8000}
	store := &MockStore{}
	store.On("Kind").Return("mongodb")
	store.On("Ping", mock.Anything).Return(nil).Once()
	store.On("Ping", mock.Anything).Return(errors.New("server selection timeout")).Once()

	readyState := NewReadyState(store, cfg, time.Now().Add(-time.Minute))

	t.Run("Initial state should be not serving", func(t *testing.T) {
		assert.False(t, readyState.IsServing())
	})

	t.Run("Serving toggles with bind and drain", func(t *testing.T) {
		readyState.MarkServing()
		assert.True(t, readyState.IsServing())

		readyState.MarkDraining()
		assert.False(t, readyState.IsServing())
	})

	t.Run("CheckStore forwards to the store", func(t *testing.T) {
		assert.NoError(t, readyState.CheckStore(context.Background()))
		assert.EqualError(t, readyState.CheckStore(context.Background()), "server selection timeout")
	})

	t.Run("Getters return correct values", func(t *testing.T) {
		assert.Equal(t, cfg, readyState.GetConfig())
		assert.Equal(t, "mongodb", readyState.StoreKind())
		assert.GreaterOrEqual(t, readyState.Uptime(), time.Minute)
	})

	store.AssertExpectations(t)
}

func TestReadyStateWithoutStore(t *testing.T) {
	readyState := NewReadyState(nil, &config.Config{}, time.Now())

	assert.Equal(t, "none", readyState.StoreKind())
	assert.ErrorIs(t, readyState.CheckStore(context.Background()), errNoStore)
}
