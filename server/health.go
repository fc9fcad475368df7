package server

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"backend/config"
	"backend/database"
)

var errNoStore = errors.New("data store not connected")

// ReadyState tracks the data-store handle and startup progress for health checks
type ReadyState struct {
	store     database.Store
	config    *config.Config
	startTime time.Time
	serving   atomic.Bool
}

// NewReadyState creates a new ReadyState instance
func NewReadyState(store database.Store, cfg *config.Config, startTime time.Time) *ReadyState {
	return &ReadyState{
		store:     store,
		config:    cfg,
		startTime: startTime,
	}
}

// MarkServing records that the listener is bound
func (r *ReadyState) MarkServing() {
	r.serving.Store(true)
}

// MarkDraining records that shutdown has begun
func (r *ReadyState) MarkDraining() {
	r.serving.Store(false)
}

// IsServing returns true between bind and shutdown
func (r *ReadyState) IsServing() bool {
	return r.serving.Load()
}

// CheckStore pings the data store
func (r *ReadyState) CheckStore(ctx context.Context) error {
	if r.store == nil {
		return errNoStore
	}
	return r.store.Ping(ctx)
}

// StoreKind names the connected driver, or "none"
func (r *ReadyState) StoreKind() string {
	if r.store == nil {
		return "none"
	}
	return r.store.Kind()
}

// Uptime returns time since process start
func (r *ReadyState) Uptime() time.Duration {
	return time.Since(r.startTime)
}

// GetConfig returns the application configuration
func (r *ReadyState) GetConfig() *config.Config {
	return r.config
}
