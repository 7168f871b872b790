package editor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Repository loads and saves one editor's State under a fixed key.
type Repository struct {
	store  Store
	key    string
	logger *zap.Logger
}

// NewRepository returns a Repository for key. A nil logger discards logs.
func NewRepository(store Store, key string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: store, key: key, logger: logger}
}

// Key returns the storage key.
func (r *Repository) Key() string {
	return r.key
}

// Load returns the saved state, or Defaults when nothing is saved, the
// store fails, or the saved data is malformed. Failures are logged and
// never returned.
func (r *Repository) Load(ctx context.Context) State {
	data, err := r.store.Load(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return Defaults()
	}
	if err != nil {
		r.logger.Warn("failed to load saved state", zap.String("key", r.key), zap.Error(err))
		return Defaults()
	}

	st, err := Restore(data)
	if err != nil {
		r.logger.Warn("failed to load saved state", zap.String("key", r.key), zap.Error(err))
		return Defaults()
	}
	return st
}

// Save serializes st and overwrites whatever is stored.
func (r *Repository) Save(ctx context.Context, st State) error {
	data, err := st.Marshal()
	if err != nil {
		return fmt.Errorf("encode editor state: %w", err)
	}
	return r.store.Save(ctx, r.key, data)
}
