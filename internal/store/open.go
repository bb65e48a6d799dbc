package store

import (
	"context"

	"github.com/mrz1836/lockgate/internal/config"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// Open builds the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	var (
		b   Backend
		err error
	)

	switch cfg.Store.Backend {
	case config.BackendFile:
		b, err = NewFileBackend(cfg.StorePath())
	case config.BackendSQLite:
		b, err = NewSQLiteBackend(ctx, cfg.StorePath())
	case config.BackendKeyring:
		b, err = NewKeyringBackend(nil)
	case config.BackendMemory:
		b = NewMemoryBackend()
	default:
		return nil, gateerr.WithSuggestion(
			gateerr.WithDetails(gateerr.ErrStoreUnavailable, map[string]string{"backend": cfg.Store.Backend}),
			"set store.backend to one of: file, sqlite, keyring, memory",
		)
	}

	if err != nil {
		return nil, gateerr.WithDetails(
			gateerr.WithCause(gateerr.ErrStoreUnavailable, err),
			map[string]string{"backend": cfg.Store.Backend},
		)
	}
	return New(b), nil
}
