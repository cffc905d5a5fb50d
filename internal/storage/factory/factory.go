// Package factory creates storage backends from connection strings.
package factory

import (
	"context"
	"fmt"

	"github.com/shiftcrew/shiftcrew/internal/storage"
)

// BackendFactory is a function that creates a storage backend.
type BackendFactory func(ctx context.Context, conn string, opts Options) (storage.Storage, error)

// backendRegistry holds registered backend factories.
var backendRegistry = make(map[string]BackendFactory)

// RegisterBackend registers a storage backend factory. Backends call this
// from init so importing the package is enough to make them available.
func RegisterBackend(name string, factory BackendFactory) {
	backendRegistry[name] = factory
}

// Options configures how the storage backend is opened.
type Options struct {
	ReadOnly bool

	// SkipMigrations opens the database without applying pending
	// migrations. Used by one-shot inspection commands.
	SkipMigrations bool
}

// New creates a storage backend for the connection string, inferring the
// backend from its shape (postgres:// URL vs SQLite path).
func New(ctx context.Context, conn string) (storage.Storage, error) {
	return NewWithOptions(ctx, conn, Options{})
}

// NewWithOptions creates a storage backend with the specified options.
func NewWithOptions(ctx context.Context, conn string, opts Options) (storage.Storage, error) {
	if conn == "" {
		return nil, fmt.Errorf("empty connection string")
	}
	backend := storage.DetectBackend(conn)
	factory, ok := backendRegistry[backend]
	if !ok {
		return nil, fmt.Errorf("unknown storage backend: %s (supported: postgres, sqlite)", backend)
	}
	return factory(ctx, conn, opts)
}
