package storage

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Storage exposes a common interface for persisting game state, regardless of
// whether the game runs in a plain web page or inside a host application.
// Values are opaque strings.
type Storage interface {
	// GetItem returns the value stored at key. ok is false if the key has
	// never been written (or was removed), which is distinct from an empty
	// value.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem schedules a write and returns immediately. Its effect is only
	// observable through a later GetItem. Failures are reported to the
	// backend's ErrorHandler.
	SetItem(key, value string)
	// RemoveItem deletes key
	RemoveItem(ctx context.Context, key string) error
	// Clear deletes every key
	Clear(ctx context.Context) error
}

// Backend is a Storage that buffers work in the background and therefore
// needs to be flushed and shut down explicitly.
type Backend interface {
	Storage
	// Flush performs any pending writes now
	Flush(ctx context.Context) error
	// Close flushes pending writes and releases the underlying medium
	Close() error
}

// ErrorHandler receives the errors of fire-and-forget writes.
type ErrorHandler func(key string, err error)

// LogErrors is the default ErrorHandler. Write failures are otherwise
// invisible to the player, so we at least leave a trace in the logs.
func LogErrors(key string, err error) {
	log.Error().
		Err(err).
		Str("key", key).
		Str("kind", KindOf(err).String()).
		Msg("could not persist a value")
}
