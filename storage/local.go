package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalOptions configures a Local backend
type LocalOptions struct {
	// Throttle window. Zero writes through.
	Window time.Duration
	Mode   ThrottleMode
	// Receives errors from throttled writes. Defaults to LogErrors.
	OnError ErrorHandler
}

// Local implements Backend on top of a synchronous Medium. Reads go straight
// to the medium; writes are rate-limited so that a burst of state changes
// results in a single write.
type Local struct {
	medium   Medium
	throttle *throttle
	onError  ErrorHandler

	closeOnce sync.Once
	closeErr  error
}

// NewLocal returns a Local backend that owns medium. Closing the backend
// closes the medium.
func NewLocal(medium Medium, opts LocalOptions) *Local {
	l := &Local{
		medium:  medium,
		onError: opts.OnError,
	}
	if l.onError == nil {
		l.onError = LogErrors
	}
	l.throttle = newThrottle(opts.Window, opts.Mode, l.write)
	return l
}

func (l *Local) write(key, value string) {
	if err := l.medium.Set(key, value); err != nil {
		l.onError(key, wrapErr("set", key, err))
		return
	}
	log.Debug().Str("key", key).Int("bytes", len(value)).Msg("wrote a value to the local medium")
}

// GetItem reads key from the medium. Writes still waiting on the throttle
// are not visible yet.
func (l *Local) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok, err := l.medium.Get(key)
	if err != nil {
		return "", false, wrapErr("get", key, err)
	}
	return v, ok, nil
}

// SetItem queues a write of value to key
func (l *Local) SetItem(key, value string) {
	if !l.throttle.schedule(key, value) {
		l.onError(key, ErrClosed)
	}
}

// RemoveItem deletes key, along with any write to key that hasn't happened
// yet.
func (l *Local) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.throttle.cancel(
		func(k string) bool { return k == key },
		func() error { return wrapErr("remove", key, l.medium.Remove(key)) },
	)
}

// Clear deletes every key and drops all pending writes
func (l *Local) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.throttle.cancel(
		func(string) bool { return true },
		func() error { return wrapErr("clear", "", l.medium.Clear()) },
	)
}

// Flush writes every pending value now
func (l *Local) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.throttle.flush()
	return nil
}

// Pending returns the number of writes waiting on the throttle
func (l *Local) Pending() int {
	return l.throttle.pending()
}

// Close flushes pending writes and closes the medium. It's safe to call more
// than once.
func (l *Local) Close() error {
	l.closeOnce.Do(func() {
		l.throttle.stop()
		l.closeErr = l.medium.Close()
	})
	return l.closeErr
}
