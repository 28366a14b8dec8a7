package storage

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// BridgeOptions configures a BridgeBackend
type BridgeOptions struct {
	// Receives errors from fire-and-forget writes. Defaults to LogErrors.
	OnError ErrorHandler
}

// BridgeBackend implements Backend by delegating every operation to the
// Bridge published in an Environment. The bridge is looked up again on every
// call, so a host that revokes it after startup produces ErrBridgeUnavailable
// instead of a crash.
//
// Writes are handed to a single goroutine and performed in the order SetItem
// was called. There's no batching, caching or retrying.
type BridgeBackend struct {
	env     Environment
	name    string
	onError ErrorHandler

	mu     sync.Mutex
	queue  []bridgeOp
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

// bridgeOp is either a write or, if barrier is set, a marker that Flush and
// Close wait on.
type bridgeOp struct {
	key     string
	value   string
	barrier chan struct{}
}

// NewBridgeBackend starts a BridgeBackend for the bridge named name in env.
// Stop it with Close.
func NewBridgeBackend(env Environment, name string, opts BridgeOptions) *BridgeBackend {
	b := &BridgeBackend{
		env:     env,
		name:    name,
		onError: opts.OnError,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	if b.onError == nil {
		b.onError = LogErrors
	}
	go b.run()
	return b
}

func (b *BridgeBackend) bridge(op, key string) (Bridge, error) {
	br, ok := b.env.LookupBridge(b.name)
	if !ok || br == nil {
		return nil, &StorageError{Kind: KindBridgeMissing, Op: op, Key: key}
	}
	return br, nil
}

// GetItem asks the bridge for key
func (b *BridgeBackend) GetItem(ctx context.Context, key string) (string, bool, error) {
	br, err := b.bridge("get", key)
	if err != nil {
		return "", false, err
	}
	v, ok, err := br.GetItem(ctx, key)
	if err != nil {
		return "", false, wrapErr("get", key, err)
	}
	return v, ok, nil
}

// SetItem queues a write to the bridge and returns immediately
func (b *BridgeBackend) SetItem(key, value string) {
	if !b.enqueue(bridgeOp{key: key, value: value}) {
		b.onError(key, ErrClosed)
	}
}

// RemoveItem asks the bridge to delete key once the writes queued before it
// have been sent.
func (b *BridgeBackend) RemoveItem(ctx context.Context, key string) error {
	if err := b.Flush(ctx); err != nil {
		return err
	}
	br, err := b.bridge("remove", key)
	if err != nil {
		return err
	}
	return wrapErr("remove", key, br.RemoveItem(ctx, key))
}

// Clear asks the bridge to delete every key once the writes queued before it
// have been sent.
func (b *BridgeBackend) Clear(ctx context.Context) error {
	if err := b.Flush(ctx); err != nil {
		return err
	}
	br, err := b.bridge("clear", "")
	if err != nil {
		return err
	}
	return wrapErr("clear", "", br.Clear(ctx))
}

// Flush waits until every write queued so far has been handed to the bridge.
func (b *BridgeBackend) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !b.enqueue(bridgeOp{barrier: barrier}) {
		return ErrClosed
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends the remaining writes and stops the write goroutine. The bridge
// itself belongs to the host and is left alone.
func (b *BridgeBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	b.signal()
	<-b.done
	return nil
}

func (b *BridgeBackend) enqueue(op bridgeOp) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, op)
	b.mu.Unlock()
	b.signal()
	return true
}

func (b *BridgeBackend) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *BridgeBackend) run() {
	defer close(b.done)
	for range b.wake {
		b.mu.Lock()
		ops := b.queue
		b.queue = nil
		closed := b.closed
		b.mu.Unlock()

		for _, op := range ops {
			if op.barrier != nil {
				close(op.barrier)
				continue
			}
			b.send(op.key, op.value)
		}

		if closed {
			// Ops can't be queued after closed is set, so the queue we
			// just drained was the last one.
			return
		}
	}
}

func (b *BridgeBackend) send(key, value string) {
	br, err := b.bridge("set", key)
	if err != nil {
		b.onError(key, err)
		return
	}
	// Writes are fire-and-forget, so there's no caller context to honor.
	if err := br.SetItem(context.Background(), key, value); err != nil {
		b.onError(key, wrapErr("set", key, err))
		return
	}
	log.Debug().Str("key", key).Int("bytes", len(value)).Msg("sent a value to the host bridge")
}
