package storage

import (
	"context"
	"sync"
)

// Bridge is the key/value object a host shell injects into the global
// environment. Every call is asynchronous from the game's point of view, so
// each one takes a context. The host owns the implementation; this package
// only consumes it.
type Bridge interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Environment is the global scope a Facade probes for a bridge.
type Environment interface {
	// LookupBridge returns the bridge published under name, if any
	LookupBridge(name string) (Bridge, bool)
}

// MapEnvironment is an Environment that hosts populate explicitly. A host
// that embeds the game natively registers its bridge here before building the
// Facade, and may revoke it later.
type MapEnvironment struct {
	mu      sync.RWMutex
	bridges map[string]Bridge
}

// NewMapEnvironment returns an environment with no bridges
func NewMapEnvironment() *MapEnvironment {
	return &MapEnvironment{bridges: make(map[string]Bridge)}
}

// Register publishes b under name, replacing any previous bridge
func (e *MapEnvironment) Register(name string, b Bridge) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bridges[name] = b
}

// Revoke removes the bridge published under name
func (e *MapEnvironment) Revoke(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.bridges, name)
}

func (e *MapEnvironment) LookupBridge(name string) (Bridge, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.bridges[name]
	return b, ok
}

// MediumBridge presents a Medium as a Bridge. Native hosts use it to expose
// their own storage to the game, and tests use it as a stand-in for a host.
type MediumBridge struct {
	Medium Medium
}

func (m MediumBridge) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	return m.Medium.Get(key)
}

func (m MediumBridge) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Medium.Set(key, value)
}

func (m MediumBridge) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Medium.Remove(key)
}

func (m MediumBridge) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Medium.Clear()
}
