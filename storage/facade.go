package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// BackendKind names the backend a Facade is bound to
type BackendKind int

const (
	BackendLocal BackendKind = iota
	BackendBridge
)

func (k BackendKind) String() string {
	if k == BackendBridge {
		return "bridge"
	}
	return "local"
}

// FacadeOptions contains everything NewFacade needs to pick and build a
// backend.
type FacadeOptions struct {
	// Environment to probe for a host bridge. A nil Environment has no
	// bridge.
	Environment Environment
	// Global property the host bridge is published under
	BridgeName string
	// NewMedium opens the Local backend's medium. It's only called if no
	// bridge is present, so a native host doesn't open a database it won't
	// use.
	NewMedium func() (Medium, error)
	Local     LocalOptions
	Bridge    BridgeOptions
	// How often to run Cleanup on the medium, if it implements Cleaner.
	// Zero disables it.
	CleanupInterval time.Duration
}

// Facade is the single entry point the game uses for persistence. It probes
// the environment once, when it's created, and stays bound to the backend it
// picked for its whole lifetime, even if the bridge disappears or shows up
// later.
type Facade struct {
	backend Backend
	kind    BackendKind
	cleanup *cleanupLoop
}

// NewFacade probes opts.Environment for a bridge named opts.BridgeName and
// binds to a BridgeBackend if it finds one, or to a Local backend otherwise.
func NewFacade(opts FacadeOptions) (*Facade, error) {
	name := opts.BridgeName
	if name == "" {
		name = DefaultBridgeName
	}

	if opts.Environment != nil {
		if _, ok := opts.Environment.LookupBridge(name); ok {
			log.Info().Str("bridge", name).Msg("found a host bridge: using it for storage")
			return &Facade{
				backend: NewBridgeBackend(opts.Environment, name, opts.Bridge),
				kind:    BackendBridge,
			}, nil
		}
	}

	if opts.NewMedium == nil {
		return nil, errors.New("no host bridge is present and no local medium was provided")
	}
	m, err := opts.NewMedium()
	if err != nil {
		return nil, fmt.Errorf("can't open the local storage medium: %w", err)
	}
	f := &Facade{
		backend: NewLocal(m, opts.Local),
		kind:    BackendLocal,
	}
	if c, ok := m.(Cleaner); ok && opts.CleanupInterval > 0 {
		t := time.NewTicker(opts.CleanupInterval)
		f.cleanup = startCleanupLoop(c, t.C, t.Stop)
	}
	log.Info().
		Str("throttleMode", string(opts.Local.Mode)).
		Dur("throttleWindow", opts.Local.Window).
		Msg("no host bridge found: using local storage")
	return f, nil
}

// New builds a Facade from a validated Config. In a browser, local storage
// is window.localStorage. Natively it's BadgerDB when conf.StorageDirPath is
// set and memory otherwise.
func New(conf Config, env Environment, onError ErrorHandler) (*Facade, error) {
	return NewFacade(FacadeOptions{
		Environment: env,
		BridgeName:  conf.BridgeName,
		NewMedium: func() (Medium, error) {
			return openMedium(&conf)
		},
		Local: LocalOptions{
			Window:  conf.ThrottleWindow,
			Mode:    conf.ThrottleMode,
			OnError: onError,
		},
		Bridge:          BridgeOptions{OnError: onError},
		CleanupInterval: conf.CleanupInterval,
	})
}

// Backend reports which backend the facade is bound to
func (f *Facade) Backend() BackendKind {
	return f.kind
}

func (f *Facade) GetItem(ctx context.Context, key string) (string, bool, error) {
	return f.backend.GetItem(ctx, key)
}

func (f *Facade) SetItem(key, value string) {
	f.backend.SetItem(key, value)
}

func (f *Facade) RemoveItem(ctx context.Context, key string) error {
	return f.backend.RemoveItem(ctx, key)
}

func (f *Facade) Clear(ctx context.Context) error {
	return f.backend.Clear(ctx)
}

func (f *Facade) Flush(ctx context.Context) error {
	return f.backend.Flush(ctx)
}

// Close stops the cleanup loop, flushes pending writes and releases the
// backend.
func (f *Facade) Close() error {
	if f.cleanup != nil {
		f.cleanup.stop()
	}
	return f.backend.Close()
}
