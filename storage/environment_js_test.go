//go:build js && wasm

package storage

import (
	"context"
	"syscall/js"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBridgeName = "digiviceTestBridge"

// installBridge publishes a host bridge whose methods return Promises. A few
// keys trigger the result shapes a host can send back.
func installBridge(t *testing.T) {
	t.Helper()
	fake := evalJS(`
const data = new Map();
return {
	getItem(k) {
		if (k === "wrapped") { return Promise.resolve({success: true, data: "inside"}); }
		if (k === "sync") { return "no promise"; }
		if (k === "hang") { return new Promise(() => {}); }
		return Promise.resolve(data.has(k) ? data.get(k) : null);
	},
	setItem(k, v) {
		if (k === "refused") { return Promise.resolve({success: false, error: "disk offline"}); }
		if (k === "full") {
			const e = new Error("no room left");
			e.name = "QuotaExceededError";
			return Promise.reject(e);
		}
		data.set(k, v);
		return Promise.resolve({success: true});
	},
	removeItem(k) {
		data.delete(k);
		return Promise.resolve({success: true, data: null});
	},
	clear() { return Promise.reject(new Error("clear is not allowed")); },
};`)
	setGlobal(t, testBridgeName, fake)
}

func lookupTestBridge(t *testing.T) Bridge {
	t.Helper()
	b, ok := GlobalEnvironment{}.LookupBridge(testBridgeName)
	require.True(t, ok)
	return b
}

func TestGlobalEnvironmentLookup(t *testing.T) {
	_, ok := GlobalEnvironment{}.LookupBridge(testBridgeName)
	assert.False(t, ok)

	installBridge(t)
	_, ok = GlobalEnvironment{}.LookupBridge(testBridgeName)
	assert.True(t, ok)
}

func TestJSBridgeResolvedValues(t *testing.T) {
	installBridge(t)
	b := lookupTestBridge(t)
	ctx := context.Background()

	require.NoError(t, b.SetItem(ctx, "game", `{"coins":2}`))
	v, ok, err := b.GetItem(ctx, "game")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"coins":2}`, v)

	// null means absent
	_, ok, err = b.GetItem(ctx, "never-written")
	require.NoError(t, err)
	assert.False(t, ok)

	// {success, data} results are unwrapped
	v, ok, err = b.GetItem(ctx, "wrapped")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "inside", v)

	// Methods that don't return a Promise still work
	v, ok, err = b.GetItem(ctx, "sync")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "no promise", v)

	require.NoError(t, b.RemoveItem(ctx, "game"))
	_, ok, err = b.GetItem(ctx, "game")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSBridgeFailures(t *testing.T) {
	installBridge(t)
	b := lookupTestBridge(t)
	ctx := context.Background()

	err := b.SetItem(ctx, "refused", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk offline")
	assert.Equal(t, KindUnknown, KindOf(err))

	err = b.SetItem(ctx, "full", "{}")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	err = b.Clear(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear is not allowed")
}

func TestJSBridgeMissingMethod(t *testing.T) {
	setGlobal(t, testBridgeName, evalJS(`return {};`))
	b := lookupTestBridge(t)

	_, _, err := b.GetItem(context.Background(), "game")
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
	assert.Equal(t, KindBridgeMissing, KindOf(err))
}

func TestJSBridgeCancelledWhileWaiting(t *testing.T) {
	installBridge(t)
	b := lookupTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.GetItem(ctx, "hang")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBridgeBackendOverGlobalEnvironment(t *testing.T) {
	installBridge(t)
	sink := &errSink{}
	f, err := NewFacade(FacadeOptions{
		Environment: GlobalEnvironment{},
		BridgeName:  testBridgeName,
		Bridge:      BridgeOptions{OnError: sink.handle},
	})
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, BackendBridge, f.Backend())
	ctx := context.Background()

	f.SetItem("game", "saved")
	f.SetItem("full", "too big")
	require.NoError(t, f.Flush(ctx))

	v, ok, err := f.GetItem(ctx, "game")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "saved", v)

	errs := sink.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrQuotaExceeded)

	// The host takes its bridge away
	js.Global().Delete(testBridgeName)
	_, _, err = f.GetItem(ctx, "game")
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
}
