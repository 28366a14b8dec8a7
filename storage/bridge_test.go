package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBridge remembers the order of the writes it receives
type recordingBridge struct {
	MediumBridge
	mu     sync.Mutex
	writes []string
	setErr error
}

func (r *recordingBridge) SetItem(ctx context.Context, key, value string) error {
	r.mu.Lock()
	r.writes = append(r.writes, key+"="+value)
	err := r.setErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MediumBridge.SetItem(ctx, key, value)
}

func (r *recordingBridge) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func newTestBridge(t *testing.T) (*BridgeBackend, *MapEnvironment, *recordingBridge, *errSink) {
	t.Helper()
	env := NewMapEnvironment()
	rb := &recordingBridge{MediumBridge: MediumBridge{Medium: NewMemoryMedium(0)}}
	env.Register(DefaultBridgeName, rb)
	sink := &errSink{}
	b := NewBridgeBackend(env, DefaultBridgeName, BridgeOptions{OnError: sink.handle})
	t.Cleanup(func() { b.Close() })
	return b, env, rb, sink
}

func TestBridgeRoundTrip(t *testing.T) {
	b, _, _, _ := newTestBridge(t)
	ctx := context.Background()

	b.SetItem("game", `{"coins":3}`)
	require.NoError(t, b.Flush(ctx))

	v, ok := getItem(t, b, "game")
	assert.True(t, ok)
	assert.Equal(t, `{"coins":3}`, v)

	_, ok = getItem(t, b, "unknown")
	assert.False(t, ok)
}

func TestBridgeWritesInIssueOrder(t *testing.T) {
	b, _, rb, _ := newTestBridge(t)

	b.SetItem("a", "1")
	b.SetItem("b", "2")
	b.SetItem("a", "3")
	require.NoError(t, b.Flush(context.Background()))

	assert.Equal(t, []string{"a=1", "b=2", "a=3"}, rb.recorded())
	v, _ := getItem(t, b, "a")
	assert.Equal(t, "3", v)
}

func TestBridgeRemoveAndClearWaitForQueuedWrites(t *testing.T) {
	b, _, _, _ := newTestBridge(t)
	ctx := context.Background()

	b.SetItem("a", "1")
	require.NoError(t, b.RemoveItem(ctx, "a"))
	_, ok := getItem(t, b, "a")
	assert.False(t, ok)

	b.SetItem("b", "2")
	require.NoError(t, b.Clear(ctx))
	_, ok = getItem(t, b, "b")
	assert.False(t, ok)
}

func TestBridgeRevokedAfterStartup(t *testing.T) {
	b, env, _, sink := newTestBridge(t)
	ctx := context.Background()

	env.Revoke(DefaultBridgeName)

	_, _, err := b.GetItem(ctx, "game")
	assert.ErrorIs(t, err, ErrBridgeUnavailable)
	assert.Equal(t, KindBridgeMissing, KindOf(err))

	assert.ErrorIs(t, b.RemoveItem(ctx, "game"), ErrBridgeUnavailable)
	assert.ErrorIs(t, b.Clear(ctx), ErrBridgeUnavailable)

	b.SetItem("game", "{}")
	require.NoError(t, b.Flush(ctx))
	errs := sink.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrBridgeUnavailable)
}

func TestBridgeWriteErrorsGoToTheHandler(t *testing.T) {
	b, _, rb, sink := newTestBridge(t)
	rb.setErr = errors.New("host is busy")

	b.SetItem("game", "{}")
	require.NoError(t, b.Flush(context.Background()))

	errs := sink.all()
	require.Len(t, errs, 1)
	assert.Equal(t, KindUnknown, KindOf(errs[0]))
	assert.Contains(t, errs[0].Error(), "host is busy")
}

func TestBridgeCloseSendsPendingWrites(t *testing.T) {
	b, _, rb, sink := newTestBridge(t)

	b.SetItem("a", "1")
	require.NoError(t, b.Close())
	assert.Equal(t, []string{"a=1"}, rb.recorded())

	b.SetItem("b", "2")
	assert.ErrorIs(t, b.Flush(context.Background()), ErrClosed)
	errs := sink.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrClosed)

	assert.NoError(t, b.Close())
}
