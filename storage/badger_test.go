//go:build !(js && wasm)

package storage

import (
	"strings"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// We test all BadgerDB read/write utility functions here for a simple case. While
// other projects define test-specific utility functions for, e.g., opening
// a BadgerDB connection (e.g., Jaeger [1]), all DB operations are wrapped
// in a helper for use by the application. We'll use these helpers, rather than
// ones defined just for tests.
//
// [1]: https://github.com/jaegertracing/jaeger/blob/740264bd4c7a7cca27f0eb47d80cd8f8fcbd5906/plugin/storage/badger/spanstore/cache_test.go#L109-L126
func newTestBadger(t *testing.T, quota ByteSize) *BadgerMedium {
	t.Helper()
	conf := Config{
		StorageDirPath: t.TempDir(),
		// Set this to a very long value since we don't expect keys to
		// expire during the test
		KeyTTLDuration: time.Duration(10) * time.Minute,
		MaxValueSize:   quota,
	}
	db, err := NewBadgerMedium(&conf)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSimpleBadgerReadWrite(t *testing.T) {
	db := newTestBadger(t, 0)

	require.NoError(t, db.Set("Hello", "World"))

	v, ok, err := db.Get("Hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "World", v)
}

func TestBadgerAbsentIsNotEmpty(t *testing.T) {
	db := newTestBadger(t, 0)

	v, ok, err := db.Get("never-written")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", v)

	require.NoError(t, db.Set("empty", ""))
	v, ok, err = db.Get("empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestBadgerRemoveAndClear(t *testing.T) {
	db := newTestBadger(t, 0)

	require.NoError(t, db.Set("a", "1"))
	require.NoError(t, db.Set("b", "2"))

	require.NoError(t, db.Remove("a"))
	_, ok, err := db.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is fine
	require.NoError(t, db.Remove("a"))

	require.NoError(t, db.Clear())
	_, ok, err = db.Get("b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerQuota(t *testing.T) {
	db := newTestBadger(t, 4)

	require.NoError(t, db.Set("small", "1234"))

	err := db.Set("big", "12345")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
}

func TestBadgerCleanupWithNothingToRewrite(t *testing.T) {
	db := newTestBadger(t, 0)
	require.NoError(t, db.Set("k", "v"))
	assert.NoError(t, db.Cleanup())
}

func TestNewBadgerMediumNeedsADirectory(t *testing.T) {
	_, err := NewBadgerMedium(&Config{})
	assert.Error(t, err)
}

func TestBadgerValueLargerThanValueLog(t *testing.T) {
	conf := Config{StorageDirPath: t.TempDir()}
	opts := badger.DefaultOptions(conf.StorageDirPath).
		WithLogger(nil).
		WithValueLogFileSize(2 << 20)
	db, err := openBadgerMedium(&conf, opts)
	require.NoError(t, err)
	defer db.Close()

	err = db.Set("huge", strings.Repeat("x", 2<<20+1))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))

	_, ok, err := db.Get("huge")
	require.NoError(t, err)
	assert.False(t, ok)
}
