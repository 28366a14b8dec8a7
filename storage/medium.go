package storage

// Medium is a synchronous key/value store the Local backend writes to. It
// plays the part of the browser's localStorage: every call completes before
// returning.
type Medium interface {
	// Get returns false if key is absent
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
	// Drain/tear down the connection, or something analogous for
	// an embedded database
	Close() error
}

// Cleaner is implemented by media that need routine garbage collection.
type Cleaner interface {
	Cleanup() error
}

// checkQuota returns a KindQuotaExceeded error if value is larger than max.
// A max of zero means there is no quota.
func checkQuota(key, value string, max ByteSize) error {
	if max > 0 && ByteSize(len(value)) > max {
		return &StorageError{
			Kind: KindQuotaExceeded,
			Op:   "set",
			Key:  key,
		}
	}
	return nil
}
