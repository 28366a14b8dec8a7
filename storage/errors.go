package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a StorageError so callers can react to a failing medium
// without parsing error strings.
type Kind int

const (
	KindUnknown Kind = iota
	// The medium refused a write because it ran out of space
	KindQuotaExceeded
	// The host bridge object is missing from the environment
	KindBridgeMissing
)

func (k Kind) String() string {
	switch k {
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindBridgeMissing:
		return "bridge missing"
	default:
		return "unknown"
	}
}

var (
	// ErrQuotaExceeded matches any StorageError of KindQuotaExceeded via
	// errors.Is.
	ErrQuotaExceeded = &StorageError{Kind: KindQuotaExceeded}
	// ErrBridgeUnavailable matches any StorageError of KindBridgeMissing via
	// errors.Is.
	ErrBridgeUnavailable = &StorageError{Kind: KindBridgeMissing}
	// ErrClosed is returned by operations on a backend after Close.
	ErrClosed = errors.New("storage is closed")
)

// StorageError is returned (or passed to an ErrorHandler) whenever the
// backing medium fails.
type StorageError struct {
	Kind Kind
	Op   string // e.g., "get", "set"
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	msg := fmt.Sprintf("storage %v", e.Kind)
	if e.Op != "" {
		msg = fmt.Sprintf("%v during %v", msg, e.Op)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%v of key %q", msg, e.Key)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%v: %v", msg, e.Err)
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a StorageError of the same Kind. This lets
// the sentinel errors above match errors carrying an Op, Key and cause.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first StorageError in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// wrapErr attaches an operation and key to err. Errors that are already
// StorageErrors keep their Kind.
func wrapErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrClosed) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		if se.Op != "" {
			return err
		}
		return &StorageError{Kind: se.Kind, Op: op, Key: key, Err: se.Err}
	}
	return &StorageError{Kind: KindUnknown, Op: op, Key: key, Err: err}
}
