//go:build js && wasm

package storage

import (
	"errors"
	"fmt"
	"syscall/js"
)

// LocalStorageMedium implements Medium with the browser's
// window.localStorage.
type LocalStorageMedium struct {
	ls    js.Value
	quota ByteSize
}

// NewLocalStorageMedium returns a medium backed by window.localStorage, or an
// error if the page doesn't have one (e.g., it's disabled by privacy
// settings).
func NewLocalStorageMedium(quota ByteSize) (*LocalStorageMedium, error) {
	ls := js.Global().Get("localStorage")
	if ls.IsUndefined() || ls.IsNull() {
		return nil, errors.New("window.localStorage is not available")
	}
	return &LocalStorageMedium{ls: ls, quota: quota}, nil
}

func (m *LocalStorageMedium) Get(key string) (v string, ok bool, err error) {
	defer recoverJSError("get", key, &err)
	r := m.ls.Call("getItem", key)
	if r.IsNull() || r.IsUndefined() {
		return "", false, nil
	}
	return r.String(), true, nil
}

func (m *LocalStorageMedium) Set(key, value string) (err error) {
	if err := checkQuota(key, value, m.quota); err != nil {
		return err
	}
	defer recoverJSError("set", key, &err)
	m.ls.Call("setItem", key, value)
	return nil
}

func (m *LocalStorageMedium) Remove(key string) (err error) {
	defer recoverJSError("remove", key, &err)
	m.ls.Call("removeItem", key)
	return nil
}

func (m *LocalStorageMedium) Clear() (err error) {
	defer recoverJSError("clear", "", &err)
	m.ls.Call("clear")
	return nil
}

// Close is no-op
func (m *LocalStorageMedium) Close() error {
	return nil
}

// recoverJSError turns an exception thrown by localStorage into an error.
// Browsers throw a DOMException named QuotaExceededError when the origin is
// out of space.
func recoverJSError(op, key string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	jsErr, ok := r.(js.Error)
	if !ok {
		panic(r)
	}
	kind := KindUnknown
	if jsErr.Value.Type() == js.TypeObject && jsErr.Value.Get("name").String() == "QuotaExceededError" {
		kind = KindQuotaExceeded
	}
	*err = &StorageError{Kind: kind, Op: op, Key: key, Err: fmt.Errorf("localStorage: %v", jsErr.Error())}
}
