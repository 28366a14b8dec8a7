//go:build js && wasm

package storage

import (
	"context"
	"errors"
	"syscall/js"
)

// GlobalEnvironment is the page's global scope. A host shell (e.g., a native
// app embedding the game in a web view) publishes its bridge as a property
// of globalThis.
type GlobalEnvironment struct{}

func (GlobalEnvironment) LookupBridge(name string) (Bridge, bool) {
	v := js.Global().Get(name)
	if v.IsUndefined() || v.IsNull() {
		return nil, false
	}
	return jsBridge{obj: v}, true
}

// jsBridge calls a host object whose getItem, setItem, removeItem and clear
// methods return Promises. A Promise may resolve to a plain value or to a
// {success, data, error} result object.
type jsBridge struct {
	obj js.Value
}

func (b jsBridge) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := b.call(ctx, "getItem", key)
	if err != nil {
		return "", false, err
	}
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (b jsBridge) SetItem(ctx context.Context, key, value string) error {
	_, err := b.call(ctx, "setItem", key, value)
	return err
}

func (b jsBridge) RemoveItem(ctx context.Context, key string) error {
	_, err := b.call(ctx, "removeItem", key)
	return err
}

func (b jsBridge) Clear(ctx context.Context) error {
	_, err := b.call(ctx, "clear")
	return err
}

type jsResult struct {
	v   js.Value
	err error
}

func (b jsBridge) call(ctx context.Context, method string, args ...interface{}) (js.Value, error) {
	fn := b.obj.Get(method)
	if fn.Type() != js.TypeFunction {
		return js.Undefined(), &StorageError{Kind: KindBridgeMissing, Op: method}
	}

	ch := make(chan jsResult, 1)
	onResolve := js.FuncOf(func(this js.Value, a []js.Value) interface{} {
		ch <- unwrapResult(firstArg(a))
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, a []js.Value) interface{} {
		ch <- jsResult{err: jsErrorValue(firstArg(a))}
		return nil
	})
	// The callbacks must outlive a cancelled context, since the Promise can
	// still settle afterwards.
	release := func() {
		onResolve.Release()
		onReject.Release()
	}

	p := b.obj.Call(method, args...)
	if p.Type() != js.TypeObject || p.Get("then").Type() != js.TypeFunction {
		release()
		r := unwrapResult(p)
		return r.v, r.err
	}
	p.Call("then", onResolve, onReject)

	select {
	case r := <-ch:
		release()
		return r.v, r.err
	case <-ctx.Done():
		go func() {
			<-ch
			release()
		}()
		return js.Undefined(), ctx.Err()
	}
}

func firstArg(a []js.Value) js.Value {
	if len(a) == 0 {
		return js.Undefined()
	}
	return a[0]
}

func unwrapResult(v js.Value) jsResult {
	if v.Type() != js.TypeObject {
		return jsResult{v: v}
	}
	success := v.Get("success")
	if success.Type() != js.TypeBoolean {
		return jsResult{v: v}
	}
	if !success.Bool() {
		return jsResult{err: jsErrorValue(v.Get("error"))}
	}
	return jsResult{v: v.Get("data")}
}

func jsErrorValue(v js.Value) error {
	if v.IsUndefined() || v.IsNull() {
		return errors.New("host bridge call failed")
	}
	if v.Type() == js.TypeObject && v.Get("message").Type() == js.TypeString {
		msg := v.Get("message").String()
		if v.Get("name").String() == "QuotaExceededError" {
			return &StorageError{Kind: KindQuotaExceeded, Err: errors.New(msg)}
		}
		return errors.New(msg)
	}
	if v.Type() == js.TypeString && v.String() == "QuotaExceededError" {
		return &StorageError{Kind: KindQuotaExceeded}
	}
	return errors.New(v.String())
}
