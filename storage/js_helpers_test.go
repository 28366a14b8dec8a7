//go:build js && wasm

package storage

import (
	"syscall/js"
	"testing"
)

// evalJS runs body as the body of a JavaScript function and returns its
// result.
func evalJS(body string) js.Value {
	return js.Global().Get("Function").New(body).Invoke()
}

// setGlobal defines name on globalThis for the rest of the test. Runtimes
// like Node may already define localStorage as an accessor, so we redefine
// the property rather than assign to it.
func setGlobal(t *testing.T, name string, v js.Value) {
	t.Helper()
	object := js.Global().Get("Object")
	prev := object.Call("getOwnPropertyDescriptor", js.Global(), name)

	desc := object.New()
	desc.Set("value", v)
	desc.Set("configurable", true)
	desc.Set("writable", true)
	object.Call("defineProperty", js.Global(), name, desc)

	t.Cleanup(func() {
		if prev.IsUndefined() {
			js.Global().Delete(name)
			return
		}
		object.Call("defineProperty", js.Global(), name, prev)
	})
}
