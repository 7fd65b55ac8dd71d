//go:build linux && !cgo && (amd64 || arm64)

package libc

const trampolinesAvailable = false

// Call is unavailable without cgo; ResolveNext reports the condition
// before any caller can reach this.
func Call(fn uintptr, args ...uintptr) uintptr {
	_ = fn
	_ = args
	panic("libc.Call requires cgo")
}
