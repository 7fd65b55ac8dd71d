//go:build linux && cgo && (amd64 || arm64)

package libc

/*
#include <stdint.h>

typedef uintptr_t (*compat_fn0)(void);
typedef uintptr_t (*compat_fn1)(uintptr_t);
typedef uintptr_t (*compat_fn2)(uintptr_t, uintptr_t);
typedef uintptr_t (*compat_fn3)(uintptr_t, uintptr_t, uintptr_t);
typedef uintptr_t (*compat_fn4)(uintptr_t, uintptr_t, uintptr_t, uintptr_t);

static uintptr_t compat_call0(uintptr_t fn) {
	return ((compat_fn0)fn)();
}

static uintptr_t compat_call1(uintptr_t fn, uintptr_t a0) {
	return ((compat_fn1)fn)(a0);
}

static uintptr_t compat_call2(uintptr_t fn, uintptr_t a0, uintptr_t a1) {
	return ((compat_fn2)fn)(a0, a1);
}

static uintptr_t compat_call3(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2) {
	return ((compat_fn3)fn)(a0, a1, a2);
}

static uintptr_t compat_call4(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3) {
	return ((compat_fn4)fn)(a0, a1, a2, a3);
}
*/
import "C"

const trampolinesAvailable = true

// Call invokes a C function at fn with up to four integer/pointer
// arguments, returning its integer/pointer result. Callers are
// responsible for keeping any memory the arguments point at alive
// across the call.
func Call(fn uintptr, args ...uintptr) uintptr {
	switch len(args) {
	case 0:
		return uintptr(C.compat_call0(C.uintptr_t(fn)))
	case 1:
		return uintptr(C.compat_call1(C.uintptr_t(fn), C.uintptr_t(args[0])))
	case 2:
		return uintptr(C.compat_call2(C.uintptr_t(fn), C.uintptr_t(args[0]), C.uintptr_t(args[1])))
	case 3:
		return uintptr(C.compat_call3(C.uintptr_t(fn), C.uintptr_t(args[0]), C.uintptr_t(args[1]), C.uintptr_t(args[2])))
	case 4:
		return uintptr(C.compat_call4(C.uintptr_t(fn), C.uintptr_t(args[0]), C.uintptr_t(args[1]), C.uintptr_t(args[2]), C.uintptr_t(args[3])))
	default:
		panic("libc.Call: too many arguments")
	}
}
