//go:build linux && cgo && (amd64 || arm64)

// libtermux_compat.so - LD_PRELOAD shim for Termux-Kotlin
// compatibility, the c-shared build of the compat module.
//
// Build with:
//
//	go build -buildmode=c-shared -o libtermux_compat.so ./preload
//
// Use with:
//
//	export LD_PRELOAD=$PREFIX/lib/libtermux_compat.so
//
// Each exported function rewrites its path argument(s) from the old
// Termux root to the Termux-Kotlin root and tail-calls the libc
// implementation resolved from the already-loaded libc image, so
// return values and errno are libc's own. The header set in the cgo
// preamble is kept minimal on purpose: including the libc headers
// that declare the intercepted names would clash with the exported
// declarations cgo generates.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/reapercanuk39/termux-compat/dlog"
	"github.com/reapercanuk39/termux-compat/libc"
	"github.com/reapercanuk39/termux-compat/rewrite"
)

var (
	rewriter = rewrite.Default()
	next     *libc.NextTable
)

// init runs when the dynamic loader maps the shared object, before
// the host process reaches main. It warms the symbol cache so the
// first interception pays no resolution cost.
func init() {
	table, err := libc.ResolveNext()
	if err != nil {
		dlog.Logf("libc resolution failed: %v", err)
		return
	}
	next = table
	dlog.Logf("libtermux_compat.so loaded")
}

// notSupported reports ENOSYS in libc's convention for entry points
// whose real implementation was never resolved. When even the errno
// machinery is unavailable the -1 return is all a caller gets.
func notSupported() C.int {
	if next != nil {
		next.SetErrno(unix.ENOSYS)
	}
	return -1
}

// pathArg rewrites a C path argument. A NULL or non-matching path is
// forwarded as the caller's own pointer, byte-for-byte; only a
// rewritten path is copied into fresh NUL-terminated storage, which
// the caller must keep alive across the delegated call.
func pathArg(pathname *C.char) (uintptr, []byte) {
	if pathname == nil {
		return 0, nil
	}
	path := C.GoString(pathname)
	rewritten := rewriter.Rewrite(path)
	if rewritten == path {
		return uintptr(unsafe.Pointer(pathname)), nil
	}
	buf, err := libc.CString(rewritten)
	if err != nil {
		return uintptr(unsafe.Pointer(pathname)), nil
	}
	return libc.CStringPtr(buf), buf
}

//export open
func open(pathname *C.char, flags C.int, mode C.uint) C.int {
	if next == nil || next.Open == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	// The mode register is only meaningful when the caller set
	// O_CREAT; it is forwarded then and never examined otherwise.
	var ret uintptr
	if int(flags)&unix.O_CREAT != 0 {
		ret = libc.Call(next.Open, p, uintptr(flags), uintptr(mode))
	} else {
		ret = libc.Call(next.Open, p, uintptr(flags))
	}
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export openat
func openat(dirfd C.int, pathname *C.char, flags C.int, mode C.uint) C.int {
	if next == nil || next.Openat == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	var ret uintptr
	if int(flags)&unix.O_CREAT != 0 {
		ret = libc.Call(next.Openat, uintptr(dirfd), p, uintptr(flags), uintptr(mode))
	} else {
		ret = libc.Call(next.Openat, uintptr(dirfd), p, uintptr(flags))
	}
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export stat
func stat(pathname *C.char, statbuf unsafe.Pointer) C.int {
	if next == nil || next.Stat == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Stat, p, uintptr(statbuf))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export lstat
func lstat(pathname *C.char, statbuf unsafe.Pointer) C.int {
	if next == nil || next.Lstat == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Lstat, p, uintptr(statbuf))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export access
func access(pathname *C.char, mode C.int) C.int {
	if next == nil || next.Access == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Access, p, uintptr(mode))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export readlink
func readlink(pathname *C.char, buf *C.char, bufsiz C.size_t) C.long {
	if next == nil || next.Readlink == 0 {
		return C.long(notSupported())
	}
	p, pathBuf := pathArg(pathname)
	ret := libc.Call(next.Readlink, p, uintptr(unsafe.Pointer(buf)), uintptr(bufsiz))
	runtime.KeepAlive(pathBuf)
	return C.long(int64(ret))
}

//export execve
func execve(pathname *C.char, argv **C.char, envp **C.char) C.int {
	if next == nil || next.Execve == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Execve, p, uintptr(unsafe.Pointer(argv)), uintptr(unsafe.Pointer(envp)))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export fopen
func fopen(pathname *C.char, mode *C.char) unsafe.Pointer {
	if next == nil || next.Fopen == 0 {
		notSupported()
		return nil
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Fopen, p, uintptr(unsafe.Pointer(mode)))
	runtime.KeepAlive(buf)
	return unsafe.Pointer(ret)
}

//export rename
func rename(oldpath *C.char, newpath *C.char) C.int {
	if next == nil || next.Rename == 0 {
		return notSupported()
	}
	po, bufo := pathArg(oldpath)
	pn, bufn := pathArg(newpath)
	ret := libc.Call(next.Rename, po, pn)
	runtime.KeepAlive(bufo)
	runtime.KeepAlive(bufn)
	return C.int(int32(ret))
}

//export unlink
func unlink(pathname *C.char) C.int {
	if next == nil || next.Unlink == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Unlink, p)
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export mkdir
func mkdir(pathname *C.char, mode C.uint) C.int {
	if next == nil || next.Mkdir == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Mkdir, p, uintptr(mode))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export rmdir
func rmdir(pathname *C.char) C.int {
	if next == nil || next.Rmdir == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Rmdir, p)
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export chdir
func chdir(pathname *C.char) C.int {
	if next == nil || next.Chdir == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Chdir, p)
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export chmod
func chmod(pathname *C.char, mode C.uint) C.int {
	if next == nil || next.Chmod == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Chmod, p, uintptr(mode))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export chown
func chown(pathname *C.char, owner C.uint, group C.uint) C.int {
	if next == nil || next.Chown == 0 {
		return notSupported()
	}
	p, buf := pathArg(pathname)
	ret := libc.Call(next.Chown, p, uintptr(owner), uintptr(group))
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

//export link
func link(oldpath *C.char, newpath *C.char) C.int {
	if next == nil || next.Link == 0 {
		return notSupported()
	}
	po, bufo := pathArg(oldpath)
	pn, bufn := pathArg(newpath)
	ret := libc.Call(next.Link, po, pn)
	runtime.KeepAlive(bufo)
	runtime.KeepAlive(bufn)
	return C.int(int32(ret))
}

//export symlink
func symlink(target *C.char, linkpath *C.char) C.int {
	if next == nil || next.Symlink == 0 {
		return notSupported()
	}
	// The target is deliberately not rewritten: a symlink keeps
	// pointing at the exact path it was created with.
	p, buf := pathArg(linkpath)
	ret := libc.Call(next.Symlink, uintptr(unsafe.Pointer(target)), p)
	runtime.KeepAlive(buf)
	return C.int(int32(ret))
}

func main() {}
