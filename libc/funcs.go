//go:build unix

// Package libc locates the real implementations of the intercepted
// filesystem entry points. A Funcs table holds one slot per entry
// point; resolution fills every slot exactly once per process and is
// safe to trigger from any interceptor at any time.
package libc

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrNotResolved is wrapped into errors returned when the real
// implementation table could not be populated.
var ErrNotResolved = errors.New("real entry points not resolved")

// Funcs is the table of real implementations the shim delegates to.
// A nil slot means that entry point could not be resolved; calls
// through it must fail with ENOSYS rather than be attempted. Slots
// are written during Resolve and never mutated afterwards.
type Funcs struct {
	Open     func(path string, flags int, mode uint32) (int, error)
	Openat   func(dirfd int, path string, flags int, mode uint32) (int, error)
	Stat     func(path string, st *unix.Stat_t) error
	Lstat    func(path string, st *unix.Stat_t) error
	Access   func(path string, mode uint32) error
	Readlink func(path string, buf []byte) (int, error)
	Exec     func(path string, argv, envp []string) error
	Fopen    func(path, mode string) (*os.File, error)
	Rename   func(oldpath, newpath string) error
	Unlink   func(path string) error
	Mkdir    func(path string, mode uint32) error
	Rmdir    func(path string) error
	Chdir    func(path string) error
	Chmod    func(path string, mode uint32) error
	Chown    func(path string, uid, gid int) error
	Link     func(oldpath, newpath string) error
	Symlink  func(target, linkpath string) error

	once sync.Once
	fill func(*Funcs) error
	err  error
}

// Lazy returns a table whose slots are populated by fill on the first
// Resolve call. fill runs at most once for the lifetime of the table.
func Lazy(fill func(*Funcs) error) *Funcs {
	return &Funcs{fill: fill}
}

// Resolve idempotently ensures the table is populated. It is cheap
// after the first call and safe to invoke from every interceptor
// entry. If population failed, the same error is returned on every
// call; slots stay nil and callers must not attempt them.
func (f *Funcs) Resolve() error {
	f.once.Do(func() {
		if f.fill == nil {
			return
		}
		if err := f.fill(f); err != nil {
			f.err = fmt.Errorf("%w: %v", ErrNotResolved, err)
		}
	})
	return f.err
}

// Default returns the process-wide lazily-resolved table backed by
// direct system calls.
func Default() *Funcs {
	defaultOnce.Do(func() {
		defaultFuncs = Lazy(bindSyscalls)
	})
	return defaultFuncs
}

var (
	defaultOnce  sync.Once
	defaultFuncs *Funcs
)
