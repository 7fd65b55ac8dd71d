//go:build unix

// Package compat implements the Termux-Kotlin path compatibility
// shim: filesystem entry points whose path arguments under the old
// Termux root are transparently relocated under the Termux-Kotlin
// root before the real implementation runs. Everything except the
// path arguments is forwarded untouched, and results and errors come
// back exactly as the real implementation produced them.
package compat

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/reapercanuk39/termux-compat/libc"
	"github.com/reapercanuk39/termux-compat/rewrite"
)

// Shim binds a path Rewriter to a table of real implementations. One
// Shim is safe for concurrent use from any number of goroutines.
type Shim struct {
	rw    *rewrite.Rewriter
	funcs *libc.Funcs
}

// New returns a Shim with the shipping root mapping and the default
// lazily-resolved real-implementation table.
func New() *Shim {
	return &Shim{rw: rewrite.Default(), funcs: libc.Default()}
}

// NewWithTable returns a Shim using the given rewriter and table.
func NewWithTable(rw *rewrite.Rewriter, funcs *libc.Funcs) *Shim {
	return &Shim{rw: rw, funcs: funcs}
}

// Rewrite exposes the shim's path mapping without performing any
// filesystem operation.
func (s *Shim) Rewrite(path string) string {
	return s.rw.Rewrite(path)
}

// Resolve eagerly warms the real-implementation table. Interceptors
// call it implicitly; it exists so load-time initialization can front
// the cost before the first interception.
func (s *Shim) Resolve() error {
	return s.funcs.Resolve()
}

// ready resolves the table before any slot is inspected; callers
// must only look at slots after it returns nil. A failed resolution
// (and, at the call sites, a slot left nil by one) fails with ENOSYS:
// the shim propagates a "function not supported" error in the entry
// point's own convention rather than aborting the host process.
func (s *Shim) ready() error {
	if err := s.funcs.Resolve(); err != nil {
		return unix.ENOSYS
	}
	return nil
}

// Open intercepts open(2). The trailing mode is consumed only when
// flags carries O_CREAT, mirroring the variadic contract of the C
// entry point; without O_CREAT any trailing argument is ignored.
func (s *Shim) Open(path string, flags int, mode ...uint32) (int, error) {
	if err := s.ready(); err != nil {
		return -1, err
	}
	if s.funcs.Open == nil {
		return -1, unix.ENOSYS
	}
	var m uint32
	if flags&unix.O_CREAT != 0 && len(mode) > 0 {
		m = mode[0]
	}
	return s.funcs.Open(s.rw.Rewrite(path), flags, m)
}

// Openat intercepts openat(2). Only the path is rewritten; the
// directory descriptor is not a path and is never touched.
func (s *Shim) Openat(dirfd int, path string, flags int, mode ...uint32) (int, error) {
	if err := s.ready(); err != nil {
		return -1, err
	}
	if s.funcs.Openat == nil {
		return -1, unix.ENOSYS
	}
	var m uint32
	if flags&unix.O_CREAT != 0 && len(mode) > 0 {
		m = mode[0]
	}
	return s.funcs.Openat(dirfd, s.rw.Rewrite(path), flags, m)
}

// Stat intercepts stat(2).
func (s *Shim) Stat(path string, st *unix.Stat_t) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Stat == nil {
		return unix.ENOSYS
	}
	return s.funcs.Stat(s.rw.Rewrite(path), st)
}

// Lstat intercepts lstat(2).
func (s *Shim) Lstat(path string, st *unix.Stat_t) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Lstat == nil {
		return unix.ENOSYS
	}
	return s.funcs.Lstat(s.rw.Rewrite(path), st)
}

// Access intercepts access(2).
func (s *Shim) Access(path string, mode uint32) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Access == nil {
		return unix.ENOSYS
	}
	return s.funcs.Access(s.rw.Rewrite(path), mode)
}

// Readlink intercepts readlink(2). The path naming the link is
// rewritten; the output buffer and the bytes read into it are not.
func (s *Shim) Readlink(path string, buf []byte) (int, error) {
	if err := s.ready(); err != nil {
		return -1, err
	}
	if s.funcs.Readlink == nil {
		return -1, unix.ENOSYS
	}
	return s.funcs.Readlink(s.rw.Rewrite(path), buf)
}

// Exec intercepts execve(2). The executable path is rewritten; the
// argument and environment vectors pass through unchanged.
func (s *Shim) Exec(path string, argv, envp []string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Exec == nil {
		return unix.ENOSYS
	}
	return s.funcs.Exec(s.rw.Rewrite(path), argv, envp)
}

// Fopen intercepts the buffered-stream open. The mode string is
// forwarded unchanged for the real implementation to interpret.
func (s *Shim) Fopen(path, mode string) (*os.File, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if s.funcs.Fopen == nil {
		return nil, unix.ENOSYS
	}
	return s.funcs.Fopen(s.rw.Rewrite(path), mode)
}

// Rename intercepts rename(2). Both paths are rewritten
// independently.
func (s *Shim) Rename(oldpath, newpath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Rename == nil {
		return unix.ENOSYS
	}
	return s.funcs.Rename(s.rw.Rewrite(oldpath), s.rw.Rewrite(newpath))
}

// Unlink intercepts unlink(2).
func (s *Shim) Unlink(path string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Unlink == nil {
		return unix.ENOSYS
	}
	return s.funcs.Unlink(s.rw.Rewrite(path))
}

// Mkdir intercepts mkdir(2).
func (s *Shim) Mkdir(path string, mode uint32) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Mkdir == nil {
		return unix.ENOSYS
	}
	return s.funcs.Mkdir(s.rw.Rewrite(path), mode)
}

// Rmdir intercepts rmdir(2).
func (s *Shim) Rmdir(path string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Rmdir == nil {
		return unix.ENOSYS
	}
	return s.funcs.Rmdir(s.rw.Rewrite(path))
}

// Chdir intercepts chdir(2).
func (s *Shim) Chdir(path string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Chdir == nil {
		return unix.ENOSYS
	}
	return s.funcs.Chdir(s.rw.Rewrite(path))
}

// Chmod intercepts chmod(2).
func (s *Shim) Chmod(path string, mode uint32) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Chmod == nil {
		return unix.ENOSYS
	}
	return s.funcs.Chmod(s.rw.Rewrite(path), mode)
}

// Chown intercepts chown(2).
func (s *Shim) Chown(path string, uid, gid int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Chown == nil {
		return unix.ENOSYS
	}
	return s.funcs.Chown(s.rw.Rewrite(path), uid, gid)
}

// Link intercepts link(2). Both paths are rewritten independently.
func (s *Shim) Link(oldpath, newpath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Link == nil {
		return unix.ENOSYS
	}
	return s.funcs.Link(s.rw.Rewrite(oldpath), s.rw.Rewrite(newpath))
}

// Symlink intercepts symlink(2). Only the link path is rewritten. The
// target is stored verbatim: a symlink must keep pointing at whatever
// path it was told to point at, even one under the old root.
func (s *Shim) Symlink(target, linkpath string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.funcs.Symlink == nil {
		return unix.ENOSYS
	}
	return s.funcs.Symlink(target, s.rw.Rewrite(linkpath))
}
