//go:build unix

package libc

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Syscalls returns a fully populated table backed by direct system
// calls via golang.org/x/sys/unix. Raw syscalls sit below any library
// interposer in the provider chain, so delegating to them can never
// loop back into the shim.
func Syscalls() *Funcs {
	f := &Funcs{}
	if err := bindSyscalls(f); err != nil {
		// bindSyscalls assigns function values and cannot fail today;
		// keep the signature shared with Lazy fill functions.
		panic(err)
	}
	return f
}

func bindSyscalls(f *Funcs) error {
	f.Open = func(path string, flags int, mode uint32) (int, error) {
		return unix.Open(path, flags, mode)
	}
	f.Openat = func(dirfd int, path string, flags int, mode uint32) (int, error) {
		return unix.Openat(dirfd, path, flags, mode)
	}
	f.Stat = unix.Stat
	f.Lstat = unix.Lstat
	f.Access = unix.Access
	f.Readlink = unix.Readlink
	f.Exec = unix.Exec
	f.Fopen = fopenSyscall
	f.Rename = unix.Rename
	f.Unlink = unix.Unlink
	f.Mkdir = unix.Mkdir
	f.Rmdir = unix.Rmdir
	f.Chdir = unix.Chdir
	f.Chmod = unix.Chmod
	f.Chown = unix.Chown
	f.Link = unix.Link
	f.Symlink = unix.Symlink
	return nil
}

func fopenSyscall(path, mode string) (*os.File, error) {
	flags, err := StreamFlags(mode)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}

// StreamFlags translates an fopen(3) mode string into open(2) flags.
// The leading character selects the base mode; '+', 'b', 'e' and 'x'
// modifiers are honored in any order after it.
func StreamFlags(mode string) (int, error) {
	if mode == "" {
		return 0, unix.EINVAL
	}

	var flags int
	switch mode[0] {
	case 'r':
		flags = unix.O_RDONLY
	case 'w':
		flags = unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
	case 'a':
		flags = unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND
	default:
		return 0, unix.EINVAL
	}

	rest := mode[1:]
	if strings.ContainsRune(rest, '+') {
		flags = flags&^(unix.O_RDONLY|unix.O_WRONLY) | unix.O_RDWR
	}
	if strings.ContainsRune(rest, 'x') {
		flags |= unix.O_EXCL
	}
	// 'b' is accepted and meaningless on POSIX; 'e' asks for O_CLOEXEC
	// which fopenSyscall sets unconditionally.
	for _, r := range rest {
		switch r {
		case '+', 'b', 'e', 'x':
		default:
			return 0, unix.EINVAL
		}
	}
	return flags, nil
}
