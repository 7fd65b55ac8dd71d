//go:build linux && (amd64 || arm64)

package libc

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// NextTable holds the addresses of the next-in-search-order (libc)
// implementations of the intercepted entry points. It is the moral
// equivalent of dlsym(RTLD_NEXT, ...): symbols are resolved from the
// libc image already mapped into this process, which by definition
// excludes the shim itself. A zero address means the symbol was not
// found; calls through it must fail with ENOSYS instead.
type NextTable struct {
	Open     uintptr
	Openat   uintptr
	Stat     uintptr
	Lstat    uintptr
	Access   uintptr
	Readlink uintptr
	Execve   uintptr
	Fopen    uintptr
	Rename   uintptr
	Unlink   uintptr
	Mkdir    uintptr
	Rmdir    uintptr
	Chdir    uintptr
	Chmod    uintptr
	Chown    uintptr
	Link     uintptr
	Symlink  uintptr

	errnoLocation uintptr
}

var (
	nextOnce  sync.Once
	nextTable *NextTable
	nextErr   error
)

// ResolveNext resolves the libc implementation addresses exactly once
// per process. Concurrent first calls converge on the same table.
func ResolveNext() (*NextTable, error) {
	nextOnce.Do(func() {
		nextTable, nextErr = resolveNextTable()
	})
	if nextErr != nil {
		return nil, nextErr
	}
	return nextTable, nil
}

func resolveNextTable() (*NextTable, error) {
	if !trampolinesAvailable {
		return nil, errors.New("libc call trampolines require cgo")
	}

	libcPath, baseAddr, err := findLoadedLibc()
	if err != nil {
		return nil, err
	}

	table := &NextTable{}
	slots := map[string]*uintptr{
		"open":             &table.Open,
		"openat":           &table.Openat,
		"stat":             &table.Stat,
		"lstat":            &table.Lstat,
		"access":           &table.Access,
		"readlink":         &table.Readlink,
		"execve":           &table.Execve,
		"fopen":            &table.Fopen,
		"rename":           &table.Rename,
		"unlink":           &table.Unlink,
		"mkdir":            &table.Mkdir,
		"rmdir":            &table.Rmdir,
		"chdir":            &table.Chdir,
		"chmod":            &table.Chmod,
		"chown":            &table.Chown,
		"link":             &table.Link,
		"symlink":          &table.Symlink,
		"__errno_location": &table.errnoLocation,
	}

	offsets, err := elfSymbolOffsets(libcPath, slots)
	if err != nil {
		return nil, err
	}
	for name, slot := range slots {
		if off, ok := offsets[name]; ok {
			*slot = baseAddr + off
		}
	}
	if table.errnoLocation == 0 {
		return nil, fmt.Errorf("symbol __errno_location not found in %s", libcPath)
	}
	return table, nil
}

// Errno reads the calling thread's errno through libc.
func (t *NextTable) Errno() unix.Errno {
	loc := Call(t.errnoLocation)
	if loc == 0 {
		return 0
	}
	return unix.Errno(*(*int32)(unsafe.Pointer(loc)))
}

// SetErrno stores errno for the calling thread, used to report ENOSYS
// for entry points whose real implementation was never found.
func (t *NextTable) SetErrno(errno unix.Errno) {
	loc := Call(t.errnoLocation)
	if loc != 0 {
		*(*int32)(unsafe.Pointer(loc)) = int32(errno)
	}
}

// CString returns s as a NUL-terminated byte slice for handing to a
// libc entry point. The caller must keep the slice alive across the
// call.
func CString(s string) ([]byte, error) {
	if strings.ContainsRune(s, '\x00') {
		return nil, errors.New("path contains NUL")
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}

// CStringPtr returns the address of b's first byte, or 0 for an empty
// slice.
func CStringPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// findLoadedLibc scans /proc/self/maps for the executable libc
// mapping and returns its on-disk path and load base.
func findLoadedLibc() (string, uintptr, error) {
	raw, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return "", 0, fmt.Errorf("read /proc/self/maps: %w", err)
	}

	bestScore := -1
	var bestPath string
	var bestBase uintptr
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 6 || !strings.Contains(fields[1], "x") {
			continue
		}
		path := strings.TrimSuffix(strings.Join(fields[5:], " "), " (deleted)")
		if !strings.HasPrefix(path, "/") {
			continue
		}
		score := libcMappingScore(path)
		if score <= bestScore {
			continue
		}

		rangeParts := strings.SplitN(fields[0], "-", 2)
		if len(rangeParts) != 2 {
			continue
		}
		start, startErr := parseHexAddr(rangeParts[0])
		offset, offsetErr := parseHexAddr(fields[2])
		if startErr != nil || offsetErr != nil || start < offset {
			continue
		}
		bestScore = score
		bestPath = path
		bestBase = start - offset
	}
	if bestScore < 0 {
		return "", 0, errors.New("no libc mapping found in /proc/self/maps")
	}
	return bestPath, bestBase, nil
}

func libcMappingScore(path string) int {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "libc.so"):
		return 100
	case strings.Contains(p, "libc-"):
		return 95
	case strings.Contains(p, "ld-musl"):
		return 90
	case strings.Contains(p, "musl"):
		return 85
	default:
		return -1
	}
}

func parseHexAddr(s string) (uintptr, error) {
	var out uintptr
	if s == "" {
		return 0, errors.New("empty hex string")
	}
	for _, r := range s {
		out <<= 4
		switch {
		case r >= '0' && r <= '9':
			out += uintptr(r - '0')
		case r >= 'a' && r <= 'f':
			out += uintptr(r-'a') + 10
		case r >= 'A' && r <= 'F':
			out += uintptr(r-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex string %q", s)
		}
	}
	return out, nil
}

// elfSymbolOffsets returns the image-relative offsets of every wanted
// symbol that the ELF file at path defines, checking the dynamic
// symbol table first and the full symbol table as a fallback.
func elfSymbolOffsets(path string, wanted map[string]*uintptr) (map[string]uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	found := make(map[string]uintptr, len(wanted))
	collect := func(symbols []elf.Symbol) {
		for _, s := range symbols {
			if s.Value == 0 {
				continue
			}
			name := s.Name
			if at := strings.IndexByte(name, '@'); at >= 0 {
				name = name[:at]
			}
			if _, want := wanted[name]; !want {
				continue
			}
			if _, have := found[name]; !have {
				found[name] = uintptr(s.Value)
			}
		}
	}

	if syms, err := f.DynamicSymbols(); err == nil {
		collect(syms)
	}
	if len(found) < len(wanted) {
		if syms, err := f.Symbols(); err == nil {
			collect(syms)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no intercepted symbols found in %s", path)
	}
	return found, nil
}
