// Package rewrite translates filesystem paths from one fixed root
// directory to another. It is the pure core of the compatibility shim:
// paths under the old Termux prefix are relocated under the
// Termux-Kotlin prefix, everything else passes through untouched.
package rewrite

import (
	"strings"
	"sync"

	"github.com/reapercanuk39/termux-compat/dlog"
)

// The shipping root mapping. Trailing separators are part of the
// prefixes: "/data/data/com.termux2/..." must never match.
const (
	OldRoot = "/data/data/com.termux/"
	NewRoot = "/data/data/com.termux.kotlin/"
)

// MaxPath is the fixed capacity of the scratch buffer a rewritten path
// is assembled in, matching PATH_MAX on the target platform. A rewrite
// that would not fit (including the NUL the C boundary appends) is
// abandoned and the original path is returned unchanged.
const MaxPath = 4096

// Rewriter substitutes one directory-path prefix for another. The zero
// value is not usable; construct with New or Default.
type Rewriter struct {
	oldRoot string
	newRoot string

	// One scratch buffer per in-flight call. Pooled rather than global
	// so concurrent goroutines never assemble into the same bytes.
	scratch sync.Pool
}

// New returns a Rewriter mapping oldRoot to newRoot. Both arguments
// are literal prefixes and should carry their trailing separator.
func New(oldRoot, newRoot string) *Rewriter {
	r := &Rewriter{
		oldRoot: oldRoot,
		newRoot: newRoot,
	}
	r.scratch.New = func() any {
		b := make([]byte, 0, MaxPath)
		return &b
	}
	return r
}

// Default returns a Rewriter for the shipping OldRoot/NewRoot mapping.
func Default() *Rewriter {
	return New(OldRoot, NewRoot)
}

// OldRoot returns the prefix this Rewriter matches.
func (r *Rewriter) OldRoot() string { return r.oldRoot }

// NewRoot returns the prefix this Rewriter substitutes.
func (r *Rewriter) NewRoot() string { return r.newRoot }

// Rewrite returns path with the old root replaced by the new root when
// path begins with the old root exactly, and path itself otherwise.
// The suffix after the prefix is preserved byte-for-byte. Empty and
// relative paths pass through. If the rewritten form would exceed
// MaxPath the rewrite is skipped and path is returned unchanged.
func (r *Rewriter) Rewrite(path string) string {
	if !strings.HasPrefix(path, r.oldRoot) {
		return path
	}

	suffix := path[len(r.oldRoot):]
	if len(r.newRoot)+len(suffix)+1 > MaxPath {
		dlog.Logf("path too long, not rewriting: %s", path)
		return path
	}

	bufp := r.scratch.Get().(*[]byte)
	buf := append((*bufp)[:0], r.newRoot...)
	buf = append(buf, suffix...)
	out := string(buf)
	*bufp = buf
	r.scratch.Put(bufp)

	dlog.Logf("rewrite: %s -> %s", path, out)
	return out
}

// Matches reports whether path would be rewritten by Rewrite, ignoring
// the capacity limit.
func (r *Rewriter) Matches(path string) bool {
	return strings.HasPrefix(path, r.oldRoot)
}
