//go:build linux

package compat_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	compat "github.com/reapercanuk39/termux-compat"
	"github.com/reapercanuk39/termux-compat/libc"
	"github.com/reapercanuk39/termux-compat/rewrite"
)

// tempShim maps one scratch directory onto another and delegates to
// real system calls, so every interception lands in newDir.
func tempShim(t *testing.T) (shim *compat.Shim, oldDir, newDir string) {
	t.Helper()
	oldDir = t.TempDir() + "/"
	newDir = t.TempDir() + "/"
	return compat.NewWithTable(rewrite.New(oldDir, newDir), libc.Syscalls()), oldDir, newDir
}

func TestIntegrationOpenCreatesUnderNewRoot(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	fd, err := shim.Open(oldDir+"note.txt", unix.O_CREAT|unix.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f := os.NewFile(uintptr(fd), "note.txt")
	if _, err := f.WriteString("redirected"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := os.ReadFile(newDir + "note.txt")
	if err != nil {
		t.Fatalf("file missing under new root: %v", err)
	}
	if string(got) != "redirected" {
		t.Fatalf("content = %q", got)
	}
	if _, err := os.Stat(oldDir + "note.txt"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("file was created under the old root")
	}
}

func TestIntegrationMkdirRenameRmdir(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	if err := shim.Mkdir(oldDir+"a", 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := os.Stat(newDir + "a"); err != nil {
		t.Fatalf("directory missing under new root: %v", err)
	}

	if err := shim.Rename(oldDir+"a", oldDir+"b"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := os.Stat(newDir + "b"); err != nil {
		t.Fatalf("rename target missing under new root: %v", err)
	}

	if err := shim.Rmdir(oldDir + "b"); err != nil {
		t.Fatalf("Rmdir: %v", err)
	}
	if _, err := os.Stat(newDir + "b"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("directory still present after Rmdir")
	}
}

func TestIntegrationSymlinkTargetVerbatim(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	target := oldDir + "real-target"
	if err := shim.Symlink(target, oldDir+"link"); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	// The link itself lives under the new root; its stored target is
	// the old-root path, byte-for-byte.
	got, err := os.Readlink(newDir + "link")
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if got != target {
		t.Fatalf("stored target = %q, want %q verbatim", got, target)
	}

	// Reading through the shim rewrites the link path, not the bytes.
	buf := make([]byte, rewrite.MaxPath)
	n, err := shim.Readlink(oldDir+"link", buf)
	if err != nil {
		t.Fatalf("shim Readlink: %v", err)
	}
	if string(buf[:n]) != target {
		t.Fatalf("readlink bytes = %q, want %q", buf[:n], target)
	}
}

func TestIntegrationStatLstatDiffer(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	if err := os.WriteFile(newDir+"file", []byte("x"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := os.Symlink(newDir+"file", newDir+"ln"); err != nil {
		t.Fatalf("fixture symlink: %v", err)
	}

	var st, lst unix.Stat_t
	if err := shim.Stat(oldDir+"ln", &st); err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := shim.Lstat(oldDir+"ln", &lst); err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if st.Mode&unix.S_IFMT == unix.S_IFLNK {
		t.Fatal("Stat followed nothing: got link mode")
	}
	if lst.Mode&unix.S_IFMT != unix.S_IFLNK {
		t.Fatal("Lstat did not report the link itself")
	}
}

func TestIntegrationPermissionOps(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	if err := os.WriteFile(newDir+"file", []byte("x"), 0o600); err != nil {
		t.Fatalf("fixture: %v", err)
	}

	if err := shim.Chmod(oldDir+"file", 0o400); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	info, err := os.Stat(newDir + "file")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o400 {
		t.Fatalf("mode = %v, want 0400", info.Mode().Perm())
	}

	if err := shim.Access(oldDir+"file", unix.R_OK); err != nil {
		t.Fatalf("Access: %v", err)
	}
	if err := shim.Access(oldDir+"absent", unix.R_OK); !errors.Is(err, unix.ENOENT) {
		t.Fatalf("Access on missing file = %v, want ENOENT", err)
	}

	// chown to the unchanged owner exercises the delegation without
	// needing privileges.
	if err := shim.Chown(oldDir+"file", -1, -1); err != nil {
		t.Fatalf("Chown: %v", err)
	}

	if err := shim.Unlink(oldDir + "file"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := os.Stat(newDir + "file"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("file still present after Unlink")
	}
}

func TestIntegrationLink(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	if err := os.WriteFile(newDir+"orig", []byte("x"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := shim.Link(oldDir+"orig", oldDir+"copy"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	var st unix.Stat_t
	if err := unix.Stat(newDir+"copy", &st); err != nil {
		t.Fatalf("hard link missing under new root: %v", err)
	}
	if st.Nlink < 2 {
		t.Fatalf("nlink = %d, want >= 2", st.Nlink)
	}
}

func TestIntegrationChdir(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	if err := shim.Chdir(oldDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	got, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd after Chdir: %v", err)
	}
	want, err := filepath.EvalSymlinks(filepath.Clean(newDir))
	if err != nil {
		t.Fatalf("resolve new root: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("resolve cwd: %v", err)
	}
	if resolved != want {
		t.Fatalf("cwd = %s, want %s", resolved, want)
	}
}

func TestIntegrationFopen(t *testing.T) {
	shim, oldDir, newDir := tempShim(t)

	if err := os.WriteFile(newDir+"cfg", []byte("key=value"), 0o644); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	f, err := shim.Fopen(oldDir+"cfg", "r")
	if err != nil {
		t.Fatalf("Fopen: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 32)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "key=value" {
		t.Fatalf("content = %q", buf[:n])
	}
}
