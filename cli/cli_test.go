//go:build unix

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRewriteCommandOutput(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"rewrite",
		"/data/data/com.termux/files/usr/bin/bash",
		"/data/data/com.termux2/other",
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute rewrite: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "/data/data/com.termux/files/usr/bin/bash -> /data/data/com.termux.kotlin/files/usr/bin/bash") {
		t.Fatalf("missing rewritten line in output:\n%s", got)
	}
	if !strings.Contains(got, "/data/data/com.termux2/other (unchanged)") {
		t.Fatalf("missing pass-through line in output:\n%s", got)
	}
}

func TestRewriteCommandReportsOverflow(t *testing.T) {
	long := "/data/data/com.termux/" + strings.Repeat("a", 5000)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"rewrite", long})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute rewrite: %v", err)
	}
	if !strings.Contains(out.String(), "(too long, not rewritten)") {
		t.Fatalf("missing overflow line in output:\n%s", out.String())
	}
}

func TestPreloadValue(t *testing.T) {
	t.Setenv("LD_PRELOAD", "")
	if got := preloadValue("/lib/shim.so"); got != "/lib/shim.so" {
		t.Fatalf("preloadValue = %q", got)
	}

	t.Setenv("LD_PRELOAD", "/lib/other.so")
	if got := preloadValue("/lib/shim.so"); got != "/lib/shim.so:/lib/other.so" {
		t.Fatalf("preloadValue with existing = %q, shim must come first", got)
	}

	t.Setenv("LD_PRELOAD", "/lib/shim.so")
	if got := preloadValue("/lib/shim.so"); got != "/lib/shim.so" {
		t.Fatalf("preloadValue should not duplicate the shim: %q", got)
	}
}

func TestOverrideEnv(t *testing.T) {
	env := []string{"A=1", "LD_PRELOAD=/old.so", "B=2"}
	got := overrideEnv(env, "LD_PRELOAD", "/new.so")

	var found int
	for _, kv := range got {
		if strings.HasPrefix(kv, "LD_PRELOAD=") {
			found++
			if kv != "LD_PRELOAD=/new.so" {
				t.Fatalf("entry = %q", kv)
			}
		}
	}
	if found != 1 {
		t.Fatalf("found %d LD_PRELOAD entries, want 1", found)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestContainsPreload(t *testing.T) {
	if !containsPreload("/a.so:/b.so", "/b.so") {
		t.Fatal("containsPreload missed an entry")
	}
	if containsPreload("/a.so:/b.so", "/c.so") {
		t.Fatal("containsPreload matched an absent entry")
	}
	if containsPreload("", "/a.so") {
		t.Fatal("containsPreload matched in empty LD_PRELOAD")
	}
}

func TestDefaultShimPathHonorsPrefix(t *testing.T) {
	t.Setenv("PREFIX", "/data/data/com.termux.kotlin/files/usr")
	if got := defaultShimPath(); got != "/data/data/com.termux.kotlin/files/usr/lib/libtermux_compat.so" {
		t.Fatalf("defaultShimPath = %q", got)
	}

	t.Setenv("PREFIX", "")
	if got := defaultShimPath(); got != "/data/data/com.termux.kotlin/files/usr/lib/libtermux_compat.so" {
		t.Fatalf("fallback defaultShimPath = %q", got)
	}
}
