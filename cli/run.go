//go:build unix

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/reapercanuk39/termux-compat/rewrite"
)

var runShimPath string

var runCmd = &cobra.Command{
	Use:   "run -- <command> [arg]...",
	Short: "Run a command with the compatibility shim preloaded",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shimPath := runShimPath
		if shimPath == "" {
			shimPath = defaultShimPath()
		}
		if _, err := os.Stat(shimPath); err != nil {
			return fmt.Errorf("shim not found at %s: %w", shimPath, err)
		}

		executable, err := exec.LookPath(args[0])
		if err != nil {
			return fmt.Errorf("resolve command %q: %w", args[0], err)
		}

		env := overrideEnv(os.Environ(), "LD_PRELOAD", preloadValue(shimPath))
		if err := unix.Exec(executable, args, env); err != nil {
			return fmt.Errorf("exec %s: %w", executable, err)
		}
		return errors.New("unreachable: exec returned without error")
	},
}

func init() {
	runCmd.Flags().StringVar(&runShimPath, "shim", "", "Path to libtermux_compat.so (default: $PREFIX/lib/libtermux_compat.so)")
}

// defaultShimPath is where the installed shim lives: the package
// prefix when the environment provides one, the Termux-Kotlin prefix
// otherwise.
func defaultShimPath() string {
	if prefix := os.Getenv("PREFIX"); prefix != "" {
		return filepath.Join(prefix, "lib", "libtermux_compat.so")
	}
	return filepath.Join(rewrite.NewRoot, "files", "usr", "lib", "libtermux_compat.so")
}

// preloadValue prepends the shim to any LD_PRELOAD already in the
// environment so the shim wins symbol resolution.
func preloadValue(shimPath string) string {
	if existing := os.Getenv("LD_PRELOAD"); existing != "" && existing != shimPath {
		return shimPath + ":" + existing
	}
	return shimPath
}

// overrideEnv returns env with key set to value, replacing any
// existing entry.
func overrideEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if len(kv) >= len(prefix) && kv[:len(prefix)] == prefix {
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+value)
}
