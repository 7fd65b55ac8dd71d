//go:build unix

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	compat "github.com/reapercanuk39/termux-compat"
	"github.com/reapercanuk39/termux-compat/libc"
	"github.com/reapercanuk39/termux-compat/rewrite"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the rewrite mapping and entry-point resolution in-process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		shim := compat.NewWithTable(rewrite.Default(), libc.Syscalls())

		if err := shim.Resolve(); err != nil {
			return fmt.Errorf("resolve entry points: %w", err)
		}
		fmt.Fprintln(out, "entry points: resolved")

		sample := filepath.Join(rewrite.OldRoot, "files", "usr", "bin", "bash")
		rewritten := shim.Rewrite(sample)
		want := filepath.Join(rewrite.NewRoot, "files", "usr", "bin", "bash")
		if rewritten != want {
			return fmt.Errorf("rewrite check failed: %s -> %s, want %s", sample, rewritten, want)
		}
		fmt.Fprintf(out, "rewrite:      %s -> %s\n", sample, rewritten)

		var st unix.Stat_t
		if err := shim.Stat(rewrite.OldRoot, &st); err != nil {
			fmt.Fprintf(out, "new root:     not present (%v)\n", err)
		} else {
			fmt.Fprintf(out, "new root:     present (%s)\n", rewrite.NewRoot)
		}
		return nil
	},
}
