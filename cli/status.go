//go:build unix

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reapercanuk39/termux-compat/dlog"
	"github.com/reapercanuk39/termux-compat/rewrite"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the shim is installed and active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		shimPath := defaultShimPath()

		fmt.Fprintf(out, "mapping:   %s -> %s\n", rewrite.OldRoot, rewrite.NewRoot)
		fmt.Fprintf(out, "shim:      %s\n", shimPath)

		if info, err := os.Stat(shimPath); err == nil {
			fmt.Fprintf(out, "installed: yes (%d bytes)\n", info.Size())
		} else {
			fmt.Fprintln(out, "installed: no")
		}

		preload := os.Getenv("LD_PRELOAD")
		if containsPreload(preload, shimPath) {
			fmt.Fprintln(out, "loaded:    yes (LD_PRELOAD set)")
		} else {
			fmt.Fprintln(out, "loaded:    no")
		}

		if os.Getenv(dlog.EnvVar) == "1" {
			fmt.Fprintln(out, "debug:     on")
		} else {
			fmt.Fprintln(out, "debug:     off")
		}
		return nil
	},
}

func containsPreload(preload, shimPath string) bool {
	for _, entry := range strings.Split(preload, ":") {
		if entry == shimPath {
			return true
		}
	}
	return false
}
