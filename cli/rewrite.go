//go:build unix

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reapercanuk39/termux-compat/rewrite"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <path>...",
	Short: "Show how the shim maps the given paths",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rw := rewrite.Default()
		out := cmd.OutOrStdout()
		for _, path := range args {
			if !rw.Matches(path) {
				fmt.Fprintf(out, "%s (unchanged)\n", path)
				continue
			}
			rewritten := rw.Rewrite(path)
			if rewritten == path {
				fmt.Fprintf(out, "%s (too long, not rewritten)\n", path)
				continue
			}
			fmt.Fprintf(out, "%s -> %s\n", path, rewritten)
		}
		return nil
	},
}
