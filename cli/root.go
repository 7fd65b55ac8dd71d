//go:build unix

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "termux-compat",
	Short:        "Operate the Termux-Kotlin path compatibility shim",
	SilenceUsage: true,
	Long: "termux-compat manages the LD_PRELOAD shim that relocates paths under\n" +
		"the old Termux root to the Termux-Kotlin root for unmodified upstream\n" +
		"packages.",
}

func init() {
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(verifyCmd)
}
