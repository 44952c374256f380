package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "classify",
		Short: "Organise objects into a hierarchy of classes",
		Long: `classify builds a class hierarchy from a YAML plan and tags the
objects of an object store with the class that owns them.

Objects live in a local SQLite file (--db) or, with --table, in a
DynamoDB objects table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("db", "classtree.db", "Object store file")
	rootCmd.PersistentFlags().String("table", "", "DynamoDB objects table (overrides --db)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newObjectsCmd(),
		newApplyCmd(),
		newFindCmd(),
		newTagsCmd(),
	)
	return rootCmd
}
