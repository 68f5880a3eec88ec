package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

func main() {
	root := &cobra.Command{
		Use:   "tools",
		Short: "Maintenance commands for the retail location database",
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "data/retail-intel.db", "Path to SQLite database")

	root.AddCommand(seedCmd())
	root.AddCommand(coverageCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
