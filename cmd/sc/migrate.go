package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	GroupID: "setup",
	Short:   "Apply pending schema migrations",
	Long: `Open the database and apply pending schema migrations.

Every sc command migrates on open; this exists as an explicit deploy step
for PostgreSQL so schema changes land before the first serving process.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Migrations were applied when the store opened
		if err := store.Ping(rootCtx); err != nil {
			FatalError("database not reachable after migration: %v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "ok"})
			return
		}
		fmt.Println("Schema up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
