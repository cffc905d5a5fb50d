package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/config"
	"github.com/shiftcrew/shiftcrew/internal/storage"
)

var (
	dbConn     string
	actor      string
	orgFlag    string
	jsonOutput bool

	verboseFlag bool
	quietFlag   bool

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	// Opened per command by PersistentPreRun; nil for no-db commands.
	store storage.Storage
	app   *appServices
)

func init() {
	// Initialize viper configuration
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	// Register persistent flags
	rootCmd.PersistentFlags().StringVar(&dbConn, "db", "", "Database (SQLite path or postgres:// URL; default: auto-discover .shiftcrew/crew.db)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Acting username for writes (default: $SHIFTCREW_ACTOR, config, $USER)")
	rootCmd.PersistentFlags().StringVar(&orgFlag, "org", "", "Organization name (default: config, or the only organization in the database)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	// Add --version flag to root command (same behavior as version subcommand)
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	// Command groups for organized help output
	rootCmd.AddGroup(&cobra.Group{ID: "work", Title: "Daily Work:"})
	rootCmd.AddGroup(&cobra.Group{ID: "people", Title: "People & Places:"})
	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:   "sc",
	Short: "sc - Shift crew operations",
	Long: `Checklists, schedules, and attendance for multi-store crews.

Every write is attributed to an acting user (--actor or config). Reads and
writes go straight to the database; run 'sc serve' to expose the same
operations over HTTP for phones and kiosks.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Handle --version flag on root command
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("sc version %s (%s)\n", Version, Build)
			return
		}
		// No subcommand - show help
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// --- Phase 1: Universal setup (runs for every command) ---
		setupSignalContext()
		applyVerbosityFlags()
		applyViperOverrides(cmd)

		// --- Phase 2: Early exit for commands that don't need a database ---
		if isNoDbCommand(cmd) {
			return
		}

		// --- Phase 3: Database resolution and open ---
		openStore()

		// --- Phase 4: Service graph and identity ---
		app = buildServices(store)
		resolveActor()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		// Cancel the signal context to clean up resources
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
