package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shiftcrew/shiftcrew/internal/config"
	"github.com/shiftcrew/shiftcrew/internal/debug"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// noDbCommands lists commands that run without opening a database.
// init opens one itself after creating the workspace.
var noDbCommands = map[string]bool{
	"init":       true,
	"version":    true,
	"config":     true,
	"help":       true,
	"completion": true,
}

func isNoDbCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if noDbCommands[c.Name()] {
			return true
		}
	}
	// Bare "sc" shows help
	return cmd == rootCmd
}

// setupSignalContext creates a context that is cancelled on SIGINT/SIGTERM
// so long-running commands like serve unwind cleanly.
func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func applyVerbosityFlags() {
	if verboseFlag {
		debug.SetVerbose(true)
	}
	if quietFlag {
		debug.SetQuiet(true)
	}
}

// applyViperOverrides fills flags the user did not set from the config
// layer, and when verbose, reports flags that shadow configured values.
func applyViperOverrides(cmd *cobra.Command) {
	if !cmd.Flags().Changed("json") {
		jsonOutput = config.GetBool("json")
	}
	if dbConn == "" {
		dbConn = config.GetString("db")
	}
	if orgFlag == "" {
		orgFlag = config.GetString("org")
	}

	if verboseFlag {
		overrides := config.CheckOverrides(map[string]struct {
			Value  interface{}
			WasSet bool
		}{
			"db":    {Value: dbConn, WasSet: cmd.Flags().Changed("db")},
			"actor": {Value: actor, WasSet: cmd.Flags().Changed("actor")},
			"org":   {Value: orgFlag, WasSet: cmd.Flags().Changed("org")},
			"json":  {Value: jsonOutput, WasSet: cmd.Flags().Changed("json")},
		})
		for _, o := range overrides {
			config.LogOverride(o)
		}
	}
}

// resolveDatabase works out which database to open.
// Priority: --db flag > SHIFTCREW_DB / config key "db" > crew.db next to
// the discovered .shiftcrew/config.yaml.
func resolveDatabase() (string, error) {
	if dbConn != "" {
		return dbConn, nil
	}
	dir, err := config.FindConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "crew.db"), nil
}

func openStore() {
	conn, err := resolveDatabase()
	if err != nil {
		FatalErrorWithHint("no database configured", "Run 'sc init' to set up a workspace, or pass --db")
	}
	debug.Logf("opening store at %s", conn)
	s, err := factory.New(rootCtx, conn)
	if err != nil {
		FatalError("opening database: %v", err)
	}
	store = s
}

// resolveActor fills the global actor used for write attribution.
// Priority: --actor flag > SHIFTCREW_ACTOR env > config key "actor" >
// $USER > "unknown".
func resolveActor() {
	if actor != "" {
		return
	}
	if a := os.Getenv("SHIFTCREW_ACTOR"); a != "" {
		actor = a
		return
	}
	if a := config.GetString("actor"); a != "" {
		actor = a
		return
	}
	if user := os.Getenv("USER"); user != "" {
		actor = user
		return
	}
	actor = "unknown"
}

// passwordFromEnvOrPrompt returns envVar's value, or reads a password
// without echo from the terminal. Dies when neither is available.
func passwordFromEnvOrPrompt(envVar string) string {
	if pw := os.Getenv(envVar); pw != "" {
		return pw
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		FatalErrorWithHint("no password provided", fmt.Sprintf("Set %s or run from a terminal", envVar))
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		FatalError("reading password: %v", err)
	}
	return string(pw)
}

// requireOrg resolves the working organization. With no --org and no
// configured name, a single-org database resolves to that org.
func requireOrg(ctx context.Context) *types.Organization {
	orgs, err := store.ListOrganizations(ctx)
	if err != nil {
		FatalError("listing organizations: %v", err)
	}
	if orgFlag != "" {
		for _, o := range orgs {
			if strings.EqualFold(o.Name, orgFlag) {
				return o
			}
		}
		FatalError("organization %q not found", orgFlag)
	}
	switch len(orgs) {
	case 0:
		FatalErrorWithHint("no organizations in database", "Run 'sc init' to create one")
	case 1:
		return orgs[0]
	}
	FatalErrorWithHint("multiple organizations in database", "Pass --org <name> or run 'sc config set org <name>'")
	return nil
}

// caller bundles the resolved organization, the acting user's row, and
// that user's role. Commands that enforce rank pass Role.Level through to
// the service layer.
type caller struct {
	Org  *types.Organization
	User *types.User
	Role *types.Role
}

func requireCaller(ctx context.Context) *caller {
	org := requireOrg(ctx)
	u, err := store.GetUserByUsername(ctx, org.ID, actor)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			FatalErrorWithHint(fmt.Sprintf("actor %q is not a member of %q", actor, org.Name),
				"Pass --actor <username>, set SHIFTCREW_ACTOR, or run 'sc config set actor <username>'")
		}
		FatalError("loading actor %q: %v", actor, err)
	}
	if !u.IsActive {
		FatalError("actor %q is deactivated", actor)
	}
	role, err := store.GetRole(ctx, u.RoleID)
	if err != nil {
		FatalError("loading role for %q: %v", actor, err)
	}
	return &caller{Org: org, User: u, Role: role}
}
