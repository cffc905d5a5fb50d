package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shiftcrew/shiftcrew/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Manage configuration settings",
	Long: `Manage settings in the workspace .shiftcrew/config.yaml.

Flags and SHIFTCREW_* environment variables take precedence over the file;
'sc config list' shows the effective values after all layers are applied.

Known keys:
  db, org, actor, listen, log-level, json
  auth.secret, auth.token-ttl
  notify.interval, notify.batch-size
  cors.origins

Examples:
  sc config set org "Acme Diner"
  sc config set actor maria
  sc config set notify.interval 10s
  sc config get org
  sc config list
  sc config unset actor`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		if !config.IsKnownKey(key) {
			fmt.Fprintf(os.Stderr, "Error: unknown config key %q\n", key)
			fmt.Fprintf(os.Stderr, "Hint: see 'sc config --help' for known keys\n")
			os.Exit(1)
		}

		if err := config.SetYamlConfig(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{
				"key":   key,
				"value": value,
			})
		} else {
			fmt.Printf("Set %s = %s\n", key, value)
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		key := args[0]
		value := config.GetYamlConfig(key)

		if jsonOutput {
			outputJSON(map[string]string{
				"key":   key,
				"value": value,
			})
			return
		}

		if value == "" {
			fmt.Printf("%s (not set)\n", key)
		} else {
			fmt.Printf("%s\n", value)
		}
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective configuration",
	Run: func(_ *cobra.Command, args []string) {
		settings := config.AllSettings()

		if jsonOutput {
			outputJSON(settings)
			return
		}

		if len(settings) == 0 {
			fmt.Println("No configuration set")
			return
		}

		// Sort keys for consistent output
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("\nConfiguration:")
		for _, k := range keys {
			fmt.Printf("  %s = %v\n", k, settings[k])
		}

		if file := config.ConfigFileUsed(); file != "" {
			fmt.Printf("\nFile: %s\n", file)
		}
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		key := args[0]

		if err := config.UnsetYamlConfig(key); err != nil {
			fmt.Fprintf(os.Stderr, "Error unsetting config: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{
				"key":   key,
				"unset": "true",
			})
		} else {
			fmt.Printf("Unset %s\n", key)
		}
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}
