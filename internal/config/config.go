// Package config manages CLI and server configuration through a viper
// singleton. Values are resolved with the priority
//
//	command-line flags > environment (SHIFTCREW_*) > .shiftcrew/config.yaml > defaults
//
// Flag precedence is enforced by the command layer; this package covers the
// remaining three levels.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize builds the viper instance: defaults, SHIFTCREW_* environment
// binding, and the nearest .shiftcrew/config.yaml discovered by walking up
// from the working directory. A missing config file is not an error.
func Initialize() error {
	nv := viper.New()

	nv.SetDefault("json", false)
	nv.SetDefault("db", "")
	nv.SetDefault("actor", "")
	nv.SetDefault("org", "")
	nv.SetDefault("listen", ":8080")
	nv.SetDefault("log-level", "info")
	nv.SetDefault("auth.secret", "")
	nv.SetDefault("auth.token-ttl", 24*time.Hour)
	nv.SetDefault("cors.origins", []string{})
	nv.SetDefault("notify.interval", 30*time.Second)
	nv.SetDefault("notify.batch-size", 50)

	nv.SetEnvPrefix("SHIFTCREW")
	nv.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	nv.AutomaticEnv()

	if path, err := findProjectConfigYaml(); err == nil {
		nv.SetConfigFile(path)
		if err := nv.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	v = nv
	return nil
}

// ConfigFileUsed returns the path of the loaded config file, or "" when
// running on defaults and environment only.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// All getters are nil-safe so commands that run before Initialize (or in
// tests that skip it) see zero values instead of a panic.

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	return v.GetStringSlice(key)
}

// Set writes a value into the in-memory config (not persisted to disk).
func Set(key string, value interface{}) {
	if v == nil {
		return
	}
	v.Set(key, value)
}

// AllSettings returns the merged view of every config source.
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// Override records a flag explicitly set on the command line that shadows a
// different value from the config file or environment.
type Override struct {
	Key         string
	FlagValue   interface{}
	ConfigValue interface{}
}

// CheckOverrides compares explicitly-set flags against configured values and
// returns the ones that differ, sorted by key.
func CheckOverrides(flags map[string]struct {
	Value  interface{}
	WasSet bool
}) []Override {
	if v == nil {
		return nil
	}
	var overrides []Override
	for key, flag := range flags {
		if !flag.WasSet || !v.IsSet(key) {
			continue
		}
		configValue := v.Get(key)
		if fmt.Sprintf("%v", configValue) != fmt.Sprintf("%v", flag.Value) {
			overrides = append(overrides, Override{Key: key, FlagValue: flag.Value, ConfigValue: configValue})
		}
	}
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].Key < overrides[j].Key })
	return overrides
}

// LogOverride prints a single override notice to stderr.
func LogOverride(o Override) {
	source := "config"
	if path := ConfigFileUsed(); path != "" {
		source = filepath.Base(path)
	}
	fmt.Fprintf(os.Stderr, "note: --%s=%v overrides %v from %s\n", o.Key, o.FlagValue, o.ConfigValue, source)
}
