package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// KnownKeys are the configuration keys `sc config set` accepts. Everything
// is stored in .shiftcrew/config.yaml; there is no database-backed config.
var KnownKeys = map[string]bool{
	"json":      true,
	"db":        true,
	"actor":     true,
	"org":       true,
	"listen":    true,
	"log-level": true,

	"auth.secret":    true,
	"auth.token-ttl": true,

	"notify.interval":   true,
	"notify.batch-size": true,
}

// IsKnownKey reports whether key is a recognized configuration key.
func IsKnownKey(key string) bool {
	if KnownKeys[key] {
		return true
	}
	// Nested sections accept arbitrary subkeys (cors.origins etc).
	for _, prefix := range []string{"auth.", "notify.", "cors."} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// SetYamlConfig writes a configuration value into the project's config.yaml,
// updating an existing (possibly commented-out) line in place or appending
// the key at the end.
func SetYamlConfig(key, value string) error {
	configPath, err := findProjectConfigYaml()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config.yaml: %w", err)
	}

	newContent := updateYamlKey(string(content), key, value)

	if err := os.WriteFile(configPath, []byte(newContent), 0600); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return nil
}

// UnsetYamlConfig comments out a key's line in the project's config.yaml so
// the default takes over again. The value survives as a comment and a later
// SetYamlConfig uncomments it in place.
func UnsetYamlConfig(key string) error {
	configPath, err := findProjectConfigYaml()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config.yaml: %w", err)
	}

	newContent, found := commentOutYamlKey(string(content), key)
	if !found {
		return fmt.Errorf("%s is not set in %s", key, configPath)
	}

	if err := os.WriteFile(configPath, []byte(newContent), 0600); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return nil
}

// GetYamlConfig returns the effective value for a key, or "" when unset.
func GetYamlConfig(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// findProjectConfigYaml walks up from the working directory looking for
// .shiftcrew/config.yaml.
func findProjectConfigYaml() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		configPath := filepath.Join(dir, ".shiftcrew", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", fmt.Errorf("no .shiftcrew/config.yaml found (run 'sc init' first)")
}

// updateYamlKey rewrites the line for key in yaml content, uncommenting it
// if necessary and preserving indentation. Unknown keys are appended.
func updateYamlKey(content, key, value string) string {
	newLine := fmt.Sprintf("%s: %s", key, formatYamlValue(value))
	keyPattern := regexp.MustCompile(`^(\s*)(#\s*)?` + regexp.QuoteMeta(key) + `\s*:`)

	lines := strings.Split(content, "\n")
	// Trailing newline produces an empty final element; drop it so the
	// append path does not insert a stray blank line mid-file.
	trailingNewline := false
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
		trailingNewline = true
	}

	found := false
	for i, line := range lines {
		m := keyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + newLine
		found = true
	}

	if !found {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, newLine)
		trailingNewline = true
	}

	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	return out
}

// commentOutYamlKey prefixes the key's line with "# ", keeping indentation.
// Already-commented lines are left alone and do not count as found.
func commentOutYamlKey(content, key string) (string, bool) {
	keyPattern := regexp.MustCompile(`^(\s*)` + regexp.QuoteMeta(key) + `\s*:`)

	lines := strings.Split(content, "\n")
	found := false
	for i, line := range lines {
		m := keyPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + "# " + strings.TrimPrefix(line, m[1])
		found = true
	}
	return strings.Join(lines, "\n"), found
}

// formatYamlValue quotes a value when YAML would otherwise misparse it.
func formatYamlValue(value string) string {
	lower := strings.ToLower(value)
	if lower == "true" || lower == "false" {
		return lower
	}
	if isNumeric(value) || isDuration(value) {
		return value
	}
	if needsQuoting(value) {
		return fmt.Sprintf("%q", value)
	}
	return value
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '-' && i == 0 {
			continue
		}
		if c == '.' {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isDuration(s string) bool {
	if len(s) < 2 {
		return false
	}
	suffix := s[len(s)-1]
	if suffix != 's' && suffix != 'm' && suffix != 'h' {
		return false
	}
	return isNumeric(s[:len(s)-1])
}

func needsQuoting(s string) bool {
	if strings.ContainsAny(s, ":#[]{},&*!|>'\"%@`") {
		return true
	}
	return strings.TrimSpace(s) != s
}
