package ui

import (
	"os"
	"testing"
)

func clearColorEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE"} {
		// t.Setenv registers the restore; unset to get a clean slate.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		noColor       string
		cliColor      string
		cliColorForce string
		wantColor     bool
	}{
		{
			name:      "NO_COLOR disables color",
			noColor:   "1",
			wantColor: false,
		},
		{
			name:      "non-TTY without overrides disables color",
			wantColor: false, // under go test, stdout is not a TTY
		},
		{
			name:      "CLICOLOR=0 disables color",
			cliColor:  "0",
			wantColor: false,
		},
		{
			name:          "CLICOLOR_FORCE enables color even in non-TTY",
			cliColorForce: "1",
			wantColor:     true,
		},
		{
			name:          "NO_COLOR takes precedence over CLICOLOR_FORCE",
			noColor:       "1",
			cliColorForce: "1",
			wantColor:     false,
		},
		{
			name:          "CLICOLOR_FORCE=0 does not force",
			cliColorForce: "0",
			wantColor:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearColorEnv(t)
			if tt.noColor != "" {
				t.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.cliColor != "" {
				t.Setenv("CLICOLOR", tt.cliColor)
			}
			if tt.cliColorForce != "" {
				t.Setenv("CLICOLOR_FORCE", tt.cliColorForce)
			}

			if got := ShouldUseColor(); got != tt.wantColor {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.wantColor)
			}
		})
	}
}

func TestIsAgentMode(t *testing.T) {
	t.Setenv("SHIFTCREW_AGENT", "")
	os.Unsetenv("SHIFTCREW_AGENT")
	if IsAgentMode() {
		t.Error("IsAgentMode() = true with no env var")
	}

	t.Setenv("SHIFTCREW_AGENT", "1")
	if !IsAgentMode() {
		t.Error("IsAgentMode() = false with SHIFTCREW_AGENT=1")
	}
}

func TestIsTerminal(t *testing.T) {
	// Under go test, stdout is typically not a TTY; just verify no panic.
	t.Logf("IsTerminal() = %v (expected false in test environment)", IsTerminal())
}
