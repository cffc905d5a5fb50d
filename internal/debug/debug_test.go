package debug

import (
	"bytes"
	"io"
	"os"
	"testing"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and
// returns whatever fn wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	defer func() { os.Stdout = oldStdout }()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestEnabled(t *testing.T) {
	oldEnabled := enabled
	oldVerbose := verboseMode
	defer func() {
		enabled = oldEnabled
		verboseMode = oldVerbose
	}()

	enabled = false
	verboseMode = false
	if Enabled() {
		t.Error("Enabled() should be false with both gates off")
	}

	enabled = true
	if !Enabled() {
		t.Error("Enabled() should be true when env gate is set")
	}

	enabled = false
	SetVerbose(true)
	if !Enabled() {
		t.Error("Enabled() should be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if Enabled() {
		t.Error("Enabled() should be false after SetVerbose(false)")
	}
}

func TestLogf(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantOutput string
	}{
		{
			name:       "outputs when enabled",
			enabled:    true,
			wantOutput: "opened store: main.db\n",
		},
		{
			name:       "no output when disabled",
			enabled:    false,
			wantOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled := enabled
			oldStderr := os.Stderr
			defer func() {
				enabled = oldEnabled
				os.Stderr = oldStderr
			}()

			enabled = tt.enabled

			r, w, _ := os.Pipe()
			os.Stderr = w

			Logf("opened store: %s\n", "main.db")

			w.Close()
			var buf bytes.Buffer
			io.Copy(&buf, r)

			if got := buf.String(); got != tt.wantOutput {
				t.Errorf("Logf() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestPrintf(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantOutput string
	}{
		{
			name:       "outputs when enabled",
			enabled:    true,
			wantOutput: "dispatched 42 notifications\n",
		},
		{
			name:       "no output when disabled",
			enabled:    false,
			wantOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled := enabled
			defer func() { enabled = oldEnabled }()
			enabled = tt.enabled

			got := captureStdout(t, func() {
				Printf("dispatched %d notifications\n", 42)
			})
			if got != tt.wantOutput {
				t.Errorf("Printf() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestSetQuietAndIsQuiet(t *testing.T) {
	oldQuiet := quietMode
	defer func() { quietMode = oldQuiet }()

	quietMode = false

	if IsQuiet() {
		t.Error("IsQuiet() should be false initially")
	}

	SetQuiet(true)
	if !IsQuiet() {
		t.Error("IsQuiet() should be true after SetQuiet(true)")
	}

	SetQuiet(false)
	if IsQuiet() {
		t.Error("IsQuiet() should be false after SetQuiet(false)")
	}
}

func TestPrintNormal(t *testing.T) {
	tests := []struct {
		name       string
		quiet      bool
		wantOutput string
	}{
		{
			name:       "outputs when not quiet",
			quiet:      false,
			wantOutput: "created schedule for maria\n",
		},
		{
			name:       "no output when quiet",
			quiet:      true,
			wantOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldQuiet := quietMode
			defer func() { quietMode = oldQuiet }()
			quietMode = tt.quiet

			got := captureStdout(t, func() {
				PrintNormal("created schedule for %s\n", "maria")
			})
			if got != tt.wantOutput {
				t.Errorf("PrintNormal() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestPrintlnNormal(t *testing.T) {
	tests := []struct {
		name       string
		quiet      bool
		wantOutput string
	}{
		{
			name:       "outputs when not quiet",
			quiet:      false,
			wantOutput: "3 stores configured\n",
		},
		{
			name:       "no output when quiet",
			quiet:      true,
			wantOutput: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldQuiet := quietMode
			defer func() { quietMode = oldQuiet }()
			quietMode = tt.quiet

			got := captureStdout(t, func() {
				PrintlnNormal("3", "stores", "configured")
			})
			if got != tt.wantOutput {
				t.Errorf("PrintlnNormal() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}
