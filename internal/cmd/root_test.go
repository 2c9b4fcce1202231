package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xdg/execpipe/internal/term"
)

func TestRootCommand_Help(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("root command --help returned error: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"execpipe", "Usage:", "serve", "send", "check", "config"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\nGot: %s", want, output)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"--version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("root command --version returned error: %v", err)
	}
	if !strings.Contains(stdout.String(), "execpipe version") {
		t.Errorf("version output missing 'execpipe version'\nGot: %s", stdout.String())
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile = path

	err := setup(rootCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("setup() error = %v, want log.level error", err)
	}
}

func TestSetup_LoadsConfig(t *testing.T) {
	isolate(t)

	logFile := filepath.Join(t.TempDir(), "execpipe.log")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "channel:\n  max_line_bytes: 64\nlog:\n  file: " + logFile + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	configFile = path

	if err := setup(rootCmd, nil); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if got := currentConfig().Channel.MaxLineBytes; got != 64 {
		t.Errorf("MaxLineBytes = %d, want 64", got)
	}
	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file not opened: %v", err)
	}
}

func TestExecute_ReportsErrors(t *testing.T) {
	isolate(t)

	var stderr bytes.Buffer
	term.SetErrOutput(&stderr)
	rootCmd.SetArgs([]string{"check", filepath.Join(t.TempDir(), "missing.ndjson")})

	err := Execute()
	if err == nil {
		t.Fatal("Execute() expected error for missing file")
	}
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		t.Fatalf("missing file should not be an ExitCodeError")
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") {
		t.Errorf("stderr = %q, want an Error: line", stderr.String())
	}
}
