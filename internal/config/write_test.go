package config

import (
	"os"
	"testing"
)

func TestWriteDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	created, err := WriteDefaultConfig()
	if err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}
	if !created {
		t.Error("WriteDefaultConfig() created = false on first call")
	}

	info, err := os.Stat(Path())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
	data, _ := os.ReadFile(Path())
	if string(data) != defaultConfigTemplate {
		t.Error("written file does not match the default template")
	}
}

func TestWriteDefaultConfig_DoesNotOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := EnsureDir(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(), []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	created, err := WriteDefaultConfig()
	if err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}
	if created {
		t.Error("WriteDefaultConfig() created = true for existing file")
	}
	data, _ := os.ReadFile(Path())
	if string(data) != "log:\n  level: debug\n" {
		t.Errorf("existing file overwritten: %q", data)
	}
}
