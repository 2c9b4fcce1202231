package cmd

import (
	"log"
	"os"
	"testing"

	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/term"
)

// isolate points every XDG and home directory at temp dirs and restores the
// package globals the commands mutate.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	t.Cleanup(func() {
		_ = clog.Close()
		clog.Reset()
		term.Reset()
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
		configFile = ""
		debugLog = false
		silentMode = false
		appConfig = nil
	})
	clog.Discard()
	term.Discard()
}
