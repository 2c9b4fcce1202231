package cmd

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/config"
	"github.com/xdg/execpipe/internal/request"
)

var sendCmd = &cobra.Command{
	Use:   "send [flags] -- PATH [ARGS...]",
	Short: "Encode a command request",
	Long: `Encode a command request and write it to stdout or to a serving socket.

PATH is the program to run and also becomes the first argument unless --argv0
is given. Each --env KEY=VALUE adds one environment entry, in order. With
--inherit-env the current environment is sent first.

Examples:
  execpipe send -- /bin/echo hello
  execpipe send --env LANG=C --socket /run/execpipe.sock -- /usr/bin/make -C src`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	addSendFlags(sendCmd)
	rootCmd.AddCommand(sendCmd)
}

func addSendFlags(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "write the request to this Unix socket")
	cmd.Flags().StringArray("env", nil, "environment entry KEY=VALUE (repeatable)")
	cmd.Flags().String("argv0", "", "first argument, when it should differ from PATH")
	cmd.Flags().Bool("inherit-env", false, "include the current environment")
}

// commandFromArgs builds the request described by the send flags.
func commandFromArgs(cmd *cobra.Command, args []string) (*request.CommandRequest, error) {
	flags := cmd.Flags()
	env, _ := flags.GetStringArray("env")
	argv0, _ := flags.GetString("argv0")
	inherit, _ := flags.GetBool("inherit-env")

	c := &request.CommandRequest{
		Path: args[0],
		Argv: append([]string(nil), args...),
	}
	if argv0 != "" {
		c.Argv[0] = argv0
	}

	var envp []string
	if inherit {
		envp = os.Environ()
	}
	for _, entry := range env {
		if !strings.Contains(entry, "=") {
			return nil, fmt.Errorf("--env %q: expected KEY=VALUE", entry)
		}
		envp = append(envp, entry)
	}
	c.Envp = mergeEnv(envp)
	return c, nil
}

// mergeEnv drops earlier entries for a key that appears again, keeping the
// position of the first occurrence.
func mergeEnv(envp []string) []string {
	index := make(map[string]int, len(envp))
	merged := make([]string, 0, len(envp))
	for _, entry := range envp {
		key, _, _ := strings.Cut(entry, "=")
		if i, ok := index[key]; ok {
			merged[i] = entry
			continue
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := commandFromArgs(cmd, args)
	if err != nil {
		return err
	}
	msg, err := request.EncodeCommand(c)
	if err != nil {
		return err
	}

	socket, _ := cmd.Flags().GetString("socket")
	if socket == "" {
		_, err = cmd.OutOrStdout().Write(msg)
		return err
	}
	return sendToSocket(config.ExpandHome(socket), msg)
}

func sendToSocket(path string, msg []byte) error {
	conn, err := net.DialTimeout("unix", path, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", path, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write(msg); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	clog.Debug("sent %d byte request to %s", len(msg), path)
	return nil
}
