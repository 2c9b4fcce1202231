package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xdg/execpipe/internal/audit"
	"github.com/xdg/execpipe/internal/channel"
	"github.com/xdg/execpipe/internal/clog"
	"github.com/xdg/execpipe/internal/config"
	"github.com/xdg/execpipe/internal/decoder"
	"github.com/xdg/execpipe/internal/dispatch"
	"github.com/xdg/execpipe/internal/server"
	"github.com/xdg/execpipe/internal/term"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Read requests and run them",
	Long: `Read command requests and run each one as it arrives.

By default requests are read from an inherited descriptor (--fd, stdin unless
configured otherwise) until it reaches end of input. The descriptor is marked
close-on-exec so commands never inherit it.

With --socket, execpipe listens on a Unix socket instead. Every connection is
an independent request channel, and the server runs until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("fd", 0, "descriptor to read requests from")
	cmd.Flags().String("socket", "", "listen on this Unix socket instead of reading a descriptor")
	cmd.Flags().Duration("timeout", 0, "kill commands running longer than this")
	cmd.Flags().Bool("inherit-env", false, "start commands with execpipe's environment plus the request's")
}

// serveOptions merges explicitly set flags over the loaded configuration.
func serveOptions(cmd *cobra.Command) (*config.Config, error) {
	cfg := *currentConfig()
	flags := cmd.Flags()

	if flags.Changed("fd") {
		cfg.Channel.FD, _ = flags.GetInt("fd")
	}
	if flags.Changed("socket") {
		socket, _ := flags.GetString("socket")
		cfg.Channel.Socket = config.ExpandHome(socket)
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.Dispatch.Timeout = timeout.String()
		if timeout == 0 {
			cfg.Dispatch.Timeout = ""
		}
	}
	if flags.Changed("inherit-env") {
		cfg.Dispatch.InheritEnv, _ = flags.GetBool("inherit-env")
	}

	if err := config.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveOptions(cmd)
	if err != nil {
		return err
	}

	d := dispatch.NewProcessDispatcher(
		dispatch.WithTimeout(cfg.DispatchTimeout()),
		dispatch.WithInheritEnv(cfg.Dispatch.InheritEnv),
		dispatch.WithStdio(nil, cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)

	auditLog, closeAudit, err := openAudit(cfg.Log.AuditFile)
	if err != nil {
		return err
	}
	defer closeAudit()

	if cfg.Channel.Socket != "" {
		return serveSocket(cmd.Context(), cfg, d, auditLog)
	}
	return serveDescriptor(cmd.Context(), cfg, d, auditLog)
}

// openAudit opens the audit log at path. An empty path gives a nil logger,
// which discards events.
func openAudit(path string) (*audit.Logger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := clog.OpenLogFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log: %w", err)
	}
	return audit.NewLogger(f), func() { _ = f.Close() }, nil
}

// serveDescriptor reads one request channel until it closes.
func serveDescriptor(ctx context.Context, cfg *config.Config, d dispatch.Dispatcher, auditLog *audit.Logger) error {
	name := fmt.Sprintf("fd %d", cfg.Channel.FD)
	if cfg.Channel.FD == 0 {
		name = "stdin"
	}

	ch, err := channel.Open(uintptr(cfg.Channel.FD), name, channel.WithMaxLineBytes(cfg.Channel.MaxLineBytes))
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if ch.IsTerminal() {
		term.Warn("reading requests from a terminal; end input with Ctrl-D")
	}
	clog.Info("serving requests from %s", ch.Name())

	_, err = server.Serve(ctx, decoder.New(ch), d,
		server.WithChannelName(ch.Name()),
		server.WithAudit(auditLog),
	)
	if err != nil {
		return fmt.Errorf("serve %s: %w", ch.Name(), err)
	}
	return nil
}

// serveSocket accepts request channels on a Unix socket until interrupted.
func serveSocket(ctx context.Context, cfg *config.Config, d dispatch.Dispatcher, auditLog *audit.Logger) error {
	srv := server.NewSocketServer(cfg.Channel.Socket, d,
		server.WithMaxLineBytes(cfg.Channel.MaxLineBytes),
		server.WithAuditLog(auditLog),
	)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start socket server: %w", err)
	}
	clog.Info("listening on %s", srv.SocketPath())
	term.Println("Listening on", srv.SocketPath())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	clog.Info("shutting down socket server")
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stop socket server: %w", err)
	}
	return nil
}
