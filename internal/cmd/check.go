package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xdg/execpipe/internal/channel"
	"github.com/xdg/execpipe/internal/decoder"
	"github.com/xdg/execpipe/internal/term"
)

var checkCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Validate request messages without running them",
	Long: `Decode every line of FILE (or stdin) and report whether it is a valid
request, a JSON syntax error, or a message that doesn't match the request
schema. Nothing is executed. Exits with status 1 if any line failed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkSummary counts the outcome of a check run.
type checkSummary struct {
	Valid  int
	Failed int
}

func runCheck(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in, name = f, args[0]
	}

	sum, err := checkMessages(in, name)
	if err != nil {
		return err
	}
	term.Printf("%d valid, %d failed\n", sum.Valid, sum.Failed)
	if sum.Failed > 0 {
		return NewExitCodeError(1)
	}
	return nil
}

// checkMessages decodes every message from r and prints one status line per
// message.
func checkMessages(r io.Reader, name string) (checkSummary, error) {
	ch := channel.New(r,
		channel.WithName(name),
		channel.WithMaxLineBytes(currentConfig().Channel.MaxLineBytes),
	)
	dec := decoder.New(ch)

	var sum checkSummary
	for line := 1; ; line++ {
		res, err := dec.Next()
		switch {
		case err == nil:
			sum.Valid++
			term.Status(true, "line %d: %s %v", line, res.Request.Type(), res.Request)
		case errors.Is(err, decoder.ErrExiting):
			return sum, nil
		case decoder.Recoverable(err):
			sum.Failed++
			term.Status(false, "line %d: %v", line, err)
		default:
			return sum, fmt.Errorf("check %s: %w", name, err)
		}
	}
}
