package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rkellett/holdfast/internal/expect"
	"github.com/rkellett/holdfast/internal/harness"
	"github.com/rkellett/holdfast/internal/scenario"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute a scenario and print its trace",
		Long: `Execute a scenario file against a fresh world.

The scenario is vetted against the schema, executed step by step, and the
resulting trace is printed. A requirement violation fails the run with
exit code 1; a malformed scenario exits 2.

Example:
  holdfast run demo.yaml
  holdfast run --format json demo.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("scenario %q loaded: %d steps", s.Name, len(s.Steps))

	result, err := harness.Run(s)
	if err != nil {
		var violation *expect.ViolationError
		if errors.As(err, &violation) {
			// Print the partial trace so the failing step is visible.
			printTrace(formatter, result)
			return WrapExitError(ExitFailure, "requirement violation", err)
		}
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	printTrace(formatter, result)
	return nil
}

func printTrace(formatter *OutputFormatter, result *harness.Result) {
	if result == nil {
		return
	}
	if formatter.Format == "json" {
		_ = json.NewEncoder(formatter.Writer).Encode(result)
		return
	}
	fmt.Fprintf(formatter.Writer, "scenario %s: %d events\n", result.Scenario, len(result.Trace))
	for _, ev := range result.Trace {
		line := fmt.Sprintf("%4d  %-9s", ev.Seq, ev.Op)
		if ev.Entity != "" {
			line += " " + ev.Entity
		}
		if ev.Attr != "" {
			line += " " + ev.Attr
		}
		if ev.Value != nil {
			line += fmt.Sprintf("=%v", ev.Value)
		}
		if ev.Phase != "" {
			line += " @" + ev.Phase
		}
		if ev.Detail != "" {
			line += "  (" + ev.Detail + ")"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
}

// configureLogging switches slog level based on the verbose flag.
func configureLogging(opts *RootOptions) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
