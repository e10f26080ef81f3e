package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rkellett/holdfast/internal/scenario"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>",
		Short: "Validate a scenario file without executing it",
		Long: `Validate a scenario file against the schema and its internal references
without executing anything. Faster feedback than run during authoring.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scenario", err)
	}

	if _, err := scenario.Parse(raw); err != nil {
		if formatter.Format == "json" {
			_ = formatter.Success(ValidationResult{Valid: false, Error: err.Error()})
		} else {
			_ = formatter.Error("invalid_scenario", err.Error())
		}
		return NewExitError(ExitFailure, "scenario is invalid")
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success(fmt.Sprintf("%s is valid", path))
}
