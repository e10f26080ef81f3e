package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rkellett/holdfast/internal/harness"
	"github.com/rkellett/holdfast/internal/scenario"
	"github.com/rkellett/holdfast/internal/snapshot"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database string
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or restore world snapshots",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to snapshot database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newSnapshotSaveCommand(opts))
	cmd.AddCommand(newSnapshotRestoreCommand(opts))

	return cmd
}

func newSnapshotSaveCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <scenario.yaml>",
		Short: "Run a scenario and save the resulting world",
		Long: `Execute a scenario against a fresh world, then save the world's final
state into the snapshot database.

Example:
  holdfast snapshot save --db world.db demo.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotSave(opts, args[0], cmd)
		},
	}
}

func newSnapshotRestoreCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <scenario.yaml>",
		Short: "Restore a snapshot into a fresh world",
		Long: `Restore the snapshot database into a fresh world whose attribute
registry comes from the scenario file's declarations. The restore runs
inside a global suppression scope; required-attribute checks flush once
after the whole batch lands.

Example:
  holdfast snapshot restore --db world.db demo.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotRestore(opts, args[0], cmd)
		},
	}
}

func runSnapshotSave(opts *SnapshotOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)

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

	result, err := harness.Run(s)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	st, err := snapshot.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open snapshot database", err)
	}
	defer closeStore(st)

	id, err := st.Save(result.World)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}

	return formatter.Success(fmt.Sprintf("snapshot %s saved to %s", id, opts.Database))
}

func runSnapshotRestore(opts *SnapshotOptions, path string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)

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

	w, _, err := harness.NewWorldFor(s)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build attribute registry", err)
	}

	st, err := snapshot.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open snapshot database", err)
	}
	defer closeStore(st)

	stats, err := st.Restore(w)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore snapshot", err)
	}

	return formatter.Success(fmt.Sprintf("snapshot %s restored: %d entities, %d attributes",
		stats.SnapshotID, stats.Entities, stats.Attributes))
}

func closeStore(st *snapshot.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing snapshot database", "error", err)
	}
}
