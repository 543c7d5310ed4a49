package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/goldbach/internal/checkpoint"
	"github.com/Sumatoshi-tech/goldbach/internal/resultlog"
)

// ResetCommand holds configuration for the reset command.
type ResetCommand struct {
	checkpointDir string
	force         bool
}

// NewResetCommand creates the reset command.
func NewResetCommand() *cobra.Command {
	rc := &ResetCommand{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear saved verification progress",
		Long:  "Delete the checkpoint and result log so the next run starts from scratch.",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: ~/.goldbach)")
	cmd.Flags().BoolVar(&rc.force, "force", false, "Delete without confirmation")

	return cmd
}

func (rc *ResetCommand) run(cmd *cobra.Command, _ []string) error {
	dir := rc.checkpointDir
	if dir == "" {
		dir = checkpoint.DefaultDir()
	}

	store, err := checkpoint.NewStore(dir)
	if err != nil {
		return err
	}

	if !store.Exists() {
		fmt.Fprintf(cmd.OutOrStdout(), "no saved progress in %s\n", dir)

		return nil
	}

	if !rc.force {
		fmt.Fprintf(cmd.OutOrStdout(),
			"would delete %s and the result log; re-run with --force to confirm\n", store.Path())

		return nil
	}

	clearErr := clearState(dir)
	if clearErr != nil {
		return clearErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "saved progress cleared from %s\n", dir)

	return nil
}

// clearState removes both the checkpoint and the result log.
func clearState(dir string) error {
	store, err := checkpoint.NewStore(dir)
	if err != nil {
		return err
	}

	clearErr := store.Clear()
	if clearErr != nil {
		return clearErr
	}

	return resultlog.Clear(dir)
}
