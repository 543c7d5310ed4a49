package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/goldbach/internal/checkpoint"
	"github.com/Sumatoshi-tech/goldbach/internal/config"
)

// defaultConfigPath is where init writes the config file.
const defaultConfigPath = ".goldbach.yaml"

// configFilePerm is the permission mode for the generated config file.
const configFilePerm = 0o600

// InitCommand holds configuration for the init command.
type InitCommand struct {
	output string
	force  bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	ic := &InitCommand{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE:  ic.run,
	}

	cmd.Flags().StringVarP(&ic.output, "output", "o", defaultConfigPath, "Config file path to write")
	cmd.Flags().BoolVar(&ic.force, "force", false, "Overwrite an existing file")

	return cmd
}

func (ic *InitCommand) run(cmd *cobra.Command, _ []string) error {
	if !ic.force {
		_, statErr := os.Stat(ic.output)
		if statErr == nil {
			return fmt.Errorf("%s already exists; use --force to overwrite", ic.output)
		}
	}

	data, marshalErr := yaml.Marshal(defaultConfigDocument())
	if marshalErr != nil {
		return fmt.Errorf("marshal config: %w", marshalErr)
	}

	writeErr := os.WriteFile(ic.output, data, configFilePerm)
	if writeErr != nil {
		return fmt.Errorf("write config: %w", writeErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", ic.output)

	return nil
}

// defaultConfigDocument mirrors the loader defaults so a generated file and
// an absent file behave identically.
func defaultConfigDocument() map[string]any {
	return map[string]any{
		"range": map[string]any{
			"n_initial": config.DefaultNInitial,
			"n_final":   config.DefaultNFinal,
		},
		"pipeline": map[string]any{
			"workers":                       config.DefaultWorkers(),
			"batch_size":                    config.DefaultBatchSize,
			"memory_budget":                 config.DefaultMemoryBudget,
			"segment_size":                  config.DefaultSegmentSize,
			"worker_timeout":                config.DefaultWorkerTimeout,
			"max_batch_retries":             config.DefaultMaxBatchRetries,
			"count_representations":         false,
			"continue_after_counterexample": false,
		},
		"checkpoint": map[string]any{
			"enabled":       config.DefaultCheckpointEnabled,
			"dir":           checkpoint.DefaultDir(),
			"resume":        config.DefaultCheckpointResume,
			"save_interval": config.DefaultSaveInterval,
		},
		"observability": map[string]any{
			"listen_addr":       "",
			"progress_interval": config.DefaultProgressInterval,
		},
	}
}
