package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/goldbach/internal/checkpoint"
	"github.com/Sumatoshi-tech/goldbach/internal/plot"
)

// defaultChartPath is where render writes the chart when no output is given.
const defaultChartPath = "goldbach-representations.html"

// RenderCommand holds configuration for the render command.
type RenderCommand struct {
	checkpointDir string
	output        string
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	rc := &RenderCommand{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Plot representation counts from the result log",
		Long:  "Render the per-batch representation counts recorded by previous runs as an HTML chart.",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: ~/.goldbach)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", defaultChartPath, "Output HTML file")

	return cmd
}

func (rc *RenderCommand) run(cmd *cobra.Command, _ []string) error {
	dir := rc.checkpointDir
	if dir == "" {
		dir = checkpoint.DefaultDir()
	}

	writeErr := plot.WriteFile(dir, rc.output)
	if writeErr != nil {
		return writeErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", rc.output)

	return nil
}
