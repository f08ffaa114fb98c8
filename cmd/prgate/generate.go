package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/prgate/internal/adapter/driven/scaffold"
)

func generateConfigsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "generate-configs",
		Short: "Write the Dockerfile and main.tf templates",
		Long: `Write the Dockerfile and main.tf templates without starting the server.

Existing files with the same names are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				dir = cfg.ConfigOutputDir
			}
			if err := scaffold.NewEmitter(dir, logger).Generate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s to %s\n", scaffold.DockerfileName, scaffold.TerraformName, dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default: CONFIG_OUTPUT_DIR)")

	return cmd
}
