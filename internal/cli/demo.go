package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcules/student-success/internal/demo"
)

func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dir  string
		rows int
		seed uint64
		k    int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a synthetic dataset and a demo model",
		Long: `Write a synthetic dataset (` + demo.DatasetFile + `) and a kNN model artifact
(` + demo.ModelFile + `) fitted on it. Serve them with "serve --demo" or by
pointing model.path and dataset.path at the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("dir") {
				dir = cfg.Demo.Dir
			}
			if !cmd.Flags().Changed("rows") {
				rows = cfg.Demo.Rows
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Demo.Seed
			}

			files, err := demo.Write(dir, demo.Config{Rows: rows, Seed: seed, K: k})
			if err != nil {
				return WrapExitError(ExitFailure, "write demo files", err)
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), files)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dataset: %s\nmodel:   %s\n", files.Dataset, files.Model)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "demo", "output directory")
	cmd.Flags().IntVar(&rows, "rows", 600, "number of synthetic students")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().IntVar(&k, "k", 15, "neighbours of the kNN model")
	return cmd
}
