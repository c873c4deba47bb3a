package main

import (
	"github.com/spf13/cobra"

	"hiveform-gen/internal/pipeline"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate form modules once",
		Long: `Scan the source directories, resolve every form context and write the
modules whose content changed. Unchanged modules are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			report, err := p.Generate(ctx, dryRun)
			if err != nil {
				return err
			}

			return logDiagnostics(logger, report.Diagnostics)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report what would be written without writing")

	return cmd
}
