package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
	"github.com/hupe1980/ionbuild/internal/output"
)

func newSassCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "sass",
		Short: "Compile the Sass entry point to CSS",
		Long: `Sass compiles the Sass entry point (default www/app/app.scss) with the
configured include paths, adds vendor prefixes for the configured
browser list and writes the stylesheet to the styles output directory.

Compilation errors are printed to stderr and do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)

			var w output.Writer
			if toStdout {
				w = output.NewStdoutWriter(cmd.OutOrStdout())
			}

			p, stop, err := newStylePipeline(cmd, cfg, logger, w)
			if err != nil {
				return err
			}
			defer stop()

			done := logging.StartTask(logger, "sass")
			p.Run(ctx)
			done()

			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the stylesheet to stdout instead of the output directory")

	return cmd
}
