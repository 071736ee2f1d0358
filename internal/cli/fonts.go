package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
)

func newFontsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "Copy framework fonts into the build directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			done := logging.StartTask(logger, "fonts")
			defer done()

			_, err := copyFonts(ctx, config.FromContext(ctx), logger)

			return err
		},
	}
}
