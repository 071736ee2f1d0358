package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/assets"
	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
)

func newCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete previous build output",
		Long:  "Clean recursively removes the configured build paths (default www/build).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)

			var cleanErr error

			assets.Clean(cfg.Clean, func(removed []string, err error) {
				for _, p := range removed {
					logger.Info("removed", slog.String("path", p))
				}

				cleanErr = err
			})

			return cleanErr
		},
	}
}
