package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
)

// registerServerFlags adds the flags shared by serve and watch. They bind to
// the top-level "port" and "livereload" config keys.
func registerServerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("port", config.DefaultPort, "development server port")
	f.Bool("livereload", false, "reload connected browsers after every rebuild")
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the www directory on a local web server",
		Long: `Serve starts a local web server for the application root
(default www/) at http://localhost:8100. Use --port to pick another port.

The server runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := interruptContext(cmd)
			defer stop()

			cfg := config.FromContext(ctx)
			logger := logging.FromContext(ctx)

			return serveHTTP(ctx, newServer(cfg, logger))
		},
	}

	registerServerFlags(cmd)

	return cmd
}
