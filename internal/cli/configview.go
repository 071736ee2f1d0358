package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/term"
	"github.com/hupe1980/ionbuild/internal/textdiff"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newConfigViewCommand())

	return cmd
}

func newConfigViewCommand() *cobra.Command {
	var (
		diff   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration as YAML",
		Long: `View prints the configuration after merging defaults, the config
file, IONBUILD_* environment variables and flags.

With --diff only the differences from the built-in defaults are shown
as a unified diff.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			switch format {
			case "yaml":
			case "json":
				if diff {
					return &ExitError{Code: 2, Err: errors.New("--diff is only supported with --format yaml")}
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")

				return enc.Encode(cfg)
			default:
				return &ExitError{Code: 2, Err: fmt.Errorf("unsupported format %q: must be yaml or json", format)}
			}

			effective, err := marshalConfig(cfg)
			if err != nil {
				return err
			}

			if !diff {
				_, err = fmt.Fprint(cmd.OutOrStdout(), effective)
				return err
			}

			defaults, err := marshalConfig(config.Default())
			if err != nil {
				return err
			}

			res, err := textdiff.Compute(defaults, effective, textdiff.DefaultOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			textdiff.Write(out, res, term.NewPainter(term.ColorEnabled(out, cfg.NoColor)))

			return nil
		},
	}

	cmd.Flags().BoolVar(&diff, "diff", false, "show a unified diff against the defaults")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml, json")

	return cmd
}

func marshalConfig(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	return string(data), nil
}
