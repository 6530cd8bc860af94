package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/paveg/textrules/internal/version"
	"github.com/spf13/cobra"
)

func (a *app) newVersionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Info()
			out := cmd.OutOrStdout()

			switch {
			case asJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case short:
				_, err := fmt.Fprintln(out, info.Short())
				return err
			default:
				_, err := fmt.Fprint(out, info.String())
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print the version on one line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}
