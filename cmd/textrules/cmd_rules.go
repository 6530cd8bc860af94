package main

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/paveg/textrules/internal/rules"
	"github.com/spf13/cobra"
)

func (a *app) newRulesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule templates and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := rules.Definitions()
			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(defs)
			}

			var b strings.Builder
			for i, def := range defs {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%s (type: %s, severity: %s)\n", def.Name, def.Type, def.Severity)
				fmt.Fprintf(&b, "  %s\n", def.Description)
				for _, p := range def.Params {
					fmt.Fprintf(&b, "  - %s", p.Key)
					if p.Default != "" {
						fmt.Fprintf(&b, " [default: %s]", p.Default)
					}
					if p.Description != "" {
						fmt.Fprintf(&b, ": %s", p.Description)
					}
					b.WriteByte('\n')
				}
			}
			_, err := fmt.Fprint(out, b.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the templates as JSON")
	return cmd
}
