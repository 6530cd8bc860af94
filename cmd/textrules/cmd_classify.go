package main

import (
	"fmt"
	"io"

	"github.com/paveg/textrules/internal/sortkind"
	"github.com/paveg/textrules/internal/textio"
	"github.com/spf13/cobra"
)

func (a *app) newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [values...]",
		Short: "Print the sort kind chosen for each value",
		Long: `Print the sort kind chosen for each value: datetime, currency, numeric
or none, with the sort function it selects. Values are read one per line
from stdin when none are given. Bytes that are not valid UTF-8 are ignored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, arg := range args {
					if err := printKind(out, arg, sortkind.ClassifyBytes([]byte(arg))); err != nil {
						return err
					}
				}
				return nil
			}

			return textio.ScanLines(cmd.InOrStdin(), func(_ int, text string) error {
				return printKind(out, text, sortkind.Classify(text))
			})
		},
	}
}

func printKind(w io.Writer, value string, kind sortkind.Kind) error {
	sortFunc := kind.SortFunc()
	if sortFunc == "" {
		sortFunc = "-"
	}
	_, err := fmt.Fprintf(w, "%s\t%s\t%s\n", kind, sortFunc, textio.Sanitize([]byte(value)))
	return err
}
