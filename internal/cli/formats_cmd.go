package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabconv/internal/core"
)

type formatRow struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
	Input     bool   `json:"input"`
	Target    bool   `json:"target"`
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets := core.ConversionTargets()
			var rows []formatRow
			for _, f := range core.InputFormats() {
				rows = append(rows, formatRow{
					Key:       f.Key(),
					Label:     f.String(),
					Extension: f.Extension(),
					Input:     true,
					Target:    slices.Contains(targets, f),
				})
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tFORMAT\tEXTENSION\tREAD\tWRITE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Key, r.Label, r.Extension, yesNo(r.Input), yesNo(r.Target))
			}
			return tw.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
