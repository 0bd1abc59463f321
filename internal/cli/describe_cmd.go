package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabconv/internal/core"
)

type describeOutcome struct {
	Input   string            `json:"input"`
	Format  string            `json:"format,omitempty"`
	Summary *core.Summary     `json:"summary,omitempty"`
	Error   *core.UserMessage `json:"error,omitempty"`
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe FILE...",
		Short: "Show column statistics for files",
		Long:  "Describe parses each file and prints per-column counts, missing values and statistics.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, data, failed := readInputs(cmd, args)
			if len(names) == 0 {
				return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(args))
			}

			svc := core.NewService(core.ServiceConfig{MaxFiles: len(names)}, nil)
			files := make([]core.UploadedFile, len(names))
			for i := range names {
				files[i] = core.UploadedFile{Name: filepath.Base(names[i]), Data: data[i]}
			}
			batch, err := svc.ProcessBatch(cmd.Context(), files)
			if err != nil {
				return err
			}

			outcomes := make([]describeOutcome, 0, len(batch.Files))
			for i, f := range batch.Files {
				out := describeOutcome{Input: names[i], Format: f.Format}
				if f.Err != nil {
					out.Error = f.Error
					reportFailure(cmd, names[i], f.Err)
					failed++
				} else if s, err := svc.Summary(f.SessionID); err != nil {
					out.Error = outcomeError(err)
					failed++
				} else {
					out.Summary = &s
				}
				outcomes = append(outcomes, out)
			}

			if err := printDescribe(cmd, outcomes); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func printDescribe(cmd *cobra.Command, outcomes []describeOutcome) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), outcomes)
	}

	w := cmd.OutOrStdout()
	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if o.Error != nil {
			fmt.Fprintf(w, "%s: failed: %s (%s)\n", o.Input, o.Error.Message, o.Error.Code)
			continue
		}
		fmt.Fprintf(w, "%s (%s): %d rows, %d columns\n", o.Input, o.Format, o.Summary.Rows, o.Summary.Columns)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tKIND\tCOUNT\tMISSING\tMEAN\tSTD\tMIN\tMEDIAN\tMAX\tUNIQUE\tTOP")
		for _, f := range o.Summary.Fields {
			mean, std, lo, med, hi := "-", "-", "-", "-", "-"
			unique, top := "-", "-"
			if n := f.Numeric; n != nil {
				mean, std, lo, med, hi = fmtFloat(n.Mean), fmtFloat(n.Std), fmtFloat(n.Min), fmtFloat(n.P50), fmtFloat(n.Max)
			}
			if c := f.Categorical; c != nil {
				unique = strconv.Itoa(c.Unique)
				if c.Freq > 0 {
					top = fmt.Sprintf("%s (%d)", c.Top, c.Freq)
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				f.Name, f.Kind, f.Count, f.Missing, mean, std, lo, med, hi, unique, top)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
