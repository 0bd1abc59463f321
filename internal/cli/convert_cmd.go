package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabconv/internal/core"
)

var errFilesFailed = errors.New("one or more files failed")

// convertOutcome is one line of the convert report.
type convertOutcome struct {
	Input   string             `json:"input"`
	Output  string             `json:"output,omitempty"`
	Rows    int                `json:"rows"`
	Columns int                `json:"columns"`
	Cleaned []core.CleanReport `json:"cleaned,omitempty"`
	Error   *core.UserMessage  `json:"error,omitempty"`
}

func newConvertCmd() *cobra.Command {
	var (
		to          string
		clean       []string
		columns     []string
		outDir      string
		maxFileSize int64
	)

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Convert files to another format",
		Long: `Convert parses each file, applies the cleaning directives in order, keeps
the selected columns and writes the result next to --out with the target
extension. Files are processed one after another; a file that fails is
reported and skipped. The exit status is 1 when any file failed.`,
		Example: `  tabconv convert --to json report.xlsx
  tabconv convert --to parquet --clean remove-duplicates --clean fill-missing-mean data/*.csv
  tabconv convert --to csv --columns region,revenue --out exports report.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := core.ParseFormat(to)
			if err != nil {
				return err
			}
			directives := make([]core.Directive, 0, len(clean))
			for _, c := range clean {
				d, err := core.ParseDirective(c)
				if err != nil {
					return err
				}
				directives = append(directives, d)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			outcomes, failed := runConvert(cmd.Context(), cmd, args, convertOptions{
				target:      target,
				directives:  directives,
				columns:     columns,
				outDir:      outDir,
				maxFileSize: maxFileSize,
			})
			if err := printConvertReport(cmd, outcomes); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "Target format (csv, excel, json, parquet)")
	cmd.Flags().StringArrayVar(&clean, "clean", nil, "Cleaning directive, repeatable (remove-duplicates, fill-missing-mean)")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Columns to keep, in order")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", core.DefaultMaxFileSize, "Maximum input file size in bytes")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

type convertOptions struct {
	target      core.Format
	directives  []core.Directive
	columns     []string
	outDir      string
	maxFileSize int64
}

func runConvert(ctx context.Context, cmd *cobra.Command, paths []string, opts convertOptions) ([]convertOutcome, int) {
	if ctx == nil {
		ctx = context.Background()
	}
	names, data, failed := readInputs(cmd, paths)
	if len(names) == 0 {
		return nil, failed
	}

	svc := core.NewService(core.ServiceConfig{MaxFileSize: opts.maxFileSize, MaxFiles: len(names)}, nil)
	files := make([]core.UploadedFile, len(names))
	for i := range names {
		files[i] = core.UploadedFile{Name: filepath.Base(names[i]), Data: data[i]}
	}
	batch, err := svc.ProcessBatch(ctx, files)
	if err != nil {
		reportFailure(cmd, "batch", err)
		return nil, failed + len(names)
	}

	outcomes := make([]convertOutcome, 0, len(batch.Files))
	written := make(map[string]string, len(batch.Files))
	for i, f := range batch.Files {
		out := convertOutcome{Input: names[i]}
		if err := convertOne(ctx, svc, f, names[i], opts, written, &out); err != nil {
			out.Error = outcomeError(err)
			reportFailure(cmd, names[i], err)
			failed++
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, failed
}

// convertOne runs one file through the pipeline and writes its artifact.
// written maps absolute output paths to the input that produced them, so two
// inputs sharing a base name cannot overwrite each other.
func convertOne(ctx context.Context, svc *core.Service, f core.FileResult, input string, opts convertOptions, written map[string]string, out *convertOutcome) error {
	if f.Err != nil {
		return f.Err
	}
	defer func() { _ = svc.Discard(ctx, f.SessionID) }()

	for _, d := range opts.directives {
		report, err := svc.Clean(ctx, f.SessionID, d)
		if err != nil {
			return err
		}
		out.Cleaned = append(out.Cleaned, report)
	}
	if len(opts.columns) > 0 {
		if err := svc.Project(ctx, f.SessionID, opts.columns); err != nil {
			return err
		}
	}

	art, err := svc.Convert(ctx, f.SessionID, opts.target)
	if err != nil {
		return err
	}

	dest := filepath.Join(opts.outDir, art.FileName)
	if same, _ := samePath(dest, input); same {
		return fmt.Errorf("refusing to overwrite input %s", input)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dest, err)
	}
	if prev, ok := written[absDest]; ok {
		return fmt.Errorf("refusing to overwrite %s, already written from %s", dest, prev)
	}
	if err := os.WriteFile(dest, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	written[absDest] = input

	info, err := svc.Session(f.SessionID)
	if err != nil {
		return err
	}
	out.Output = dest
	out.Rows = info.Rows
	out.Columns = len(info.Columns)
	return nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func printConvertReport(cmd *cobra.Command, outcomes []convertOutcome) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), outcomes)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tOUTPUT\tROWS\tCOLUMNS\tSTATUS")
	for _, o := range outcomes {
		status := "ok"
		if o.Error != nil {
			status = fmt.Sprintf("failed: %s (%s)", o.Error.Message, o.Error.Code)
		} else {
			for _, r := range o.Cleaned {
				if err := r.Err(); err != nil {
					status = "ok, " + err.Error()
				}
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", o.Input, o.Output, o.Rows, o.Columns, status)
	}
	return tw.Flush()
}
