// Package cli implements the tabconv command-line host. It drives the same
// core.Service pipeline as the web server, one batch per invocation.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabconv/internal/core"
	"github.com/JonMunkholm/tabconv/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		output   string
		logLevel string
	)

	root := &cobra.Command{
		Use:           "tabconv",
		Short:         "Convert, clean and inspect tabular files",
		Long:          "tabconv reads CSV, TXT, Excel, JSON and Parquet files, optionally cleans and narrows them, and writes them in another format.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&output, "output", "o", "table", "Report format (table, json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newConvertCmd(),
		newDescribeCmd(),
		newFormatsCmd(),
		newVersionCmd(),
	)
	return root
}

func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version, "commit": commit})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tabconv version %s (commit: %s)\n", version, commit)
			return err
		},
	}
}

// readInputs loads each path. A file that cannot be read is reported and
// left out; the rest still run.
func readInputs(cmd *cobra.Command, paths []string) (names []string, data [][]byte, failed int) {
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			reportFailure(cmd, p, err)
			failed++
			continue
		}
		names = append(names, p)
		data = append(data, b)
	}
	return names, data, failed
}

// reportFailure writes one failure line to stderr. The FAILED tag is red
// only when stderr itself is a terminal and NO_COLOR is unset.
func reportFailure(cmd *cobra.Command, name string, err error) {
	w := cmd.ErrOrStderr()
	tag := color.New(color.FgRed, color.Bold)
	if colorize(w) {
		tag.EnableColor()
	} else {
		tag.DisableColor()
	}
	tag.Fprint(w, "FAILED")
	fmt.Fprintf(w, " %s: %s\n", name, failureDetail(err))
}

func colorize(w io.Writer) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// failureDetail is the coded user message for known pipeline errors and the
// raw error text otherwise, such as a missing input path.
func failureDetail(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

// outcomeError is the report form of err. Errors without a specific code
// keep their own text so the report says what went wrong.
func outcomeError(err error) *core.UserMessage {
	msg := core.MapError(err)
	if !core.IsUserFacing(err) {
		msg.Message = err.Error()
	}
	return &msg
}
