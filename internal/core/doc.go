// Package core implements the ingestion-conversion pipeline for tabular
// files.
//
// The package has no UI or transport dependencies. The web server and the
// command line tool both drive it through the same operations.
//
// # Pipeline
//
// A file moves through format detection, decoding, optional cleaning,
// optional column selection and export:
//
//	t, format, err := core.Parse(data, "report.xlsx")
//	t, report, err := core.Clean(t, core.RemoveDuplicates)
//	t, err = core.Project(t, []string{"region", "revenue"})
//	art, err := core.Convert(t, "report.xlsx", core.FormatJSON)
//	// art.FileName == "report.json", art.MIMEType == "application/json"
//
// The format is resolved from the file extension only. Supported inputs are
// CSV, Excel (.xlsx), JSON, Parquet and tab-delimited TXT; conversion
// targets are CSV, Excel, JSON and Parquet.
//
// # Tables
//
// A [Table] is an ordered set of uniquely named [Column] values of one
// [Kind] each. Text sources are typed by inference (int, float, bool,
// datetime, text); Excel, JSON and Parquet keep the types they carry.
// Operations return new tables and never modify their input.
//
// # Sessions
//
// [Service] processes a batch of uploads sequentially, one [Session] per
// file. A file that fails is reported through its [FileResult] and the
// batch continues. Sessions live in memory and expire after a TTL.
//
// # Error Handling
//
// Every error wraps one of the sentinels in errors.go. [MapError] turns an
// error into a [UserMessage] with a support code:
//
//   - FILE001-FILE006: file errors (size, format, empty, malformed)
//   - COL001-COL002: column selection errors
//   - CLN001-CLN002: cleaning errors
//   - EXP001: export errors
//   - CHT001-CHT002: chart errors
//   - SES001-SES002: session errors
//   - UPL001-UPL005: upload errors
package core
