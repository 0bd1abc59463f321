package core

// error_messages.go maps pipeline errors to user-facing messages with a
// support code. Users quote the code; support looks it up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            ErrFileTooLarge, "file too large"
//	FILE002 - Malformed file            ErrMalformed, "malformed"
//	FILE004 - No file                   ErrNoFiles, "no file provided"
//	FILE005 - Empty file                ErrEmptyFile, "empty file"
//	FILE006 - Unsupported format        ErrUnsupportedFormat, "unsupported format"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column             ErrUnknownColumn
//	COL002 - Duplicate column           ErrDuplicateColumn
//
// # Cleaning Errors (CLN001-CLN099)
//
//	CLN001 - Unknown directive          ErrUnknownDirective
//	CLN002 - Mean undefined             ErrUndefinedMean
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Serialization failed       ErrSerialization
//
// # Chart Errors (CHT001-CHT099)
//
//	CHT001 - Not enough columns         ErrChartColumns
//	CHT002 - Column not numeric         ErrNotNumeric
//	CHT003 - Unknown chart kind         ErrUnknownChartKind
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found          ErrSessionNotFound
//	SES002 - Session failed             ErrSessionFailed
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload cancelled           "upload cancelled"
//	UPL002 - System busy                ErrTooManyUploads
//	UPL003 - Too many files             ErrTooManyFiles
//	UPL004 - Request cancelled          context.Canceled
//	UPL005 - Request timeout            context.DeadlineExceeded
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited              ErrRateLimited, "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// technical error when a user reports ERR000.
//
// Sentinels are matched with errors.Is first, in table order, so an error
// wrapping two sentinels takes the first listed. Errors that reach MapError
// as plain text (from libraries or across process boundaries) fall back to
// case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}
	msgMalformed = UserMessage{
		Message: "The file could not be read in its format",
		Action:  "Check that the file is valid and every row has no more fields than the header",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Select one or more files to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a CSV, Excel (.xlsx), JSON, Parquet or TXT file",
		Code:    "FILE006",
	}
	msgUnknownColumn = UserMessage{
		Message: "Column not found",
		Action:  "Pick columns from the preview",
		Code:    "COL001",
	}
	msgDuplicateColumn = UserMessage{
		Message: "A column was selected more than once",
		Action:  "Select each column only once",
		Code:    "COL002",
	}
	msgUnknownDirective = UserMessage{
		Message: "Unknown cleaning option",
		Action:  "Choose Remove Duplicates or Fill Missing Values",
		Code:    "CLN001",
	}
	msgUndefinedMean = UserMessage{
		Message: "Some numeric columns have no values to average",
		Action:  "Those columns were left unchanged",
		Code:    "CLN002",
	}
	msgSerialization = UserMessage{
		Message: "The file could not be converted",
		Action:  "Try another target format",
		Code:    "EXP001",
	}
	msgChartColumns = UserMessage{
		Message: "Not enough numeric columns for this chart",
		Action:  "Select at least two numeric columns for a scatter plot",
		Code:    "CHT001",
	}
	msgNotNumeric = UserMessage{
		Message: "Only numeric columns can be charted",
		Action:  "Select numeric columns",
		Code:    "CHT002",
	}
	msgUnknownChartKind = UserMessage{
		Message: "That chart type is not available",
		Action:  "Choose a bar, line or scatter chart",
		Code:    "CHT003",
	}
	msgSessionNotFound = UserMessage{
		Message: "File session not found",
		Action:  "The session may have expired. Upload the file again",
		Code:    "SES001",
	}
	msgSessionFailed = UserMessage{
		Message: "This file failed to load",
		Action:  "Fix the file and upload it again",
		Code:    "SES002",
	}
	msgUploadCancelled = UserMessage{
		Message: "Upload was cancelled",
		Action:  "Start a new upload when ready",
		Code:    "UPL001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgTooManyFiles = UserMessage{
		Message: "Too many files in one upload",
		Action:  "Upload fewer files at a time",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// sentinelMessages is checked with errors.Is, first match wins.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrUnsupportedFormat, msgUnsupported},
	{ErrEmptyFile, msgEmptyFile},
	{ErrMalformed, msgMalformed},
	{ErrNoFiles, msgNoFile},
	{ErrUnknownColumn, msgUnknownColumn},
	{ErrDuplicateColumn, msgDuplicateColumn},
	{ErrUnknownDirective, msgUnknownDirective},
	{ErrUndefinedMean, msgUndefinedMean},
	{ErrSerialization, msgSerialization},
	{ErrChartColumns, msgChartColumns},
	{ErrNotNumeric, msgNotNumeric},
	{ErrUnknownChartKind, msgUnknownChartKind},
	{ErrSessionNotFound, msgSessionNotFound},
	{ErrSessionFailed, msgSessionFailed},
	{ErrTooManyUploads, msgBusy},
	{ErrTooManyFiles, msgTooManyFiles},
	{ErrRateLimited, msgRateLimited},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages. More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"unsupported format", msgUnsupported},
	{"empty file", msgEmptyFile},
	{"malformed", msgMalformed},
	{"no file provided", msgNoFile},
	{"unknown column", msgUnknownColumn},
	{"upload cancelled", msgUploadCancelled},
	{"too many concurrent uploads", msgBusy},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
	{"rate limit", msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("parse %s: %w", name, ErrEmptyFile))
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
