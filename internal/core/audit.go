package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/tabconv/internal/logging"
)

// AuditAction represents the pipeline step being audited.
type AuditAction string

const (
	ActionUpload  AuditAction = "upload"
	ActionParse   AuditAction = "parse"
	ActionClean   AuditAction = "clean"
	ActionProject AuditAction = "project"
	ActionChart   AuditAction = "chart"
	ActionConvert AuditAction = "convert"
	ActionDiscard AuditAction = "discard"
	ActionExpire  AuditAction = "expire"
	ActionFailure AuditAction = "failure"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// AuditEvent is one recorded pipeline transition. It carries metadata only;
// table contents are never part of an event.
type AuditEvent struct {
	SessionID string        `json:"session_id"`
	BatchID   string        `json:"batch_id"`
	Action    AuditAction   `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	FileName  string        `json:"file_name,omitempty"`
	Format    string        `json:"format,omitempty"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	Detail    string        `json:"detail,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// AuditRecorder persists audit events. Implementations must be safe for
// concurrent use.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionFailure:
		return SeverityHigh
	case ActionConvert, ActionClean, ActionDiscard:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// audit fills request metadata and severity and hands the event to the
// recorder. Recording failures are logged and never fail the pipeline.
func (s *Service) audit(ctx context.Context, event AuditEvent) {
	if s.recorder == nil {
		return
	}
	meta := RequestMetaFromContext(ctx)
	event.IPAddress = meta.IPAddress
	event.UserAgent = meta.UserAgent
	event.Severity = determineSeverity(event.Action)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := s.recorder.Record(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"action", event.Action,
			"session_id", event.SessionID,
			"error", err,
		)
	}
}
