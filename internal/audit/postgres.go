// Package audit persists pipeline audit events to Postgres.
//
// Only metadata is stored: session and batch IDs, the action, file name,
// format, table shape and client details. Table contents never reach the
// database.
package audit

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tabconv/internal/core"
)

const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 500
)

// DB is the subset of *pgxpool.Pool the recorder needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ DB = (*pgxpool.Pool)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tabconv_audit_log (
	id            BIGSERIAL PRIMARY KEY,
	session_id    TEXT NOT NULL DEFAULT '',
	batch_id      TEXT NOT NULL DEFAULT '',
	action        TEXT NOT NULL,
	severity      TEXT NOT NULL,
	file_name     TEXT,
	format        TEXT,
	rows_count    INTEGER NOT NULL DEFAULT 0,
	columns_count INTEGER NOT NULL DEFAULT 0,
	detail        TEXT,
	error_code    TEXT,
	ip_address    INET,
	user_agent    TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tabconv_audit_log_session_idx ON tabconv_audit_log (session_id);
CREATE INDEX IF NOT EXISTS tabconv_audit_log_created_idx ON tabconv_audit_log (created_at DESC);
`

const insertSQL = `INSERT INTO tabconv_audit_log
	(session_id, batch_id, action, severity, file_name, format, rows_count, columns_count,
	 detail, error_code, ip_address, user_agent, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const selectSQL = `SELECT session_id, batch_id, action, severity, file_name, format,
	rows_count, columns_count, detail, error_code, ip_address, user_agent, created_at
	FROM tabconv_audit_log`

// PostgresRecorder implements core.AuditRecorder on a pgx pool.
type PostgresRecorder struct {
	db DB
}

var _ core.AuditRecorder = (*PostgresRecorder)(nil)

// NewPostgresRecorder creates a recorder. Call EnsureSchema before the
// first Record.
func NewPostgresRecorder(db DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// EnsureSchema creates the audit table and its indexes if missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Record inserts one event.
func (r *PostgresRecorder) Record(ctx context.Context, e core.AuditEvent) error {
	_, err := r.db.Exec(ctx, insertSQL,
		e.SessionID,
		e.BatchID,
		string(e.Action),
		string(e.Severity),
		toText(e.FileName),
		toText(e.Format),
		int32(e.Rows),
		int32(e.Columns),
		toText(e.Detail),
		toText(e.ErrorCode),
		parseIP(e.IPAddress),
		toText(e.UserAgent),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns the newest events first, optionally for one session.
func (r *PostgresRecorder) Recent(ctx context.Context, sessionID string, limit int) ([]core.AuditEvent, error) {
	limit = clampLimit(limit)

	query := selectSQL
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = $1"
		args = append(args, sessionID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	events := make([]core.AuditEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}

func scanEvent(rows pgx.Rows) (core.AuditEvent, error) {
	var (
		e         core.AuditEvent
		action    string
		severity  string
		fileName  pgtype.Text
		format    pgtype.Text
		rowsCount int32
		colsCount int32
		detail    pgtype.Text
		errorCode pgtype.Text
		ipAddress *netip.Addr
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := rows.Scan(
		&e.SessionID, &e.BatchID, &action, &severity, &fileName, &format,
		&rowsCount, &colsCount, &detail, &errorCode, &ipAddress, &userAgent, &createdAt,
	)
	if err != nil {
		return e, err
	}

	e.Action = core.AuditAction(action)
	e.Severity = core.AuditSeverity(severity)
	e.FileName = fileName.String
	e.Format = format.String
	e.Rows = int(rowsCount)
	e.Columns = int(colsCount)
	e.Detail = detail.String
	e.ErrorCode = errorCode.String
	e.UserAgent = userAgent.String
	e.CreatedAt = createdAt.Time
	if ipAddress != nil {
		e.IPAddress = ipAddress.String()
	}
	return e, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}

// toText converts a string to pgtype.Text; empty strings become NULL.
func toText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// parseIP strips a port if present. Unparseable addresses are stored as NULL.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
