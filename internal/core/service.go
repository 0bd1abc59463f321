package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/tabconv/internal/logging"
	"github.com/google/uuid"
)

// Service defaults, used when the corresponding ServiceConfig field is zero.
const (
	DefaultMaxFileSize     = 200 << 20
	DefaultMaxFiles        = 20
	DefaultSessionTTL      = 30 * time.Minute
	DefaultCleanupInterval = time.Minute
	DefaultPreviewRows     = 5
	DefaultMaxPreviewRows  = 1000
)

// ServiceConfig holds the limits the service enforces.
type ServiceConfig struct {
	MaxFileSize     int64
	MaxFiles        int
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	PreviewRows     int
	MaxPreviewRows  int
	MaxConcurrent   int
	MaxWait         time.Duration
}

func (c *ServiceConfig) applyDefaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = DefaultMaxFiles
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if c.PreviewRows <= 0 {
		c.PreviewRows = DefaultPreviewRows
	}
	if c.MaxPreviewRows <= 0 {
		c.MaxPreviewRows = DefaultMaxPreviewRows
	}
}

// Service runs the ingestion-conversion pipeline over uploaded files and
// keeps one session per file.
type Service struct {
	cfg      ServiceConfig
	store    *SessionStore
	limiter  *UploadLimiter
	recorder AuditRecorder
}

// NewService creates a Service. recorder may be nil to disable auditing.
func NewService(cfg ServiceConfig, recorder AuditRecorder) *Service {
	cfg.applyDefaults()
	return &Service{
		cfg:      cfg,
		store:    NewSessionStore(cfg.SessionTTL),
		limiter:  NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		recorder: recorder,
	}
}

// Config returns the effective configuration.
func (s *Service) Config() ServiceConfig { return s.cfg }

// Limiter exposes the upload limiter for shutdown draining and status.
func (s *Service) Limiter() *UploadLimiter { return s.limiter }

// SessionCount returns how many sessions are held in memory.
func (s *Service) SessionCount() int { return s.store.Len() }

// UploadedFile is one file of a batch.
type UploadedFile struct {
	Name string
	Data []byte
}

// FileResult is the outcome of one file of a batch.
type FileResult struct {
	SessionID string       `json:"session_id"`
	FileName  string       `json:"file_name"`
	Format    string       `json:"format,omitempty"`
	State     SessionState `json:"state"`
	Rows      int          `json:"rows"`
	Columns   int          `json:"columns"`
	Error     *UserMessage `json:"error,omitempty"`
	Err       error        `json:"-"`
}

// BatchResult lists the outcome of every file in upload order.
type BatchResult struct {
	BatchID string       `json:"batch_id"`
	Files   []FileResult `json:"files"`
}

// Failed returns how many files could not be parsed.
func (b BatchResult) Failed() int {
	n := 0
	for _, f := range b.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// ProcessBatch parses files one after another. A file that fails is
// recorded with its error and the loop moves on; the returned error is
// only for batch-level problems (no files, too many files, limiter busy).
func (s *Service) ProcessBatch(ctx context.Context, files []UploadedFile) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, ErrNoFiles
	}
	if len(files) > s.cfg.MaxFiles {
		return BatchResult{}, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(files), s.cfg.MaxFiles)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return BatchResult{}, err
	}
	defer s.limiter.Release()

	batch := BatchResult{BatchID: uuid.NewString(), Files: make([]FileResult, 0, len(files))}
	logger := logging.WithFields(ctx, "batch_id", batch.BatchID)
	logger.Info("batch started", "files", len(files))

	for _, f := range files {
		sess := newSession(batch.BatchID, f.Name, int64(len(f.Data)), time.Now().UTC())
		s.store.Put(sess)
		s.audit(ctx, AuditEvent{
			SessionID: sess.ID,
			BatchID:   batch.BatchID,
			Action:    ActionUpload,
			FileName:  f.Name,
			Detail:    fmt.Sprintf("%d bytes", len(f.Data)),
		})

		var err error
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = s.parse(ctx, sess, f.Data)
		}
		batch.Files = append(batch.Files, s.fileResult(sess, err))
	}

	logger.Info("batch finished", "files", len(files), "failed", batch.Failed())
	return batch, nil
}

func (s *Service) parse(ctx context.Context, sess *Session, data []byte) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	logger := logging.WithFields(ctx, "session_id", sess.ID, "file", sess.FileName)

	var err error
	if int64(len(data)) > s.cfg.MaxFileSize {
		err = fmt.Errorf("%s: %w: %d bytes exceeds %d", sess.FileName, ErrFileTooLarge, len(data), s.cfg.MaxFileSize)
	} else {
		var t *Table
		var format Format
		t, format, err = Parse(data, sess.FileName)
		sess.Format = format
		if err == nil {
			sess.cleaned = t
			sess.state = StateParsed
			logger.Info("file parsed",
				"format", format.Key(),
				"rows", t.NumRows(),
				"columns", t.NumColumns(),
			)
			s.audit(ctx, AuditEvent{
				SessionID: sess.ID,
				BatchID:   sess.BatchID,
				Action:    ActionParse,
				FileName:  sess.FileName,
				Format:    format.Key(),
				Rows:      t.NumRows(),
				Columns:   t.NumColumns(),
			})
			return nil
		}
		err = fmt.Errorf("%s: %w", sess.FileName, err)
	}

	sess.failLocked(err)
	s.recordFailure(ctx, sess, err)
	return err
}

func (s *Service) recordFailure(ctx context.Context, sess *Session, err error) {
	msg := MapError(err)
	logging.WithFields(ctx, "session_id", sess.ID, "file", sess.FileName).
		Warn("file failed", "code", msg.Code, "error", err)
	event := AuditEvent{
		SessionID: sess.ID,
		BatchID:   sess.BatchID,
		Action:    ActionFailure,
		FileName:  sess.FileName,
		ErrorCode: msg.Code,
		Detail:    err.Error(),
	}
	if sess.Format != FormatUnknown {
		event.Format = sess.Format.Key()
	}
	s.audit(ctx, event)
}

func (s *Service) fileResult(sess *Session, err error) FileResult {
	info := sess.Info()
	fr := FileResult{
		SessionID: sess.ID,
		FileName:  sess.FileName,
		Format:    info.Format,
		State:     info.State,
		Rows:      info.Rows,
		Columns:   len(info.Columns),
		Err:       err,
	}
	if err != nil {
		msg := MapError(err)
		fr.Error = &msg
	}
	return fr
}

// Session returns a snapshot of the session.
func (s *Service) Session(id string) (SessionInfo, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.Info(), nil
}

// withView runs fn on the session's current table while holding the
// session lock. Failed sessions are rejected.
func (s *Service) withView(id string, fn func(sess *Session, t *Table) error) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	t, err := sess.viewLocked()
	if err != nil {
		return err
	}
	return fn(sess, t)
}

// Preview returns up to rows leading rows, clamped to the configured
// maximum. rows <= 0 selects the default.
func (s *Service) Preview(id string, rows int) (Preview, error) {
	if rows <= 0 {
		rows = s.cfg.PreviewRows
	}
	if rows > s.cfg.MaxPreviewRows {
		rows = s.cfg.MaxPreviewRows
	}
	var p Preview
	err := s.withView(id, func(_ *Session, t *Table) error {
		p = Head(t, rows)
		return nil
	})
	return p, err
}

// Summary describes the session's current table.
func (s *Service) Summary(id string) (Summary, error) {
	var sum Summary
	err := s.withView(id, func(_ *Session, t *Table) error {
		sum = Describe(t)
		return nil
	})
	return sum, err
}

// Clean applies d to every column of the session's table. The current
// projection is kept.
func (s *Service) Clean(ctx context.Context, id string, d Directive) (CleanReport, error) {
	var report CleanReport
	err := s.withView(id, func(sess *Session, _ *Table) error {
		out, r, err := Clean(sess.cleaned, d)
		if err != nil {
			return err
		}
		report = r
		sess.cleaned = out
		sess.directives = append(sess.directives, d)
		sess.state = StateCleaned

		logging.WithFields(ctx, "session_id", sess.ID, "file", sess.FileName).Info("table cleaned",
			"directive", d,
			"rows_removed", r.RowsRemoved,
			"filled_columns", len(r.FilledColumns),
			"undefined_mean", r.UndefinedMean,
		)
		event := AuditEvent{
			SessionID: sess.ID,
			BatchID:   sess.BatchID,
			Action:    ActionClean,
			FileName:  sess.FileName,
			Format:    sess.Format.Key(),
			Rows:      out.NumRows(),
			Columns:   out.NumColumns(),
			Detail:    string(d),
		}
		if err := r.Err(); err != nil {
			event.ErrorCode = MapError(err).Code
		}
		s.audit(ctx, event)
		return nil
	})
	return report, err
}

// Project selects columns of the cleaned table. An empty list restores
// every column.
func (s *Service) Project(ctx context.Context, id string, names []string) error {
	return s.withView(id, func(sess *Session, _ *Table) error {
		var columns []string
		if len(names) > 0 {
			t, err := Project(sess.cleaned, names)
			if err != nil {
				return err
			}
			columns = t.ColumnNames()
		}
		sess.columns = columns
		sess.state = StateProjected

		logging.WithFields(ctx, "session_id", sess.ID, "file", sess.FileName).
			Info("columns selected", "columns", len(columns))
		s.audit(ctx, AuditEvent{
			SessionID: sess.ID,
			BatchID:   sess.BatchID,
			Action:    ActionProject,
			FileName:  sess.FileName,
			Format:    sess.Format.Key(),
			Columns:   len(columns),
		})
		return nil
	})
}

// Chart builds chart data from the session's current table.
func (s *Service) Chart(ctx context.Context, id string, req ChartRequest) (*ChartData, error) {
	var data *ChartData
	err := s.withView(id, func(sess *Session, t *Table) error {
		d, err := BuildChart(t, req)
		if err != nil {
			return err
		}
		data = d
		sess.state = StateVisualized
		s.audit(ctx, AuditEvent{
			SessionID: sess.ID,
			BatchID:   sess.BatchID,
			Action:    ActionChart,
			FileName:  sess.FileName,
			Format:    sess.Format.Key(),
			Rows:      t.NumRows(),
			Columns:   len(d.Series),
			Detail:    string(d.Kind),
		})
		return nil
	})
	return data, err
}

// Convert serializes the session's current table in format. A
// serialization failure fails the session.
func (s *Service) Convert(ctx context.Context, id string, format Format) (*Artifact, error) {
	var art *Artifact
	err := s.withView(id, func(sess *Session, t *Table) error {
		a, err := Convert(t, sess.FileName, format)
		if err != nil {
			if errors.Is(err, ErrUnsupportedFormat) {
				return err
			}
			sess.failLocked(err)
			s.recordFailure(ctx, sess, err)
			return err
		}
		art = a
		sess.state = StateExported

		logging.WithFields(ctx, "session_id", sess.ID, "file", sess.FileName).Info("file converted",
			"format", format.Key(),
			"output", a.FileName,
			"bytes", len(a.Data),
		)
		s.audit(ctx, AuditEvent{
			SessionID: sess.ID,
			BatchID:   sess.BatchID,
			Action:    ActionConvert,
			FileName:  a.FileName,
			Format:    format.Key(),
			Rows:      t.NumRows(),
			Columns:   t.NumColumns(),
		})
		return nil
	})
	return art, err
}

// Discard drops a session and its table.
func (s *Service) Discard(ctx context.Context, id string) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	s.store.Delete(id)
	s.audit(ctx, AuditEvent{
		SessionID: sess.ID,
		BatchID:   sess.BatchID,
		Action:    ActionDiscard,
		FileName:  sess.FileName,
	})
	return nil
}

// SweepExpired removes sessions idle for longer than the TTL.
func (s *Service) SweepExpired(ctx context.Context) int {
	expired := s.store.Sweep()
	for _, sess := range expired {
		s.audit(ctx, AuditEvent{
			SessionID: sess.ID,
			BatchID:   sess.BatchID,
			Action:    ActionExpire,
			FileName:  sess.FileName,
		})
	}
	if len(expired) > 0 {
		logging.FromContext(ctx).Info("expired sessions removed", "count", len(expired))
	}
	return len(expired)
}

// StartJanitor sweeps expired sessions every CleanupInterval until ctx is
// done. Call it in a goroutine.
func (s *Service) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	logging.FromContext(ctx).Info("session janitor started",
		"interval", s.cfg.CleanupInterval,
		"ttl", s.cfg.SessionTTL,
	)
	for {
		select {
		case <-ctx.Done():
			logging.FromContext(ctx).Info("session janitor stopped")
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
		}
	}
}
