package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the pipeline stage a file has reached.
type SessionState string

const (
	StateUploaded   SessionState = "uploaded"
	StateParsed     SessionState = "parsed"
	StateCleaned    SessionState = "cleaned"
	StateProjected  SessionState = "projected"
	StateVisualized SessionState = "visualized"
	StateExported   SessionState = "exported"
	StateFailed     SessionState = "failed"
)

// Session is the processing context of one uploaded file. Sessions are
// independent of each other; a session's own mutex serializes operations
// on it.
type Session struct {
	ID        string
	BatchID   string
	FileName  string
	Size      int64
	Format    Format
	CreatedAt time.Time

	mu         sync.Mutex
	state      SessionState
	err        error
	cleaned    *Table   // parsed table after every applied directive
	columns    []string // projection over cleaned; nil keeps all columns
	directives []Directive
	lastUsed   time.Time
}

func newSession(batchID, fileName string, size int64, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		FileName:  fileName,
		Size:      size,
		CreatedAt: now,
		state:     StateUploaded,
		lastUsed:  now,
	}
}

// SessionInfo is a point-in-time view of a session for display.
type SessionInfo struct {
	ID         string       `json:"id"`
	BatchID    string       `json:"batch_id"`
	FileName   string       `json:"file_name"`
	Size       int64        `json:"size"`
	Format     string       `json:"format"`
	State      SessionState `json:"state"`
	Rows       int          `json:"rows"`
	Columns    []string     `json:"columns"`
	AllColumns []string     `json:"all_columns"`
	Numeric    []string     `json:"numeric_columns"`
	Directives []Directive  `json:"directives"`
	Error      *UserMessage `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:         s.ID,
		BatchID:    s.BatchID,
		FileName:   s.FileName,
		Size:       s.Size,
		State:      s.state,
		Directives: append([]Directive(nil), s.directives...),
		CreatedAt:  s.CreatedAt,
	}
	if s.Format != FormatUnknown {
		info.Format = s.Format.Key()
	}
	if s.err != nil {
		msg := MapError(s.err)
		info.Error = &msg
	}
	if t, err := s.viewLocked(); err == nil {
		info.Rows = t.NumRows()
		info.Columns = t.ColumnNames()
		info.AllColumns = s.cleaned.ColumnNames()
		info.Numeric = NumericColumns(t)
	}
	return info
}

// State returns the current pipeline stage.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that failed the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// viewLocked returns the cleaned table with the projection applied.
func (s *Session) viewLocked() (*Table, error) {
	if s.state == StateFailed {
		return nil, fmt.Errorf("%w: %v", ErrSessionFailed, s.err)
	}
	if s.cleaned == nil {
		return nil, fmt.Errorf("%w: file not parsed", ErrSessionFailed)
	}
	if s.columns == nil {
		return s.cleaned, nil
	}
	return Project(s.cleaned, s.columns)
}

func (s *Session) failLocked(err error) {
	s.state = StateFailed
	s.err = err
	s.cleaned = nil
	s.columns = nil
}

// SessionStore keeps sessions in memory and expires those unused for longer
// than the TTL.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store. A non-positive ttl disables expiry.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put adds or replaces a session.
func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns a live session and marks it used. Expired sessions are
// reported as not found even before the janitor removes them.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	now := st.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.expired(s, now) {
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}
	s.lastUsed = now
	return s, nil
}

// Delete removes a session. It reports whether the session existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of stored sessions, expired ones included.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns them.
func (st *SessionStore) Sweep() []*Session {
	now := st.now()
	st.mu.Lock()
	defer st.mu.Unlock()

	var expired []*Session
	for id, s := range st.sessions {
		s.mu.Lock()
		gone := st.expired(s, now)
		s.mu.Unlock()
		if gone {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	return expired
}

// expired must be called with s.mu held.
func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.lastUsed) > st.ttl
}
