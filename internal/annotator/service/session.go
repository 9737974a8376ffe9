package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fabric-annotator/internal/editor"
)

// ============================================================
// Editing Sessions
// ============================================================

// Session is one open editor on one image. The editor is only reached
// through Do, which serializes requests of the same session.
type Session struct {
	ID      string
	ImageID string

	mu     sync.Mutex
	editor *editor.Editor

	lastUsed time.Time // guarded by SessionManager.mu
}

// Do runs fn with exclusive access to the session's editor.
func (s *Session) Do(fn func(e *editor.Editor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.editor)
}

// Snapshot returns the editor state.
func (s *Session) Snapshot() editor.State {
	var st editor.State
	s.Do(func(e *editor.Editor) { st = e.State() })
	return st
}

// ============================================================
// Session Manager
// ============================================================

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	log      *zap.Logger
}

// NewSessionManager creates a manager whose sessions expire after ttl
// without use. A non-positive ttl disables expiry.
func NewSessionManager(ttl time.Duration, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Open starts a session on imageID seeded with boxes. Seeding does not
// enter the undo history.
func (m *SessionManager) Open(imageID string, opts editor.Options, boxes []editor.BoundingBox) *Session {
	ed := editor.New(opts)
	ed.Load(boxes)

	s := &Session{
		ID:      uuid.NewString(),
		ImageID: imageID,
		editor:  ed,
	}

	m.mu.Lock()
	s.lastUsed = m.now()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info("session opened",
		zap.String("session", s.ID),
		zap.String("image", imageID),
		zap.Int("boxes", len(boxes)),
	)
	return s
}

// Get resolves a session and marks it used.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.lastUsed = m.now()
	}
	return s, ok
}

func (m *SessionManager) Close(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		m.log.Info("session closed", zap.String("session", id))
	}
	return ok
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes every session idle for longer than the TTL and returns how
// many were closed.
func (m *SessionManager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	cutoff := m.now().Add(-m.ttl)
	var expired []string
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.log.Info("session expired", zap.String("session", id))
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
