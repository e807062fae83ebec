package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnakata/islandhop/internal/model"
)

// maxHistory caps per-session conversation history; older turns are
// trimmed from the front.
const maxHistory = 20

// Session holds one conversation's history. Owned by a single
// conversation but guarded anyway since HTTP clients can repeat a
// session ID across concurrent requests.
type Session struct {
	ID string

	mu      sync.Mutex
	history []model.ChatMessage
}

// Append adds a turn, trimming the oldest entries past the cap
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, model.ChatMessage{
		Role:    role,
		Content: content,
		At:      time.Now(),
	})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// History returns a copy of the conversation so far
func (s *Session) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// SessionManager tracks sessions by ID
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session registry
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it if needed. An empty id
// gets a fresh session with a generated ID.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{ID: id}
	m.sessions[id] = s
	return s
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
