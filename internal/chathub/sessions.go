package chathub

import (
	"errors"
	"time"

	"pairchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TeardownReason says why a session ended.
type TeardownReason string

const (
	ReasonSkip       TeardownReason = "skip"
	ReasonDisconnect TeardownReason = "disconnect"
	ReasonExit       TeardownReason = "exit"
)

const statusSearchingAgain = "Searching for a new partner..."

var ErrCannotPair = errors.New("connections cannot be paired")

// SessionManager owns the active sessions. Both endpoints of a session map to
// the same *models.Session.
type SessionManager struct {
	registry *Registry
	queue    *MatchQueue
	byConn   map[string]*models.Session

	// OnEnd runs after a session is removed and the partner notified.
	OnEnd func(s *models.Session, reason TeardownReason)
}

func NewSessionManager(registry *Registry, queue *MatchQueue) *SessionManager {
	return &SessionManager{
		registry: registry,
		queue:    queue,
		byConn:   make(map[string]*models.Session),
	}
}

// Create pairs two distinct, live, unpaired connections and takes both out
// of the queue.
func (m *SessionManager) Create(a, b string) (*models.Session, error) {
	if a == b || !m.registry.IsLive(a) || !m.registry.IsLive(b) {
		return nil, ErrCannotPair
	}
	if m.IsPaired(a) || m.IsPaired(b) {
		return nil, ErrCannotPair
	}
	m.queue.Remove(a)
	m.queue.Remove(b)

	s := &models.Session{
		ID:        uuid.NewString(),
		A:         a,
		B:         b,
		CreatedAt: time.Now(),
	}
	m.byConn[a] = s
	m.byConn[b] = s
	return s, nil
}

func (m *SessionManager) Get(connectionID string) (*models.Session, bool) {
	s, ok := m.byConn[connectionID]
	return s, ok
}

func (m *SessionManager) PartnerOf(connectionID string) (string, bool) {
	s, ok := m.byConn[connectionID]
	if !ok {
		return "", false
	}
	return s.Partner(connectionID), true
}

func (m *SessionManager) IsPaired(connectionID string) bool {
	_, ok := m.byConn[connectionID]
	return ok
}

func (m *SessionManager) Len() int {
	return len(m.byConn) / 2
}

// Teardown ends the session of connectionID, if any, and tells the partner
// exactly once. Skip puts the initiator back in the queue whether or not it
// had a session; Disconnect removes the initiator from the queue and registry.
func (m *SessionManager) Teardown(connectionID string, reason TeardownReason) (*models.Session, bool) {
	s, ok := m.byConn[connectionID]
	if ok {
		partner := s.Partner(connectionID)
		delete(m.byConn, s.A)
		delete(m.byConn, s.B)
		m.registry.Notify(partner, models.EventPartnerDisconnected, struct{}{})
		log.Info().Str("module", "sessions").Str("session", s.ID).Str("conn", connectionID).
			Str("reason", string(reason)).Msg("session ended")
		if m.OnEnd != nil {
			m.OnEnd(s, reason)
		}
	}

	switch reason {
	case ReasonSkip:
		m.queue.Enqueue(connectionID)
		m.registry.Notify(connectionID, models.EventStatus, statusSearchingAgain)
	case ReasonDisconnect:
		m.queue.Remove(connectionID)
		m.registry.Remove(connectionID)
	}
	return s, ok
}
