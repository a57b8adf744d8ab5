package chathub

import (
	"strings"

	"pairchat/backend/internal/models"

	"github.com/rs/zerolog/log"
)

const statusSearching = "Searching for a partner..."

// MatchOutcome is the result kind of a partner request.
type MatchOutcome int

const (
	// MatchSearching means the requester was queued.
	MatchSearching MatchOutcome = iota
	// MatchFound means a session was created.
	MatchFound
	// MatchPartnerUnavailable means the searched code is unknown, busy or the requester's own.
	MatchPartnerUnavailable
	// MatchIgnored means the requester is no longer registered.
	MatchIgnored
)

type MatchResult struct {
	Outcome MatchOutcome
	Session *models.Session
	// Direct is set when the session came from an explicit code search.
	Direct bool
}

// MatcherService pairs a requester with an explicit code or with the
// earliest waiting participant.
type MatcherService struct {
	Registry *Registry
	Queue    *MatchQueue
	Sessions *SessionManager
}

func NewMatcherService(registry *Registry, queue *MatchQueue, sessions *SessionManager) *MatcherService {
	return &MatcherService{
		Registry: registry,
		Queue:    queue,
		Sessions: sessions,
	}
}

// RequestPartner drops any current session of the requester, then either
// pairs by searchCode, pairs with the queue head, or queues the requester.
// A code search never falls back to a random match.
func (m *MatcherService) RequestPartner(requester, searchCode string) MatchResult {
	if !m.Registry.IsLive(requester) {
		return MatchResult{Outcome: MatchIgnored}
	}
	m.Queue.Remove(requester)
	m.Sessions.Teardown(requester, ReasonExit)

	if code := strings.TrimSpace(searchCode); code != "" {
		target, ok := m.Registry.LookupByCode(code)
		if !ok || target.ConnectionID == requester || m.Sessions.IsPaired(target.ConnectionID) {
			m.Registry.Notify(requester, models.EventFriendOffline, code)
			log.Debug().Str("module", "matcher").Str("conn", requester).Str("code", code).Msg("searched partner unavailable")
			return MatchResult{Outcome: MatchPartnerUnavailable}
		}
		return m.pair(requester, target.ConnectionID, true)
	}

	if candidate, ok := m.Queue.DequeueFirstAvailable(requester); ok {
		return m.pair(requester, candidate.ConnectionID, false)
	}

	m.Queue.Enqueue(requester)
	m.Registry.Notify(requester, models.EventStatus, statusSearching)
	return MatchResult{Outcome: MatchSearching}
}

func (m *MatcherService) pair(a, b string, direct bool) MatchResult {
	s, err := m.Sessions.Create(a, b)
	if err != nil {
		log.Error().Err(err).Str("module", "matcher").Str("a", a).Str("b", b).Msg("create session")
		m.Queue.Enqueue(a)
		m.Registry.Notify(a, models.EventStatus, statusSearching)
		return MatchResult{Outcome: MatchSearching}
	}

	idA, _ := m.Registry.Lookup(a)
	idB, _ := m.Registry.Lookup(b)
	m.Registry.Notify(a, models.EventPartnerFound, partnerFound(idB))
	m.Registry.Notify(b, models.EventPartnerFound, partnerFound(idA))

	log.Info().Str("module", "matcher").Str("session", s.ID).Str("a", a).Str("b", b).
		Bool("direct", direct).Msg("match found")
	return MatchResult{Outcome: MatchFound, Session: s, Direct: direct}
}

func partnerFound(partner models.Identity) models.PartnerFoundPayload {
	return models.PartnerFoundPayload{
		PartnerID: partner.ConnectionID,
		Name:      partner.DisplayName,
		Code:      partner.Code,
	}
}
