package chathub

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"pairchat/backend/internal/friends"
	"pairchat/backend/internal/metrics"
	"pairchat/backend/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	maxCodeLength = 64
	maxNameLength = 32

	defaultPersistTimeout = 5 * time.Second
)

// Registration asks the hub to admit a client. A non-empty Code replaces the
// generated one, as if the client had sent identify right away.
type Registration struct {
	Client Client
	Code   string
}

type friendOp struct {
	requester     string
	requesterCode string
	partner       string
	partnerCode   string
}

type friendResult struct {
	op  friendOp
	err error
}

type friendListResult struct {
	connectionID string
	code         string
	friends      []string
	err          error
}

// ManagerService is the single dispatch context. Every mutation of the
// registry, queue, sessions and call state happens on the Run goroutine, one
// event at a time. Friend store calls run on their own goroutines and report
// back through internal channels.
type ManagerService struct {
	Registry *Registry
	Queue    *MatchQueue
	Sessions *SessionManager
	Matcher  *MatcherService
	Chat     *ChatRelay
	Calls    *CallRelay
	Friends  *friends.Ledger
	Metrics  *metrics.Collector

	RegisterCh   chan Registration
	UnregisterCh chan Client
	IncomingCh   chan models.Inbound

	PersistTimeout time.Duration

	friendResults chan friendResult
	friendLists   chan friendListResult

	runCtx context.Context
	done   chan struct{}
}

// NewManagerService wires the core components around one registry.
// collector may be nil.
func NewManagerService(ledger *friends.Ledger, collector *metrics.Collector) *ManagerService {
	registry := NewRegistry()
	queue := NewMatchQueue(registry)
	sessions := NewSessionManager(registry, queue)

	m := &ManagerService{
		Registry:       registry,
		Queue:          queue,
		Sessions:       sessions,
		Matcher:        NewMatcherService(registry, queue, sessions),
		Chat:           NewChatRelay(registry, sessions),
		Calls:          NewCallRelay(registry),
		Friends:        ledger,
		Metrics:        collector,
		RegisterCh:     make(chan Registration),
		UnregisterCh:   make(chan Client),
		IncomingCh:     make(chan models.Inbound),
		PersistTimeout: defaultPersistTimeout,
		friendResults:  make(chan friendResult),
		friendLists:    make(chan friendListResult),
		done:           make(chan struct{}),
	}
	sessions.OnEnd = func(s *models.Session, reason TeardownReason) {
		m.Calls.ClearPair(s.A, s.B)
		m.Metrics.Teardown(string(reason))
	}
	return m
}

// Run processes events until ctx is cancelled.
func (m *ManagerService) Run(ctx context.Context) {
	m.runCtx = ctx
	defer close(m.done)
	log.Info().Str("module", "hub").Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "hub").Msg("hub stopped")
			return
		case reg := <-m.RegisterCh:
			m.register(reg)
		case client := <-m.UnregisterCh:
			m.unregister(client)
		case in := <-m.IncomingCh:
			m.dispatch(in)
		case res := <-m.friendResults:
			m.completeAddFriend(res)
		case res := <-m.friendLists:
			m.deliverFriendList(res)
		}
		m.Metrics.ObserveState(m.Registry.Len(), m.Queue.Len(), m.Sessions.Len())
	}
}

// Submit hands an inbound event to the hub. It returns false once the hub stopped.
func (m *ManagerService) Submit(in models.Inbound) bool {
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) Register(reg Registration) bool {
	select {
	case m.RegisterCh <- reg:
		return true
	case <-m.done:
		return false
	}
}

func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

func (m *ManagerService) register(reg Registration) {
	identity := m.Registry.Register(reg.Client)
	if code, ok := cleanCode(reg.Code); ok {
		identity, _ = m.Registry.SetCode(identity.ConnectionID, code)
		m.loadFriends(identity.ConnectionID, identity.Code)
	}
	m.Registry.Notify(identity.ConnectionID, models.EventYourCode, identity.Code)
	log.Info().Str("module", "hub").Str("conn", identity.ConnectionID).Str("code", identity.Code).Msg("client registered")
}

func (m *ManagerService) unregister(client Client) {
	id := client.GetConnectionID()
	if current, ok := m.Registry.Client(id); ok && current == client {
		m.Sessions.Teardown(id, ReasonDisconnect)
		m.Calls.Forget(id)
		log.Info().Str("module", "hub").Str("conn", id).Msg("client unregistered")
	}
	client.Close()
}

func (m *ManagerService) dispatch(in models.Inbound) {
	id := in.ConnectionID
	if !m.Registry.IsLive(id) {
		return
	}
	env := in.Envelope

	switch env.Event {
	case models.EventIdentify, models.EventSetCode:
		m.handleIdentify(id, env)

	case models.EventFindPartner:
		var p models.FindPartnerPayload
		if err := env.Decode(&p); err != nil {
			log.Warn().Err(err).Str("module", "hub").Str("conn", id).Msg("bad find-partner payload, searching randomly")
			p = models.FindPartnerPayload{}
		}
		res := m.Matcher.RequestPartner(id, p.SearchCode)
		if res.Outcome == MatchFound {
			m.Metrics.Match(res.Direct)
		}

	case models.EventSendMessage:
		var p models.SendMessagePayload
		if m.decode(id, env, &p) {
			m.Chat.RelayMessage(id, p.Text)
		}

	case models.EventTyping:
		var p models.TypingPayload
		if m.decode(id, env, &p) {
			m.Chat.RelayTyping(id, p.IsTyping)
		}

	case models.EventSkipPartner:
		m.Sessions.Teardown(id, ReasonSkip)

	case models.EventLeaveChat:
		m.Queue.Remove(id)
		m.Sessions.Teardown(id, ReasonExit)

	case models.EventAddFriend:
		m.requestAddFriend(id)

	case models.EventGetFriends:
		if identity, ok := m.Registry.Lookup(id); ok {
			m.loadFriends(id, identity.Code)
		}

	default:
		m.dispatchCall(id, env)
	}
}

func (m *ManagerService) dispatchCall(id string, env models.Envelope) {
	switch env.Event {
	case models.EventCallOffer:
		var p models.CallOfferPayload
		if !m.decode(id, env, &p) {
			return
		}
		if !isOffer(p.Offer) {
			log.Warn().Str("module", "hub").Str("conn", id).Str("type", p.Offer.Type.String()).Msg("call-offer without an offer description")
			return
		}
		if m.Calls.Offer(id, p.To, p.Offer, p.Video) == OfferBusy {
			m.Metrics.BusyRejection()
		}

	case models.EventCallAnswer:
		var p models.CallAnswerPayload
		if !m.decode(id, env, &p) {
			return
		}
		if !isAnswer(p.Answer) {
			log.Warn().Str("module", "hub").Str("conn", id).Str("type", p.Answer.Type.String()).Msg("call-answer without an answer description")
			return
		}
		m.Calls.Answer(id, p.To, p.Answer)

	case models.EventICECandidate:
		var p models.ICECandidatePayload
		if m.decode(id, env, &p) {
			m.Calls.ICECandidate(id, p.To, p.Candidate)
		}

	case models.EventCallRejected:
		var p models.CallTargetPayload
		if m.decode(id, env, &p) {
			m.Calls.Reject(id, p.To)
		}

	case models.EventCallEnded:
		var p models.CallTargetPayload
		if m.decode(id, env, &p) {
			m.Calls.End(id, p.To)
		}

	default:
		log.Warn().Str("module", "hub").Str("conn", id).Str("event", env.Event).Msg("unknown event")
	}
}

func (m *ManagerService) decode(id string, env models.Envelope, v any) bool {
	if err := env.Decode(v); err != nil {
		log.Warn().Err(err).Str("module", "hub").Str("conn", id).Str("event", env.Event).Msg("bad payload")
		return false
	}
	return true
}

func (m *ManagerService) handleIdentify(id string, env models.Envelope) {
	var p models.IdentifyPayload
	if env.Event == models.EventSetCode {
		if !m.decode(id, env, &p.Code) {
			return
		}
	} else if !m.decode(id, env, &p) {
		return
	}

	identity, _ := m.Registry.Lookup(id)
	if code, ok := cleanCode(p.Code); ok {
		identity, _ = m.Registry.SetCode(id, code)
	}
	if name := strings.TrimSpace(p.Name); name != "" && utf8.RuneCountInString(name) <= maxNameLength {
		identity, _ = m.Registry.SetDisplayName(id, name)
	}
	m.Registry.Notify(id, models.EventYourCode, identity.Code)
	m.loadFriends(id, identity.Code)
}

func (m *ManagerService) requestAddFriend(id string) {
	self, ok := m.Registry.Lookup(id)
	if !ok {
		return
	}
	partnerID, ok := m.Sessions.PartnerOf(id)
	if !ok {
		return
	}
	partner, ok := m.Registry.Lookup(partnerID)
	if !ok {
		return
	}
	op := friendOp{
		requester:     id,
		requesterCode: self.Code,
		partner:       partnerID,
		partnerCode:   partner.Code,
	}
	ctx := m.baseContext()

	go func() {
		pctx, cancel := context.WithTimeout(ctx, m.PersistTimeout)
		err := m.Friends.Persist(pctx, op.requesterCode, op.partnerCode)
		cancel()
		select {
		case m.friendResults <- friendResult{op: op, err: err}:
		case <-m.done:
		}
	}()
}

// completeAddFriend runs on the hub goroutine after the write-through. Either
// side may have disconnected or changed code in the meantime.
func (m *ManagerService) completeAddFriend(res friendResult) {
	op := res.op
	m.Metrics.FriendWrite(res.err == nil)
	if res.err != nil {
		log.Error().Err(res.err).Str("module", "hub").Str("a", op.requesterCode).Str("b", op.partnerCode).Msg("add friend failed")
		if m.Registry.HoldsCode(op.requester, op.requesterCode) {
			m.Registry.Notify(op.requester, models.EventFriendAddFailed, models.FriendAddFailedPayload{
				Code:   op.partnerCode,
				Reason: res.err.Error(),
			})
		}
		return
	}

	liveA := m.Registry.HoldsCode(op.requester, op.requesterCode)
	liveB := m.Registry.HoldsCode(op.partner, op.partnerCode)
	if liveA && liveB {
		m.Friends.Commit(op.requesterCode, op.partnerCode)
	} else {
		m.Friends.Invalidate(op.requesterCode)
		m.Friends.Invalidate(op.partnerCode)
	}
	if liveA {
		m.Registry.Notify(op.requester, models.EventFriendAdded, op.partnerCode)
	}
	if liveB {
		m.Registry.Notify(op.partner, models.EventFriendAdded, op.requesterCode)
	}
}

func (m *ManagerService) loadFriends(id, code string) {
	ctx := m.baseContext()
	go func() {
		lctx, cancel := context.WithTimeout(ctx, m.PersistTimeout)
		list, err := m.Friends.ListFriends(lctx, code)
		cancel()
		select {
		case m.friendLists <- friendListResult{connectionID: id, code: code, friends: list, err: err}:
		case <-m.done:
		}
	}()
}

func (m *ManagerService) deliverFriendList(res friendListResult) {
	if res.err != nil {
		log.Error().Err(res.err).Str("module", "hub").Str("code", res.code).Msg("load friends failed")
		return
	}
	if m.Registry.HoldsCode(res.connectionID, res.code) {
		m.Registry.Notify(res.connectionID, models.EventFriendsList, res.friends)
	}
}

// baseContext returns the context Run was started with, or Background before that.
func (m *ManagerService) baseContext() context.Context {
	if m.runCtx == nil {
		return context.Background()
	}
	return m.runCtx
}

func cleanCode(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" || utf8.RuneCountInString(code) > maxCodeLength {
		return "", false
	}
	return code, true
}
