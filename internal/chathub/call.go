package chathub

import (
	"time"

	"pairchat/backend/internal/models"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// OfferResult tells the caller what happened to a call offer.
type OfferResult int

const (
	OfferForwarded OfferResult = iota
	// OfferBusy means the offerer got a busy rejection instead.
	OfferBusy
	// OfferDropped means an endpoint is gone or the offer addressed the sender.
	OfferDropped
)

type callKey struct {
	from, to string
}

// CallRelay forwards WebRTC negotiation payloads between two connections and
// keeps one negotiation record per directed pair. Descriptors and candidates
// are opaque; only addressing and the state guard are looked at.
type CallRelay struct {
	Registry     *Registry
	negotiations map[callKey]*models.CallNegotiation
}

func NewCallRelay(registry *Registry) *CallRelay {
	return &CallRelay{
		Registry:     registry,
		negotiations: make(map[callKey]*models.CallNegotiation),
	}
}

// State returns the negotiation state of the directed pair from → to.
func (r *CallRelay) State(from, to string) models.CallState {
	if n, ok := r.negotiations[callKey{from, to}]; ok {
		return n.State
	}
	return models.CallIdle
}

// busyWith reports whether target is engaged in a negotiation with anyone
// other than peer.
func (r *CallRelay) busyWith(target, peer string) bool {
	for k, n := range r.negotiations {
		if !n.State.Engaged() {
			continue
		}
		switch target {
		case k.to:
			if k.from != peer {
				return true
			}
		case k.from:
			if k.to != peer {
				return true
			}
		}
	}
	return false
}

// Offer starts (or restarts) a negotiation from → to. If to is already
// negotiating with a different peer the offerer receives a busy
// call-rejected and nothing is forwarded.
func (r *CallRelay) Offer(from, to string, offer webrtc.SessionDescription, hasVideo bool) OfferResult {
	if from == to {
		return OfferDropped
	}
	caller, ok := r.Registry.Lookup(from)
	if !ok || !r.Registry.IsLive(to) {
		return OfferDropped
	}
	if r.busyWith(to, from) {
		r.Registry.Notify(from, models.EventCallRejected, models.CallTerminationPayload{
			From:   to,
			Reason: models.CallRejectBusy,
		})
		log.Info().Str("module", "calls").Str("from", from).Str("to", to).Msg("callee busy, offer rejected")
		return OfferBusy
	}

	// A finished call in the other direction must not shadow this one.
	if rev, ok := r.negotiations[callKey{to, from}]; ok && rev.State.Terminal() {
		delete(r.negotiations, callKey{to, from})
	}
	r.negotiations[callKey{from, to}] = &models.CallNegotiation{
		From:       from,
		To:         to,
		HasVideo:   hasVideo,
		State:      models.CallOffered,
		Descriptor: offer,
		UpdatedAt:  time.Now(),
	}
	r.Registry.Notify(to, models.EventCallOffer, models.IncomingCallPayload{
		From:  from,
		Name:  caller.DisplayName,
		Offer: offer,
		Video: hasVideo,
	})
	return OfferForwarded
}

// Answer forwards the callee's answer to the offerer and moves the offerer's
// negotiation to answered.
func (r *CallRelay) Answer(from, to string, answer webrtc.SessionDescription) bool {
	if !r.Registry.IsLive(to) {
		return false
	}
	if n, ok := r.negotiations[callKey{to, from}]; ok && n.State == models.CallOffered {
		n.State = models.CallAnswered
		n.Descriptor = answer
		n.UpdatedAt = time.Now()
	}
	return r.Registry.Notify(to, models.EventCallAnswer, models.CallAnswerForward{
		From:   from,
		Answer: answer,
	})
}

// ICECandidate forwards a candidate unless every negotiation of the pair has
// terminated. The first candidate after an answer marks the call active.
func (r *CallRelay) ICECandidate(from, to string, candidate webrtc.ICECandidateInit) bool {
	if !r.Registry.IsLive(to) {
		return false
	}
	var live, ended bool
	for _, k := range []callKey{{from, to}, {to, from}} {
		n, ok := r.negotiations[k]
		if !ok {
			continue
		}
		if n.State.Terminal() {
			ended = true
			continue
		}
		live = true
		if n.State == models.CallAnswered {
			n.State = models.CallActive
			n.UpdatedAt = time.Now()
		}
	}
	if ended && !live {
		return false
	}
	return r.Registry.Notify(to, models.EventICECandidate, models.ICECandidateForward{
		From:      from,
		Candidate: candidate,
	})
}

// Reject declines or cancels a call between from and to.
func (r *CallRelay) Reject(from, to string) bool {
	r.terminate(from, to, models.CallRejected)
	return r.Registry.Notify(to, models.EventCallRejected, models.CallTerminationPayload{From: from})
}

// End hangs up a call between from and to.
func (r *CallRelay) End(from, to string) bool {
	r.terminate(from, to, models.CallEnded)
	return r.Registry.Notify(to, models.EventCallEnded, models.CallTerminationPayload{From: from})
}

// terminate closes both directions of the pair. A later offer starts over.
func (r *CallRelay) terminate(a, b string, state models.CallState) {
	for _, k := range []callKey{{a, b}, {b, a}} {
		if n, ok := r.negotiations[k]; ok {
			n.State = state
			n.UpdatedAt = time.Now()
		}
	}
}

// ClearPair ends any negotiation between a and b without notifying either side.
func (r *CallRelay) ClearPair(a, b string) {
	r.terminate(a, b, models.CallEnded)
}

// Forget drops every negotiation involving connectionID.
func (r *CallRelay) Forget(connectionID string) {
	for k := range r.negotiations {
		if k.from == connectionID || k.to == connectionID {
			delete(r.negotiations, k)
		}
	}
}

// Len returns the number of tracked directed pairs.
func (r *CallRelay) Len() int {
	return len(r.negotiations)
}
