package models

import (
	"time"

	"github.com/pion/webrtc/v4"
)

// CallState is the negotiation state of one directed call-setup exchange.
type CallState string

const (
	CallIdle     CallState = "idle"
	CallOffered  CallState = "offered"
	CallAnswered CallState = "answered"
	CallActive   CallState = "active"
	CallRejected CallState = "rejected"
	CallEnded    CallState = "ended"
)

// Terminal reports whether the state closes the negotiation.
func (s CallState) Terminal() bool {
	return s == CallRejected || s == CallEnded
}

// Engaged reports whether the negotiation occupies both endpoints.
func (s CallState) Engaged() bool {
	return s == CallOffered || s == CallAnswered || s == CallActive
}

// CallNegotiation tracks a call from the offerer (From) to the callee (To).
type CallNegotiation struct {
	From     string
	To       string
	HasVideo bool
	State    CallState
	// Descriptor is the last description relayed for this pair. It is kept
	// opaque and never parsed.
	Descriptor webrtc.SessionDescription
	UpdatedAt  time.Time
}
