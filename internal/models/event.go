package models

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Client → server events.
const (
	EventIdentify     = "identify"
	EventSetCode      = "set-code" // legacy alias of identify, data is a bare code string
	EventFindPartner  = "find-partner"
	EventSendMessage  = "send-message"
	EventTyping       = "typing"
	EventSkipPartner  = "skip-partner"
	EventLeaveChat    = "leave-chat"
	EventAddFriend    = "add-friend"
	EventGetFriends   = "get-friends"
	EventCallOffer    = "call-offer"
	EventCallAnswer   = "call-answer"
	EventICECandidate = "ice-candidate"
	EventCallRejected = "call-rejected"
	EventCallEnded    = "call-ended"
)

// Server → client events. Call events reuse the client names above.
const (
	EventYourCode            = "your-code"
	EventPartnerFound        = "partner-found"
	EventStatus              = "status"
	EventFriendOffline       = "friend-offline"
	EventReceiveMessage      = "receive-message"
	EventPartnerDisconnected = "partner-disconnected"
	EventFriendAdded         = "friend-added"
	EventFriendAddFailed     = "friend-add-failed"
	EventFriendsList         = "friends-list"
)

// Envelope is one addressed message on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// Decode unmarshals the envelope data into v. Empty data leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Inbound is an envelope tagged with the connection it arrived on.
type Inbound struct {
	ConnectionID string
	Envelope     Envelope
}

type IdentifyPayload struct {
	Code string `json:"code,omitempty"`
	Name string `json:"name,omitempty"`
}

type FindPartnerPayload struct {
	SearchCode string `json:"searchCode,omitempty"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

type TypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

type CallOfferPayload struct {
	To    string                    `json:"to"`
	Offer webrtc.SessionDescription `json:"offer"`
	Video bool                      `json:"video"`
}

type CallAnswerPayload struct {
	To     string                    `json:"to"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type ICECandidatePayload struct {
	To        string                  `json:"to"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// CallTargetPayload addresses call-rejected and call-ended.
type CallTargetPayload struct {
	To string `json:"to"`
}

type PartnerFoundPayload struct {
	PartnerID string `json:"partnerId"`
	Name      string `json:"name"`
	Code      string `json:"code"`
}

type ReceiveMessagePayload struct {
	From string `json:"from"`
	Text string `json:"text"`
}

type TypingStatusPayload struct {
	Status bool `json:"status"`
}

type FriendAddFailedPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type IncomingCallPayload struct {
	From  string                    `json:"from"`
	Name  string                    `json:"name"`
	Offer webrtc.SessionDescription `json:"offer"`
	Video bool                      `json:"video"`
}

type CallAnswerForward struct {
	From   string                    `json:"from"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type ICECandidateForward struct {
	From      string                  `json:"from"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// CallTerminationPayload is sent with call-rejected and call-ended.
type CallTerminationPayload struct {
	From   string `json:"from"`
	Reason string `json:"reason,omitempty"`
}

// CallRejectBusy is the reason attached when the callee is already in a negotiation.
const CallRejectBusy = "busy"
