package chathub

import (
	"strings"

	"pairchat/backend/internal/models"
)

// ChatRelay forwards chat text and typing state to the session partner.
// Delivery is fire-and-forget.
type ChatRelay struct {
	Registry *Registry
	Sessions *SessionManager
}

func NewChatRelay(registry *Registry, sessions *SessionManager) *ChatRelay {
	return &ChatRelay{Registry: registry, Sessions: sessions}
}

// RelayMessage sends text to the sender's partner, labelled with the
// sender's display name. Blank text and senders without a session are ignored.
func (r *ChatRelay) RelayMessage(sender, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	partner, ok := r.Sessions.PartnerOf(sender)
	if !ok {
		return false
	}
	from, ok := r.Registry.Lookup(sender)
	if !ok {
		return false
	}
	return r.Registry.Notify(partner, models.EventReceiveMessage, models.ReceiveMessagePayload{
		From: from.DisplayName,
		Text: text,
	})
}

func (r *ChatRelay) RelayTyping(sender string, isTyping bool) bool {
	partner, ok := r.Sessions.PartnerOf(sender)
	if !ok {
		return false
	}
	return r.Registry.Notify(partner, models.EventTyping, models.TypingStatusPayload{Status: isTyping})
}
