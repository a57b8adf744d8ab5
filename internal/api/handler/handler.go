package handler

import (
	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/friends"
)

// Handler holds what the HTTP endpoints need from the rest of the server.
type Handler struct {
	Hub       *chathub.ManagerService
	Ledger    *friends.Ledger
	Tickets   *TicketIssuer
	Transport chathub.TransportConfig
}

func NewHandler(hub *chathub.ManagerService, ledger *friends.Ledger, tickets *TicketIssuer, transport chathub.TransportConfig) *Handler {
	return &Handler{
		Hub:       hub,
		Ledger:    ledger,
		Tickets:   tickets,
		Transport: transport,
	}
}
