package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pairchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const ticketIssuer = "pairchat-service"

var ErrInvalidTicket = errors.New("invalid code ticket")

// codeClaims binds a share code to a signed ticket. A ticket only lets a
// reconnecting client get its code back; it proves nothing about identity.
type codeClaims struct {
	Code string `json:"code"`
	jwt.RegisteredClaims
}

// TicketIssuer signs and checks HS256 code tickets.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a ticket for code that expires after the configured TTL.
func (t *TicketIssuer) Issue(code string) (string, error) {
	now := t.now()
	claims := codeClaims{
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate returns the code carried by a ticket.
func (t *TicketIssuer) Validate(ticket string) (string, error) {
	var claims codeClaims
	_, err := jwt.ParseWithClaims(ticket, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.Code == "" {
		return "", fmt.Errorf("%w: empty code", ErrInvalidTicket)
	}
	return claims.Code, nil
}

// GetCode hands out a fresh share code with a ticket for reconnecting.
func (h *Handler) GetCode(c *gin.Context) {
	code := chathub.GenerateCode()

	ticket, err := h.Tickets.Issue(code)
	if err != nil {
		log.Error().Err(err).Str("module", "api").Msg("issue ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code, "ticket": ticket})
}
