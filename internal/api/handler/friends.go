package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetFriends returns the friend codes stored for :code.
func (h *Handler) GetFriends(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	list, err := h.Ledger.ListFriends(c.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("module", "api").Str("code", code).Msg("list friends")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Friend store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": code, "friends": list})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
