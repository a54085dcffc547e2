package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLedger lists every person with their stripe counts.
func (h *Handler) GetLedger(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	tallies, err := h.Ledger.Tallies(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"people": tallies})
}

func (h *Handler) GetRules(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	rules, err := h.Ledger.ListRules(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}
