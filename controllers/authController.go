package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schikko/apperr"
	"schikko/middleware"
)

// Anon hands out an anonymous visitor identity. A visitor that already has a
// valid identity keeps it.
func (h *Handler) Anon(c *gin.Context) {
	if uid := middleware.UID(c); uid != "" {
		c.JSON(http.StatusOK, gin.H{"uid": uid})
		return
	}
	uid, token, err := h.Tokens.Issue()
	if err != nil {
		h.Logger.Error("failed to sign identity token", "component", "http", "err", err)
		fail(c, apperr.Internal(err))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.IdentityCookie, token, int(h.Cookie.MaxAge.Seconds()), "/", h.Cookie.Domain, h.Cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"uid": uid, "token": token})
}
