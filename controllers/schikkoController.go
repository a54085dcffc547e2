package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schikko/apperr"
	"schikko/throttle"
)

func (h *Handler) SchikkoStatus(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	st, err := h.Election.Status(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type nameInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *Handler) SchikkoSet(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}
	var input nameInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Throttle.Allow(ctx, throttle.ElectionKey(uid), h.Limits.Login.Count, h.Limits.Login.Window); err != nil {
		fail(c, err)
		return
	}
	enr, err := h.Election.Enroll(ctx, input.FirstName, input.LastName)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"otp":               enr,
		"needsConfirmation": true,
	})
}

type confirmInput struct {
	nameInput
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (h *Handler) SchikkoConfirm(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}
	var input confirmInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Throttle.Allow(ctx, throttle.ElectionKey(uid), h.Limits.Login.Count, h.Limits.Login.Window); err != nil {
		fail(c, err)
		return
	}
	if err := h.Election.Confirm(ctx, input.FirstName, input.LastName, input.Secret, input.Code); err != nil {
		fail(c, err)
		return
	}
	h.Ledger.Record(ctx, "schikkoConfirm", uid, input.FirstName+" "+input.LastName)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type loginInput struct {
	Code string `json:"code"`
}

// SchikkoLogin answers a wrong code with success=false rather than an error
// status. Every attempt counts against the global login limit.
func (h *Handler) SchikkoLogin(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}
	var input loginInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Throttle.Allow(ctx, throttle.KeyLogin, h.Limits.Login.Count, h.Limits.Login.Window); err != nil {
		fail(c, err)
		return
	}
	sess, err := h.Election.Login(ctx, input.Code, uid)
	if err != nil {
		switch apperr.CodeOf(err) {
		case apperr.CodeInvalidCredential, apperr.CodeInvalidArgument:
			c.JSON(http.StatusOK, gin.H{"success": false})
		default:
			fail(c, err)
		}
		return
	}
	h.Ledger.Record(ctx, "schikkoLogin", uid, "")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"sessionId":   sess.ID,
		"expiresAtMs": sess.ExpiresAt.UnixMilli(),
	})
}
