package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schikko/throttle"
)

type drinkInput struct {
	PersonID string `json:"personId"`
	Amount   int    `json:"amount"`
}

// DrinkRequest lets any identified visitor ask for fulfilled stripes.
func (h *Handler) DrinkRequest(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}
	var input drinkInput
	if !bindJSON(c, &input) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Throttle.Allow(ctx, throttle.DrinkKey(uid), h.Limits.Drink.Count, h.Limits.Drink.Window); err != nil {
		fail(c, err)
		return
	}
	req, err := h.Drinks.Request(ctx, input.PersonID, input.Amount, uid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"id":      req.ID,
		"status":  req.Status,
		"applied": req.Applied,
	})
}
