// Package controllers holds the gin handlers of the HTTP API.
package controllers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schikko/apperr"
	"schikko/drinks"
	"schikko/ledger"
	"schikko/middleware"
	"schikko/schikko"
	"schikko/session"
	"schikko/throttle"
	"schikko/utils"
)

const requestTimeout = 10 * time.Second

// Limit is a sliding-window rate limit.
type Limit struct {
	Count  int
	Window time.Duration
}

type Limits struct {
	Login  Limit
	Drink  Limit
	Action Limit
}

type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

type Deps struct {
	Election *schikko.Election
	Sessions *session.Manager
	Ledger   *ledger.Ledger
	Drinks   *drinks.Workflow
	Throttle *throttle.Throttle
	Tokens   *utils.IdentityTokens
	Limits   Limits
	Cookie   CookieConfig
	Logger   *slog.Logger
}

type Handler struct {
	Deps
	actions map[string]action
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Handler{Deps: d, actions: actionTable()}
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// requireUID aborts with 401 when the request carries no visitor identity.
func requireUID(c *gin.Context) (string, bool) {
	uid := middleware.UID(c)
	if uid == "" {
		fail(c, apperr.Unauthenticated("no visitor identity"))
		return "", false
	}
	return uid, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperr.InvalidArgument("invalid request body"))
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(apperr.CodeOf(err)), gin.H{
		"success": false,
		"error":   apperr.PublicMessage(err),
	})
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
