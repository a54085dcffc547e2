package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"schikko/utils"
)

const (
	IdentityCookie = "schikko_uid"
	identityKey    = "uid"
)

// Identity resolves the anonymous visitor identity from the identity cookie,
// or from a Bearer token for clients without cookies. Requests without a
// valid token pass through unidentified; handlers that need an identity
// reject them.
func Identity(tokens *utils.IdentityTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(IdentityCookie)
		if err != nil || token == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token != "" {
			if uid, err := tokens.Validate(token); err == nil {
				c.Set(identityKey, uid)
			}
		}
		c.Next()
	}
}

// UID returns the identity set by Identity, or "".
func UID(c *gin.Context) string {
	return c.GetString(identityKey)
}
