package middleware

import (
	"context"
	"strings"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/auth"
	"github.com/ABH36/Machine-test/models"
	"github.com/ABH36/Machine-test/policy"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// UserLookup confirms that the account behind a token still exists.
type UserLookup interface {
	GetUser(ctx context.Context, id int) (*models.User, error)
}

// AuthMiddleware resolves an optional bearer token into a policy.Principal.
// Requests without a token continue as anonymous; an invalid token or a
// deleted account is rejected with 401.
func AuthMiddleware(tokens *auth.TokenIssuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			abort(c, apperr.Unauthorized("Not authorized, malformed token"))
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			abort(c, err)
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				abort(c, apperr.Unauthorized("Not authorized, user not found"))
				return
			}
			abort(c, err)
			return
		}

		c.Set(principalKey, policy.Principal{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

// PrincipalFrom returns the caller resolved by AuthMiddleware.
func PrincipalFrom(c *gin.Context) policy.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(policy.Principal); ok {
			return p
		}
	}
	return policy.Principal{}
}

func abort(c *gin.Context, err error) {
	pub := apperr.Public(err)
	if pub.Kind == apperr.KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(pub.Kind), gin.H{"error": pub})
}
