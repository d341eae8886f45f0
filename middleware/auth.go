package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"storefront/auth"
	"storefront/config"
	"storefront/database"
)

const identityKey = "identity"

// Auth resolves the session token into an auth.Identity and stores it in the
// gin context. The user document is re-read so a role change takes effect on
// the next request, not at the next login.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := auth.TokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
			return
		}

		secret := []byte(config.GetEnv("JWT_SECRET", ""))
		userID, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user struct {
			Role string `bson:"role"`
		}
		err = database.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
			return
		}

		c.Set(identityKey, auth.Identity{ID: userID, Role: user.Role})
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := Identity(c)
		if !ok || !ident.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
			return
		}
		c.Next()
	}
}

// Identity returns the identity stashed by Auth.
func Identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := v.(auth.Identity)
	return ident, ok
}

// SetIdentity is exposed for handler tests that bypass the JWT gate.
func SetIdentity(c *gin.Context, ident auth.Identity) {
	c.Set(identityKey, ident)
}

var errNoIdentity = errors.New("middleware: identity missing from context")

// RequireIdentity is a convenience for handlers behind Auth.
func RequireIdentity(c *gin.Context) (auth.Identity, error) {
	ident, ok := Identity(c)
	if !ok {
		return auth.Identity{}, errNoIdentity
	}
	return ident, nil
}
