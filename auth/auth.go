// Package auth resolves opaque credentials into user identities. Helpers
// return tagged errors, never HTTP responses; translating ErrNoToken and
// ErrInvalidToken into status codes is the middleware's job.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CookieName = "token"

var (
	ErrNoToken      = errors.New("auth: no token supplied")
	ErrInvalidToken = errors.New("auth: invalid or expired token")
)

// Identity is a resolved user. Handlers receive it from the middleware and
// never re-derive it themselves.
type Identity struct {
	ID   primitive.ObjectID
	Role string
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

// NewToken signs a session token carrying the user id.
func NewToken(userID primitive.ObjectID, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID.Hex(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry and returns the user id.
func ParseToken(raw string, secret []byte) (primitive.ObjectID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}

	id, _ := claims["id"].(string)
	userID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}

	return userID, nil
}

// TokenFromRequest looks for the session cookie first, then a bearer header.
func TokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if raw := strings.TrimPrefix(header, "Bearer "); raw != "" {
			return raw, nil
		}
	}

	return "", ErrNoToken
}
