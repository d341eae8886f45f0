package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()

	token, err := NewToken(userID, []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	got, err := ParseToken(token, []byte("secret"))
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID.Hex(), got.Hex())
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := NewToken(primitive.NewObjectID(), []byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	if _, err := ParseToken(token, []byte("other")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not-a-jwt", []byte("secret")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenFromRequestCookie(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})

	raw, err := TokenFromRequest(req)
	if err != nil {
		t.Fatalf("TokenFromRequest: %v", err)
	}
	if raw != "abc" {
		t.Fatalf("expected cookie token, got %q", raw)
	}
}

func TestTokenFromRequestBearer(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer xyz")

	raw, err := TokenFromRequest(req)
	if err != nil {
		t.Fatalf("TokenFromRequest: %v", err)
	}
	if raw != "xyz" {
		t.Fatalf("expected bearer token, got %q", raw)
	}
}

func TestTokenFromRequestMissing(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)

	if _, err := TokenFromRequest(req); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}
