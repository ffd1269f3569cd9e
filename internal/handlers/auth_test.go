package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestHashTokenDeterministic(t *testing.T) {
	a := hashToken("some-token")
	b := hashToken("some-token")
	if a != b {
		t.Errorf("same token produced different hashes: %s vs %s", a, b)
	}
	if a == "some-token" {
		t.Error("hash equals the raw token")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if hashToken("other-token") == a {
		t.Error("different tokens collided")
	}
}

func TestGenerateTokenString(t *testing.T) {
	a := generateTokenString()
	b := generateTokenString()
	if a == "" || b == "" {
		t.Fatal("token generation returned empty string")
	}
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("two generated tokens are identical")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(hash) == "correct-horse-battery" {
		t.Fatal("hash equals the plaintext")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("correct-horse-battery")); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("wrong-password")); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestIssueTokenClaimsRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	secret := "test-secret"

	raw, err := issueToken(userID, "user@example.com", "admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	parsed, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token reported invalid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims type %T", parsed.Claims)
	}
	if claims["userId"] != userID.Hex() {
		t.Errorf("userId claim = %v, want %s", claims["userId"], userID.Hex())
	}
	if claims["email"] != "user@example.com" {
		t.Errorf("email claim = %v", claims["email"])
	}
	if claims["role"] != "admin" {
		t.Errorf("role claim = %v", claims["role"])
	}
}

func TestIssueTokenRejectsWrongSecret(t *testing.T) {
	raw, err := issueToken(primitive.NewObjectID(), "user@example.com", "user", "right-secret", time.Hour)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	_, err = jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	if err == nil {
		t.Error("token verified under the wrong secret")
	}
}
