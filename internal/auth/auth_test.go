package auth

import (
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("profile-1", "user-1", "staff", "secret")
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	claims, err := ParseToken(tok, "secret")
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ProfileID != "profile-1" || claims.UserID != "user-1" || claims.Role != "staff" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := MakeToken("profile-1", "user-1", "student", "secret")
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := ParseToken(tok, "other-secret"); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not-a-jwt", "secret"); err == nil {
		t.Fatal("expected parse failure")
	}
}
