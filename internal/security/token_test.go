package security

import (
	"testing"
	"time"
)

func TestSignAndParseUserToken(t *testing.T) {
	token, err := SignUserToken("secret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := ParseUserToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "alice" {
		t.Fatalf("uid = %q, want alice", claims.UserID)
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	token, err := SignUserToken("secret", "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseUserToken("other", token); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestParseUserToken_Expired(t *testing.T) {
	token, err := SignUserToken("secret", "alice", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseUserToken("secret", token); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestParseUserToken_MissingUserID(t *testing.T) {
	token, err := SignUserToken("secret", "", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseUserToken("secret", token); err == nil {
		t.Fatal("expected rejection of empty uid")
	}
}
