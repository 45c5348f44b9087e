package util

import (
	"net/http"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	userID, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if userID != 42 {
		t.Errorf("expected user 42, got %d", userID)
	}
}

func TestParseJWT_Rejects(t *testing.T) {
	valid, _ := GenerateJWT(7, "secret", time.Hour)
	expired, _ := GenerateJWT(7, "secret", -time.Minute)

	cases := map[string]string{
		"wrong secret": valid,
		"expired":      expired,
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		secret := "secret"
		if name == "wrong secret" {
			secret = "other"
		}
		if _, err := ParseJWT(token, secret); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer a b":  "",
	}
	for header, want := range cases {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := ExtractToken(r); got != want {
			t.Errorf("ExtractToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("s3cret!", hash) {
		t.Error("expected password to match its hash")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected wrong password to be rejected")
	}
}
