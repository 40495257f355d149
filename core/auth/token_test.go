package auth

import (
	"strings"
	"testing"

	"audioarchive/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		SessionTokenTTL: 1,
		LoginTokenTTL:   15,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, 42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.ID == "" {
		t.Error("token has no jti; sign-out cannot denylist it")
	}
	if claims.ExpiresAt == nil {
		t.Error("token has no expiry")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(testConfig(), 42, "user@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := testConfig()
	other.JWTSecret = "a-different-secret"
	if _, err := ParseToken(other, token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken(testConfig(), "not.a.token"); err == nil {
		t.Fatal("garbage token was accepted")
	}
}

func TestNewLoginTokenIsOpaque(t *testing.T) {
	a := NewLoginToken()
	b := NewLoginToken()

	if a == b {
		t.Error("two login tokens collided")
	}
	if len(a) < 32 {
		t.Errorf("login token too short: %d chars", len(a))
	}
	if strings.Contains(a, "-") {
		t.Errorf("login token contains separators: %q", a)
	}
}

func TestLoginLinkURL(t *testing.T) {
	cfg := testConfig()
	cfg.PublicBaseURL = "http://example.com"

	link := LoginLinkURL(cfg, "tok123", "http://example.com/app")
	if !strings.HasPrefix(link, "http://example.com/api/auth/verify?") {
		t.Errorf("link = %q", link)
	}
	if !strings.Contains(link, "token=tok123") {
		t.Errorf("link missing token: %q", link)
	}
	if !strings.Contains(link, "redirect=") {
		t.Errorf("link missing redirect: %q", link)
	}
}
