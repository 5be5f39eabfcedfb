package utils

import (
	"errors"
	"testing"
	"time"
)

func TestDriverTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateDriverToken(7, "juan")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.Role != RoleDriver || claims.Username != "juan" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.TerminalID != 0 {
		t.Errorf("driver token should not carry a terminal, got %d", claims.TerminalID)
	}
}

func TestTerminalAdminTokenCarriesTerminal(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.GenerateTerminalAdminToken(3, "naval_admin", 9, "Naval Terminal")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != RoleTerminalAdmin || claims.TerminalID != 9 || claims.TerminalName != "Naval Terminal" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	expired := NewTokenIssuer("secret", -time.Minute)

	foreign, _ := other.GenerateDriverToken(1, "a")
	if _, err := issuer.ValidateToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	old, _ := expired.GenerateDriverToken(1, "a")
	if _, err := issuer.ValidateToken(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := issuer.ValidateToken("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
