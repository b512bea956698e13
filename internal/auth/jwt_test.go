package auth

import (
	"strings"
	"testing"
	"time"

	"voice-journal/backend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	service, err := NewService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("service init: %v", err)
	}

	csrf, err := GenerateCSRFToken()
	if err != nil {
		t.Fatalf("csrf: %v", err)
	}

	device := models.Device{ID: "device-1", Name: "Pixel"}
	token, err := service.GenerateToken(device, csrf)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	parsed, err := service.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if parsed.ID != device.ID || parsed.Name != device.Name {
		t.Fatalf("unexpected claims: %+v", parsed)
	}
	if parsed.CSRF != csrf {
		t.Fatalf("csrf mismatch")
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewService("one", time.Hour)
	verifier, _ := NewService("two", time.Hour)
	token, _ := issuer.GenerateToken(models.Device{ID: "d"}, "c")
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected signature error")
	}
	if _, err := NewService("", time.Hour); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestPairing(t *testing.T) {
	pairing, err := NewPairing("483920")
	if err != nil {
		t.Fatalf("pairing: %v", err)
	}
	if err := pairing.Verify("483920"); err != nil {
		t.Fatalf("expected code accepted: %v", err)
	}
	if err := pairing.Verify("000000"); err == nil {
		t.Fatal("expected wrong code rejected")
	}

	link, err := pairing.Link("http://192.168.1.5:8080")
	if err != nil || !strings.HasPrefix(link, "voicejournal://pair?") || !strings.Contains(link, "code=483920") {
		t.Fatalf("unexpected link %q %v", link, err)
	}
	qr, err := QRDataURL(link)
	if err != nil || !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Fatalf("unexpected qr %v", err)
	}

	disabled, _ := NewPairing("")
	if err := disabled.Verify("anything"); err != ErrPairingDisabled {
		t.Fatalf("expected disabled pairing, got %v", err)
	}
}
